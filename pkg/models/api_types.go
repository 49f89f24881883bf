/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import "time"

// IngestResponse acknowledges an accepted report.
// @Description Receipt for a stored report.
type IngestResponse struct {
	// Always "ok"
	Status string `json:"status" example:"ok"`
	// Device the report was stored under
	DeviceID string `json:"device_id" example:"edge-router-1"`
	// Arrival time assigned by the server
	ReceivedAt time.Time `json:"received_at" example:"2025-04-24T14:15:22Z"`
}

// DevicesResponse wraps the device list.
// @Description List of known devices with derived status.
type DevicesResponse struct {
	Devices []DeviceSummary `json:"devices"`
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"dev"`
	Devices int    `json:"devices" example:"12"`
}

// ErrorResponse represents an API error response.
// @Description Error information returned from the API.
type ErrorResponse struct {
	// Error message
	Message string `json:"error" example:"Device not found"`
	// HTTP status code
	Status int `json:"status" example:"404"`
}
