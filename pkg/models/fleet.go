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

import (
	"encoding/json"
	"time"
)

const (
	DashboardStatusOK     = "ok"
	DashboardStatusNoData = "no_data"
)

// DeviceSummary is one row of the device list.
type DeviceSummary struct {
	DeviceID      string     `json:"device_id"`
	Hostname      string     `json:"hostname"`
	DeviceType    string     `json:"device_type"`
	OverallStatus Status     `json:"overall_status"`
	LastSeen      *time.Time `json:"last_seen"`
	IsStale       bool       `json:"is_stale"`
}

// DeviceDetail is the stored report enriched with freshness information.
type DeviceDetail struct {
	Report     *Report
	ReceivedAt *time.Time
	IsStale    bool
	AgeSeconds *float64
}

// MarshalJSON renders the report fields at the top level next to the
// engine-assigned received_at, is_stale and age_seconds.
func (d DeviceDetail) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any)

	if d.Report != nil {
		base, err := json.Marshal(d.Report)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(base, &doc); err != nil {
			return nil, err
		}
	}

	doc["received_at"] = d.ReceivedAt
	doc["is_stale"] = d.IsStale
	doc["age_seconds"] = d.AgeSeconds

	return json.Marshal(doc)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (d *DeviceDetail) UnmarshalJSON(data []byte) error {
	var meta struct {
		ReceivedAt *time.Time `json:"received_at"`
		IsStale    bool       `json:"is_stale"`
		AgeSeconds *float64   `json:"age_seconds"`
	}

	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return err
	}

	for _, key := range []string{"received_at", "is_stale", "age_seconds"} {
		delete(report.Extra, key)
	}

	if len(report.Extra) == 0 {
		report.Extra = nil
	}

	*d = DeviceDetail{
		Report:     &report,
		ReceivedAt: meta.ReceivedAt,
		IsStale:    meta.IsStale,
		AgeSeconds: meta.AgeSeconds,
	}

	return nil
}

// DashboardDevice is the per-device block of the dashboard.
type DashboardDevice struct {
	DeviceID      string                `json:"device_id"`
	Hostname      string                `json:"hostname"`
	Platform      string                `json:"platform"`
	IsOnline      bool                  `json:"is_online"`
	OverallStatus Status                `json:"overall_status"`
	Metrics       map[Subsystem]Reading `json:"metrics"`
	LastSeen      *time.Time            `json:"last_seen"`
	AgeSeconds    *float64              `json:"age_seconds"`
}

// FleetSummary counts devices by freshness and, among online devices, by status.
type FleetSummary struct {
	TotalDevices int `json:"total_devices"`
	Online       int `json:"online"`
	Offline      int `json:"offline"`
	Healthy      int `json:"healthy"`
	Warning      int `json:"warning"`
	Critical     int `json:"critical"`
}

// SubsystemStatus is one named fleet rollup with a display detail.
type SubsystemStatus struct {
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// SystemStatus is the fixed set of fleet rollups shown on the dashboard.
type SystemStatus struct {
	Network  SubsystemStatus `json:"network"`
	Compute  SubsystemStatus `json:"compute"`
	Storage  SubsystemStatus `json:"storage"`
	Cooling  SubsystemStatus `json:"cooling"`
	Security SubsystemStatus `json:"security"`
	Power    SubsystemStatus `json:"power"`
}

// Dashboard is the consolidated fleet view.
type Dashboard struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Devices      []DashboardDevice `json:"devices"`
	Summary      FleetSummary      `json:"summary"`
	SystemStatus SystemStatus      `json:"system_status"`
}
