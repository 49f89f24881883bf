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

// Package api pkg/core/api/interfaces.go
package api

import (
	"github.com/carverauto/fleetradar/pkg/ledger"
	"github.com/carverauto/fleetradar/pkg/models"
)

//go:generate mockgen -destination=mock_interfaces.go -package=api github.com/carverauto/fleetradar/pkg/core/api ReportRecorder,FleetQuerier,IngestObserver

// ReportRecorder is the write path into the device ledger.
type ReportRecorder interface {
	Record(report *models.Report) (ledger.Receipt, error)
}

// FleetQuerier serves the read views.
type FleetQuerier interface {
	ListDevices() []models.DeviceSummary
	DeviceDetail(deviceID string) (*models.DeviceDetail, error)
	Dashboard() *models.Dashboard
}

// IngestObserver is notified of accepted and rejected reports.
type IngestObserver interface {
	ObserveIngested(transport string)
	ObserveRejected(transport, reason string)
}
