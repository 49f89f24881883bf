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

package agent

//go:generate mockgen -destination=mock_agent.go -package=agent github.com/carverauto/fleetradar/pkg/agent Collector,Sender

import (
	"context"

	"github.com/carverauto/fleetradar/pkg/models"
)

// Collector produces one report per call for a single device.
type Collector interface {
	DeviceID() string
	Collect(ctx context.Context) (*models.Report, error)
}

// Sender delivers a report to the core.
type Sender interface {
	Send(ctx context.Context, report *models.Report) error
}
