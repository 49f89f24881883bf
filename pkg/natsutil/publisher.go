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

package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carverauto/fleetradar/pkg/models"
)

var errDeviceIDRequired = errors.New("report has no device_id")

// MessagePublisher is satisfied by *nats.Conn.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// ReportPublisher publishes device reports to per-device subjects.
type ReportPublisher struct {
	conn   MessagePublisher
	prefix string
}

// NewReportPublisher returns a publisher writing under prefix, or
// ReportSubjectPrefix when prefix is empty.
func NewReportPublisher(conn MessagePublisher, prefix string) *ReportPublisher {
	if prefix == "" {
		prefix = ReportSubjectPrefix
	}

	return &ReportPublisher{conn: conn, prefix: prefix}
}

// Publish sends the report to <prefix>.<device_id>.
func (p *ReportPublisher) Publish(ctx context.Context, report *models.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if report == nil || report.DeviceID == "" {
		return errDeviceIDRequired
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	subject := ReportSubject(p.prefix, report.DeviceID)

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish report to %s: %w", subject, err)
	}

	return nil
}
