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
	"net/http"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetradar/pkg/ledger"
	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
)

func TestReportSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix   string
		deviceID string
		want     string
	}{
		{"", "host-1", "fleet.reports.host-1"},
		{"lab.reports.", "host-1", "lab.reports.host-1"},
		{"", "snmp_10.0.0.1", "fleet.reports.snmp_10_0_0_1"},
		{"", "a*b>c d", "fleet.reports.a_b_c_d"},
		{"", "  ", "fleet.reports.unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ReportSubject(tt.prefix, tt.deviceID), tt.deviceID)
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		subject string
		want    bool
	}{
		{"fleet.reports.>", "fleet.reports.host-1", true},
		{"fleet.reports.>", "fleet.reports", false},
		{"fleet.*.host-1", "fleet.reports.host-1", true},
		{"fleet.*", "fleet.reports.host-1", false},
		{"fleet.reports.host-1", "fleet.reports.host-1", true},
		{"fleet.reports.host-2", "fleet.reports.host-1", false},
		{">", "anything.at.all", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesSubject(tt.pattern, tt.subject), "%s vs %s", tt.pattern, tt.subject)
	}
}

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"fleet.>"}, ensureSubjectList([]string{"fleet.>"}, "fleet.reports.>"))
	assert.Equal(t, []string{"events.>", "fleet.reports.>"}, ensureSubjectList([]string{"events.>"}, "fleet.reports.>"))
	assert.Equal(t, []string{"fleet.reports.>"}, ensureSubjectList(nil, "fleet.reports.>"))
}

func TestIsStreamMissingErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"jetstream no stream response", jetstream.ErrNoStreamResponse, true},
		{"jetstream stream not found", jetstream.ErrStreamNotFound, true},
		{"nats no stream response", nats.ErrNoStreamResponse, true},
		{"nats stream not found", nats.ErrStreamNotFound, true},
		{"no responders", nats.ErrNoResponders, true},
		{"wrapped", fmt.Errorf("lookup: %w", jetstream.ErrStreamNotFound), true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isStreamMissingErr(tt.err), tt.name)
	}
}

func TestTLSConfigRequiresFiles(t *testing.T) {
	t.Parallel()

	_, err := TLSConfig(nil)
	require.ErrorIs(t, err, ErrTLSConfigRequired)

	_, err = TLSConfig(&models.NATSTLSConfig{CertFile: "cert.pem"})
	require.ErrorIs(t, err, ErrTLSConfigRequired)

	_, err = TLSConfig(&models.NATSTLSConfig{CertFile: "/nonexistent/c", KeyFile: "/nonexistent/k", CAFile: "/nonexistent/ca"})
	require.Error(t, err)
}

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data

	return f.err
}

func TestReportPublisher(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	pub := NewReportPublisher(conn, "")

	report := &models.Report{DeviceID: "host-1", OverallStatus: models.StatusHealthy}
	require.NoError(t, pub.Publish(context.Background(), report))

	assert.Equal(t, "fleet.reports.host-1", conn.subject)

	var got models.Report
	require.NoError(t, json.Unmarshal(conn.data, &got))
	assert.Equal(t, "host-1", got.DeviceID)
	assert.Equal(t, models.StatusHealthy, got.OverallStatus)

	require.ErrorIs(t, pub.Publish(context.Background(), &models.Report{}), errDeviceIDRequired)

	conn.err = nats.ErrConnectionClosed
	require.ErrorIs(t, pub.Publish(context.Background(), report), nats.ErrConnectionClosed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, pub.Publish(ctx, report), context.Canceled)
}

type fakeRecorder struct {
	reports []*models.Report
	err     error
}

func (f *fakeRecorder) Record(report *models.Report) (ledger.Receipt, error) {
	if f.err != nil {
		return ledger.Receipt{}, f.err
	}

	f.reports = append(f.reports, report)

	return ledger.Receipt{DeviceID: report.DeviceID, ReceivedAt: time.Date(2025, 4, 24, 12, 0, 0, 0, time.UTC)}, nil
}

type fakeObserver struct {
	ingested int
	rejected []string
}

func (f *fakeObserver) ObserveIngested(transport string) {
	if transport == transportNATS {
		f.ingested++
	}
}

func (f *fakeObserver) ObserveRejected(_, reason string) {
	f.rejected = append(f.rejected, reason)
}

func TestSubscriberProcess(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}
	obs := &fakeObserver{}
	sub := NewReportSubscriber(nil, SubscriberConfig{}, rec, obs, logger.NewTestLogger())

	assert.Equal(t, DefaultReportSubject, sub.cfg.Subject)
	assert.Equal(t, DefaultQueue, sub.cfg.Queue)

	body, err := sub.process([]byte(`{"device_id":"host-1","overall_status":"warning"}`))
	require.NoError(t, err)
	require.Len(t, rec.reports, 1)
	assert.Equal(t, models.Status("warning"), rec.reports[0].OverallStatus)

	var receipt models.IngestResponse
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, "ok", receipt.Status)
	assert.Equal(t, "host-1", receipt.DeviceID)
	assert.Equal(t, 1, obs.ingested)

	body, err = sub.process([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, isDecodeErr(err))

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Invalid JSON payload", resp.Message)

	assert.Equal(t, []string{reasonInvalidJSON}, obs.rejected)
}

func TestSubscriberProcessRecorderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"validation", fmt.Errorf("%w: device_id is required", ledger.ErrValidation), http.StatusBadRequest, reasonValidation},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, reasonInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			obs := &fakeObserver{}
			sub := NewReportSubscriber(nil, SubscriberConfig{}, &fakeRecorder{err: tt.err}, obs, nil)

			body, err := sub.process([]byte(`{"device_id":""}`))
			require.ErrorIs(t, err, tt.err)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, []string{tt.wantReason}, obs.rejected)
		})
	}
}

func TestSubscriberHandleCoreWithoutReply(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}
	sub := NewReportSubscriber(nil, SubscriberConfig{}, rec, nil, nil)

	sub.handleCore(&nats.Msg{Subject: "fleet.reports.host-1", Data: []byte(`{"device_id":"host-1"}`)})

	require.Len(t, rec.reports, 1)
	assert.Equal(t, "host-1", rec.reports[0].DeviceID)
}

func TestSubscriberStopBeforeStart(t *testing.T) {
	t.Parallel()

	sub := NewReportSubscriber(nil, SubscriberConfig{}, &fakeRecorder{}, nil, nil)
	require.NoError(t, sub.Stop())
}
