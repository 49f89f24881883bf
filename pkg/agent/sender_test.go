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

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetradar/pkg/models"
	"github.com/carverauto/fleetradar/pkg/natsutil"
)

func TestNewHTTPSenderEndpoint(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"http://core:5001":                     "http://core:5001/api/metrics/ingest",
		"http://core:5001/":                    "http://core:5001/api/metrics/ingest",
		"http://core:5001/api/metrics/ingest":  "http://core:5001/api/metrics/ingest",
		"http://core:5001/api/metrics/ingest/": "http://core:5001/api/metrics/ingest",
		"https://fleet.example.com/prefix":     "https://fleet.example.com/prefix/api/metrics/ingest",
	}

	for in, want := range tests {
		assert.Equal(t, want, NewHTTPSender(in, "", nil).Endpoint(), in)
	}
}

func TestHTTPSenderSend(t *testing.T) {
	t.Parallel()

	var got models.Report

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ingestPath, r.URL.Path)
		assert.Equal(t, "k3y", r.Header.Get(apiKeyHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "fleetradar-agent/dev", r.Header.Get("User-Agent"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","device_id":"dev-1"}`))
	}))
	defer srv.Close()

	report := &models.Report{
		DeviceID:      "dev-1",
		OverallStatus: models.StatusHealthy,
		Metrics: map[models.Subsystem]models.Reading{
			models.SubsystemCPU: {Status: models.StatusHealthy, UsagePercent: float64Ptr(12.5)},
		},
	}

	require.NoError(t, NewHTTPSender(srv.URL, "k3y", srv.Client()).Send(context.Background(), report))

	assert.Equal(t, "dev-1", got.DeviceID)
	require.NotNil(t, got.Metrics[models.SubsystemCPU].UsagePercent)
	assert.InDelta(t, 12.5, *got.Metrics[models.SubsystemCPU].UsagePercent, 1e-9)
}

func TestHTTPSenderRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json error", http.StatusUnauthorized, `{"error":"Invalid or missing API key","status":401}`, "401 Invalid or missing API key"},
		{"plain text", http.StatusBadGateway, "upstream down\n", "502 upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewHTTPSender(srv.URL, "", srv.Client()).Send(context.Background(), &models.Report{DeviceID: "d"})
			require.ErrorIs(t, err, errIngestRejected)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

type recordingConn struct {
	subject string
	data    []byte
	err     error
}

func (r *recordingConn) Publish(subject string, data []byte) error {
	r.subject = subject
	r.data = data

	return r.err
}

var _ natsutil.MessagePublisher = (*recordingConn)(nil)

func TestNATSSenderSend(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{}
	sender := NewNATSSender(conn, "fleet.reports")

	require.NoError(t, sender.Send(context.Background(), &models.Report{DeviceID: "web.01"}))
	assert.Equal(t, "fleet.reports.web_01", conn.subject)

	var decoded models.Report
	require.NoError(t, json.Unmarshal(conn.data, &decoded))
	assert.Equal(t, "web.01", decoded.DeviceID)

	conn.err = errors.New("nats: connection closed")
	require.Error(t, sender.Send(context.Background(), &models.Report{DeviceID: "web.01"}))
}
