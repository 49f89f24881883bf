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

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetradar/pkg/models"
)

func dialStream(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/metrics/stream"

	return websocket.DefaultDialer.Dial(url, header)
}

func TestStreamPushesDashboard(t *testing.T) {
	s, l := newEngineServer(t, WithStreamInterval(20*time.Millisecond))

	_, err := l.Record(&models.Report{
		DeviceID:      "edge-1",
		OverallStatus: models.StatusCritical,
		Metrics: map[models.Subsystem]models.Reading{
			models.SubsystemCPU: {Status: models.StatusCritical},
		},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, resp, err := dialStream(t, srv, nil)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()
	defer func() { _ = resp.Body.Close() }()

	for range 2 {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))

		assert.Equal(t, StreamMessageDashboard, msg.Type)
		require.NotNil(t, msg.Dashboard)
		assert.Equal(t, models.DashboardStatusOK, msg.Dashboard.Status)
		require.Len(t, msg.Dashboard.Devices, 1)
		assert.Equal(t, "edge-1", msg.Dashboard.Devices[0].DeviceID)
		assert.Equal(t, 1, msg.Dashboard.Summary.Critical)
	}
}

func TestStreamWithoutQuerierSendsError(t *testing.T) {
	s := NewAPIServer(models.CORSConfig{})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, resp, err := dialStream(t, srv, nil)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()
	defer func() { _ = resp.Body.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, StreamMessageError, msg.Type)
	assert.Nil(t, msg.Dashboard)
	assert.NotEmpty(t, msg.Error)
}

func TestShutdownClosesStreams(t *testing.T) {
	s, _ := newEngineServer(t, WithStreamInterval(time.Minute))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, resp, err := dialStream(t, srv, nil)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()
	defer func() { _ = resp.Body.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.NotNil(t, msg.Dashboard)
	assert.Equal(t, models.DashboardStatusNoData, msg.Dashboard.Status)

	require.NoError(t, s.Shutdown(context.Background()))

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	s := NewAPIServer(models.CORSConfig{AllowedOrigins: []string{"http://dash.example"}})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}

	conn, resp, err := dialStream(t, srv, header)
	if conn != nil {
		_ = conn.Close()
	}

	require.Error(t, err)
	require.NotNil(t, resp)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCheckWebSocketOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no origin", allowed: nil, origin: "", want: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://any.example", want: true},
		{name: "listed", allowed: []string{"http://dash.example"}, origin: "http://dash.example", want: true},
		{name: "unlisted", allowed: []string{"http://dash.example"}, origin: "http://other.example", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAPIServer(models.CORSConfig{AllowedOrigins: tt.allowed})

			req := httptest.NewRequest(http.MethodGet, "/api/metrics/stream", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			assert.Equal(t, tt.want, s.checkWebSocketOrigin(req))
		})
	}
}
