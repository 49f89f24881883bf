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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetradar/pkg/models"
)

func TestParseFlags(t *testing.T) {
	t.Setenv(envBaseURL, "")
	t.Setenv(envAPIKey, "")

	tests := []struct {
		name    string
		args    []string
		wantErr error
		check   func(t *testing.T, cfg *CmdConfig)
	}{
		{
			name: "no args shows help",
			args: nil,
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.True(t, cfg.Help)
			},
		},
		{
			name: "devices defaults",
			args: []string{"devices"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, "devices", cfg.SubCmd)
				assert.Equal(t, defaultBaseURL, cfg.BaseURL)
				assert.Equal(t, outputTable, cfg.Output)
				assert.Equal(t, defaultClientTimeout, cfg.Timeout)
			},
		},
		{
			name: "device id before flags",
			args: []string{"device", "edge-1", "-o", "json", "-url", "http://core:5001"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, "edge-1", cfg.DeviceID)
				assert.Equal(t, outputJSON, cfg.Output)
				assert.Equal(t, "http://core:5001", cfg.BaseURL)
			},
		},
		{
			name: "device id after flags",
			args: []string{"device", "-copy", "edge-2"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, "edge-2", cfg.DeviceID)
				assert.True(t, cfg.Copy)
			},
		},
		{name: "device without id", args: []string{"device"}, wantErr: errDeviceIDRequired},
		{name: "bad output", args: []string{"devices", "-o", "yaml"}, wantErr: errInvalidOutput},
		{name: "bad interval", args: []string{"watch", "-interval", "0s"}, wantErr: errInvalidInterval},
		{name: "unknown command", args: []string{"reboot"}, wantErr: errUnknownCommand},
		{
			name: "watch interval",
			args: []string{"watch", "-interval", "2s"},
			check: func(t *testing.T, cfg *CmdConfig) {
				t.Helper()
				assert.Equal(t, 2*time.Second, cfg.Interval)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFlags(tt.args)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestParseFlagsEnvironmentDefaults(t *testing.T) {
	t.Setenv(envBaseURL, "http://fleet.internal:5001")
	t.Setenv(envAPIKey, "from-env")

	cfg, err := ParseFlags([]string{"dashboard"})
	require.NoError(t, err)

	assert.Equal(t, "http://fleet.internal:5001", cfg.BaseURL)
	assert.Equal(t, "from-env", cfg.APIKey)
}

func newFleetServer(t *testing.T) *httptest.Server {
	t.Helper()

	seen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	age := 4.0
	usage := 37.5

	mux := http.NewServeMux()
	mux.HandleFunc("/api/metrics/devices", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(models.DevicesResponse{Devices: []models.DeviceSummary{
			{DeviceID: "edge-1", Hostname: "edge", DeviceType: "local", OverallStatus: models.StatusHealthy, LastSeen: &seen},
			{DeviceID: "sw-1", Hostname: "switch", DeviceType: "snmp", OverallStatus: models.StatusOffline, LastSeen: &seen, IsStale: true},
		}})
	})
	mux.HandleFunc("/api/metrics/device/edge-1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(models.DeviceDetail{
			Report: &models.Report{
				DeviceID:      "edge-1",
				Hostname:      "edge",
				OverallStatus: models.StatusWarning,
				Metrics: map[models.Subsystem]models.Reading{
					models.SubsystemCPU: {Status: models.StatusWarning, UsagePercent: &usage, Fields: map[string]any{"cores": 4}},
				},
			},
			ReceivedAt: &seen,
			AgeSeconds: &age,
		})
	})
	mux.HandleFunc("/api/metrics/device/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Message: "Device not found", Status: http.StatusNotFound})
	})
	mux.HandleFunc("/api/metrics/latest", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(models.Dashboard{
			Status:    models.DashboardStatusOK,
			Timestamp: seen,
			Devices: []models.DashboardDevice{{
				DeviceID: "edge-1", Hostname: "edge", Platform: "Linux", IsOnline: true,
				OverallStatus: models.StatusHealthy, LastSeen: &seen, AgeSeconds: &age,
			}},
			Summary: models.FleetSummary{TotalDevices: 1, Online: 1, Healthy: 1},
			SystemStatus: models.SystemStatus{
				Compute: models.SubsystemStatus{Status: models.StatusHealthy, Detail: "37.5% CPU"},
				Power:   models.SubsystemStatus{Status: models.StatusHealthy, Detail: "1/1 online"},
			},
		})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(models.HealthResponse{Status: "ok", Version: "test", Devices: 1})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestRunCommands(t *testing.T) {
	t.Parallel()

	srv := newFleetServer(t)

	tests := []struct {
		name     string
		cfg      CmdConfig
		contains []string
	}{
		{"devices table", CmdConfig{SubCmd: "devices", Output: outputTable}, []string{"edge-1", "sw-1", "stale", "2025-03-01T12:00:00Z"}},
		{"devices json", CmdConfig{SubCmd: "devices", Output: outputJSON}, []string{`"device_id": "sw-1"`, `"is_stale": true`}},
		{"device table", CmdConfig{SubCmd: "device", DeviceID: "edge-1", Output: outputTable}, []string{"edge-1", "cpu", "37.5%", "cores=4", "4s"}},
		{"device json", CmdConfig{SubCmd: "device", DeviceID: "edge-1", Output: outputJSON}, []string{`"received_at"`, `"usage_percent": 37.5`}},
		{"dashboard", CmdConfig{SubCmd: "dashboard", Output: outputTable}, []string{"Fleet dashboard", "37.5% CPU", "1/1 online", "online"}},
		{"health", CmdConfig{SubCmd: "health", Output: outputTable}, []string{"ok (version test, 1 devices)"}},
		{"help", CmdConfig{Help: true}, []string{"fleetctl <command>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := tt.cfg
			cfg.BaseURL = srv.URL

			var out bytes.Buffer
			require.NoError(t, Run(context.Background(), &cfg, &out))

			for _, want := range tt.contains {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestRunDeviceNotFound(t *testing.T) {
	t.Parallel()

	srv := newFleetServer(t)

	var out bytes.Buffer
	err := Run(context.Background(), &CmdConfig{SubCmd: "device", DeviceID: "ghost", BaseURL: srv.URL, Output: outputTable}, &out)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Device not found")
	assert.Empty(t, out.String())
}
