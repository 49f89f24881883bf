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

package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/fleetradar/pkg/config"
	"github.com/carverauto/fleetradar/pkg/health"
	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
	"github.com/carverauto/fleetradar/pkg/natsutil"
)

const (
	defaultListenPort             = 5001
	defaultFreshnessWindowSeconds = 60
	defaultMaxReportBytes         = 1 << 20
	defaultMetricsPath            = "/metrics"
	maxPort                       = 65535
)

var (
	errInvalidListenPort      = errors.New("listen_port must be between 1 and 65535")
	errInvalidFreshnessWindow = errors.New("freshness_window_seconds must not be negative")
	errInvalidMaxReportBytes  = errors.New("max_report_bytes must not be negative")
	errInvalidMetricsPath     = errors.New("metrics_path must start with '/'")
	errInvalidStreamInterval  = errors.New("stream_interval_seconds must not be negative")
	errNATSURLRequired        = errors.New("nats.url is required when nats is enabled")
)

// Config is the core service configuration.
type Config struct {
	ListenAddr             string                `json:"listen_addr"`
	ListenPort             int                   `json:"listen_port"`
	FreshnessWindowSeconds int                   `json:"freshness_window_seconds"`
	MaxReportBytes         int64                 `json:"max_report_bytes"`
	APIKey                 string                `json:"api_key"`
	CORS                   models.CORSConfig     `json:"cors"`
	MetricsPath            string                `json:"metrics_path"`
	StreamIntervalSeconds  int                   `json:"stream_interval_seconds"`
	NATS                   *models.NATSConfig    `json:"nats,omitempty"`
	Logging                *logger.Config        `json:"logging,omitempty"`
	Tracing                *logger.TracingConfig `json:"tracing,omitempty"`
}

// Validate rejects values that normalizeConfig cannot repair.
func (c *Config) Validate() error {
	if c.ListenPort < 0 || c.ListenPort > maxPort {
		return fmt.Errorf("%w: %d", errInvalidListenPort, c.ListenPort)
	}

	if c.FreshnessWindowSeconds < 0 {
		return errInvalidFreshnessWindow
	}

	if c.MaxReportBytes < 0 {
		return errInvalidMaxReportBytes
	}

	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		return errInvalidMetricsPath
	}

	if c.StreamIntervalSeconds < 0 {
		return errInvalidStreamInterval
	}

	if c.NATS != nil && c.NATS.Enabled && c.NATS.URL == "" {
		return errNATSURLRequired
	}

	return nil
}

// FreshnessWindow returns the configured window as a duration.
func (c *Config) FreshnessWindow() time.Duration {
	if c.FreshnessWindowSeconds <= 0 {
		return health.DefaultWindow
	}

	return time.Duration(c.FreshnessWindowSeconds) * time.Second
}

// StreamInterval is the dashboard websocket push interval. Zero leaves the
// API default in place.
func (c *Config) StreamInterval() time.Duration {
	return time.Duration(c.StreamIntervalSeconds) * time.Second
}

// Address is the host:port the HTTP API binds to.
func (c *Config) Address() string {
	return net.JoinHostPort(c.ListenAddr, strconv.Itoa(c.ListenPort))
}

func normalizeConfig(cfg *Config) *Config {
	normalized := *cfg

	if normalized.ListenPort == 0 {
		normalized.ListenPort = defaultListenPort

		if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port > 0 && port <= maxPort {
			normalized.ListenPort = port
		}
	}

	if normalized.FreshnessWindowSeconds == 0 {
		normalized.FreshnessWindowSeconds = defaultFreshnessWindowSeconds
	}

	if normalized.MaxReportBytes == 0 {
		normalized.MaxReportBytes = defaultMaxReportBytes
	}

	if normalized.MetricsPath == "" {
		normalized.MetricsPath = defaultMetricsPath
	}

	if normalized.NATS != nil {
		nats := *normalized.NATS

		if nats.Subject == "" {
			nats.Subject = natsutil.DefaultReportSubject
		}

		if nats.Queue == "" {
			nats.Queue = natsutil.DefaultQueue
		}

		normalized.NATS = &nats
	}

	if normalized.Logging == nil {
		normalized.Logging = logger.DefaultConfig()
	}

	if normalized.Tracing == nil {
		tracing := logger.DefaultTracingConfig()
		normalized.Tracing = &tracing
	}

	return &normalized
}

// LoadConfig reads the core configuration from path, or from the
// environment when CONFIG_SOURCE=env, and fills in defaults.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	var cfg Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load core config: %w", err)
	}

	return normalizeConfig(&cfg), nil
}
