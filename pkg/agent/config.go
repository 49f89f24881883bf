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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/fleetradar/pkg/config"
	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
)

// Transport selects how reports leave the agent.
type Transport string

const (
	TransportHTTP Transport = "http"
	TransportNATS Transport = "nats"

	// EnvPrefix is the variable prefix used with CONFIG_SOURCE=env.
	EnvPrefix = "FLEETRADAR_AGENT_"

	defaultBackendURL    = "http://localhost:5001"
	defaultInterval      = 30 * time.Second
	defaultSNMPPort      = 161
	defaultSNMPCommunity = "public"
	defaultSNMPTimeout   = 2 * time.Second
	defaultSNMPRetries   = 1
)

var (
	errUnknownTransport    = errors.New("unknown transport")
	errNATSURLRequired     = errors.New("nats.url is required for the nats transport")
	errNoCollectors        = errors.New("no collectors configured: local collection is disabled and no snmp targets are set")
	errSNMPHostRequired    = errors.New("snmp target host is required")
	errNegativeInterval    = errors.New("interval must not be negative")
	errDuplicateCollectors = errors.New("duplicate device_id across collectors")
)

// SNMPTarget is a remote device polled over SNMP v2c.
type SNMPTarget struct {
	Host      string          `json:"host"`
	Port      uint16          `json:"port,omitempty"`
	Community string          `json:"community,omitempty"`
	DeviceID  string          `json:"device_id,omitempty"`
	Timeout   models.Duration `json:"timeout,omitempty"`
	Retries   int             `json:"retries,omitempty"`
}

func (t *SNMPTarget) applyDefaults() {
	if t.Port == 0 {
		t.Port = defaultSNMPPort
	}

	if t.Community == "" {
		t.Community = defaultSNMPCommunity
	}

	if t.Timeout <= 0 {
		t.Timeout = models.Duration(defaultSNMPTimeout)
	}

	if t.Retries <= 0 {
		t.Retries = defaultSNMPRetries
	}

	if t.DeviceID == "" {
		t.DeviceID = "snmp-" + t.Host
	}
}

// Config is the agent configuration.
type Config struct {
	DeviceID     string             `json:"device_id"`
	BackendURL   string             `json:"backend_url"`
	APIKey       string             `json:"api_key"`
	Interval     models.Duration    `json:"interval"`
	Transport    Transport          `json:"transport"`
	NATS         *models.NATSConfig `json:"nats,omitempty"`
	SNMP         []SNMPTarget       `json:"snmp,omitempty"`
	DisableLocal bool               `json:"disable_local"`
	Logging      *logger.Config     `json:"logging,omitempty"`
}

// Validate checks the configuration. It runs before Normalize, so unset
// fields are valid.
func (c *Config) Validate() error {
	if c.Interval < 0 {
		return errNegativeInterval
	}

	switch c.Transport {
	case "", TransportHTTP:
	case TransportNATS:
		if c.NATS == nil || c.NATS.URL == "" {
			return errNATSURLRequired
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownTransport, c.Transport)
	}

	if c.DisableLocal && len(c.SNMP) == 0 {
		return errNoCollectors
	}

	seen := make(map[string]struct{}, len(c.SNMP))

	for i := range c.SNMP {
		if strings.TrimSpace(c.SNMP[i].Host) == "" {
			return fmt.Errorf("%w: snmp[%d]", errSNMPHostRequired, i)
		}

		t := c.SNMP[i]
		t.applyDefaults()

		if _, dup := seen[t.DeviceID]; dup {
			return fmt.Errorf("%w: %s", errDuplicateCollectors, t.DeviceID)
		}

		seen[t.DeviceID] = struct{}{}
	}

	return nil
}

// Normalize fills in defaults in place.
func (c *Config) Normalize() {
	if c.Transport == "" {
		c.Transport = TransportHTTP
	}

	if c.BackendURL == "" {
		c.BackendURL = defaultBackendURL
	}

	if c.Interval == 0 {
		c.Interval = models.Duration(defaultInterval)
	}

	for i := range c.SNMP {
		c.SNMP[i].applyDefaults()
	}

	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}
}

// LoadConfig reads the agent configuration. An empty path with the file
// source yields the defaults.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	var cfg Config

	loader := config.NewConfig(nil)
	loader.SetEnvPrefix(EnvPrefix)

	if err := loader.LoadAndValidate(ctx, path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load agent config: %w", err)
	}

	cfg.Normalize()

	return &cfg, nil
}
