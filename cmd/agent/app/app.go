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

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/carverauto/fleetradar/pkg/agent"
	"github.com/carverauto/fleetradar/pkg/lifecycle"
	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
	"github.com/carverauto/fleetradar/pkg/natsutil"
	"github.com/carverauto/fleetradar/pkg/version"
)

var errPartialDelivery = errors.New("some reports were not delivered")

// Options contains runtime configuration derived from CLI flags. Non-zero
// values override the config file.
type Options struct {
	ConfigPath   string
	BackendURL   string
	DeviceID     string
	APIKey       string
	Interval     time.Duration
	Transport    string
	NATSURL      string
	SNMPHosts    []string
	Community    string
	SNMPPort     uint
	DisableLocal bool
	Once         bool
}

// Run loads the configuration, builds the collectors and either pushes once
// or runs the push loop until interrupted.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := agent.LoadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	applyOverrides(cfg, &opts)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid agent configuration: %w", err)
	}

	if err := lifecycle.InitializeLogger(cfg.Logging); err != nil {
		return err
	}

	log, err := lifecycle.CreateComponentLogger("agent", cfg.Logging)
	if err != nil {
		return err
	}

	sender, closeSender, err := buildSender(cfg, log)
	if err != nil {
		return err
	}
	defer closeSender()

	a, err := agent.New(agent.BuildCollectors(cfg, log), sender, time.Duration(cfg.Interval), log)
	if err != nil {
		return err
	}

	log.Info().
		Str("version", version.GetFullVersion()).
		Str("transport", string(cfg.Transport)).
		Int("snmp_targets", len(cfg.SNMP)).
		Bool("local", !cfg.DisableLocal).
		Msg("fleetradar agent configured")

	if opts.Once {
		return runOnce(ctx, a)
	}

	return lifecycle.Run(ctx, &lifecycle.RunOptions{
		Service: a,
		Logger:  log,
	})
}

func runOnce(ctx context.Context, a *agent.Agent) error {
	reports, err := a.RunOnce(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, r := range reports {
		if encErr := enc.Encode(r); encErr != nil {
			return encErr
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %w", errPartialDelivery, err)
	}

	return nil
}

func buildSender(cfg *agent.Config, log logger.Logger) (agent.Sender, func(), error) {
	if cfg.Transport != agent.TransportNATS {
		return agent.NewHTTPSender(cfg.BackendURL, cfg.APIKey, nil), func() {}, nil
	}

	nc, err := natsutil.Connect(cfg.NATS.URL, "fleetradar-agent", cfg.NATS.TLS, log)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if err := nc.Drain(); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection")
		}
	}

	return agent.NewNATSSender(nc, cfg.NATS.Subject), closeFn, nil
}

func applyOverrides(cfg *agent.Config, opts *Options) {
	if opts.BackendURL != "" {
		cfg.BackendURL = opts.BackendURL
	}

	if opts.DeviceID != "" {
		cfg.DeviceID = opts.DeviceID
	}

	if opts.APIKey != "" {
		cfg.APIKey = opts.APIKey
	}

	if opts.Interval > 0 {
		cfg.Interval = models.Duration(opts.Interval)
	}

	if opts.Transport != "" {
		cfg.Transport = agent.Transport(strings.ToLower(opts.Transport))
	}

	if opts.NATSURL != "" {
		if cfg.NATS == nil {
			cfg.NATS = &models.NATSConfig{}
		}

		cfg.NATS.URL = opts.NATSURL
	}

	if opts.DisableLocal {
		cfg.DisableLocal = true
	}

	for _, host := range opts.SNMPHosts {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}

		cfg.SNMP = append(cfg.SNMP, agent.SNMPTarget{
			Host:      host,
			Community: opts.Community,
			Port:      uint16(opts.SNMPPort),
		})
	}

	cfg.Normalize()
}
