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

// Package agent collects device reports on the local host and from SNMP
// targets and pushes them to the core on a fixed interval.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
)

var (
	errNoSender       = errors.New("agent requires a sender")
	errNoAgentSources = errors.New("agent requires at least one collector")
)

// Agent pushes reports from each collector on its own ticker.
type Agent struct {
	collectors []Collector
	sender     Sender
	interval   time.Duration
	logger     logger.Logger
}

// New builds an agent. A non-positive interval uses the 30s default.
func New(collectors []Collector, sender Sender, interval time.Duration, log logger.Logger) (*Agent, error) {
	if sender == nil {
		return nil, errNoSender
	}

	if len(collectors) == 0 {
		return nil, errNoAgentSources
	}

	if interval <= 0 {
		interval = defaultInterval
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Agent{
		collectors: collectors,
		sender:     sender,
		interval:   interval,
		logger:     log,
	}, nil
}

// Run pushes immediately and then on every tick until ctx is cancelled.
// Collection and delivery failures are logged and retried on the next tick.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info().
		Dur("interval", a.interval).
		Int("collectors", len(a.collectors)).
		Msg("Starting push loop")

	g, gctx := errgroup.WithContext(ctx)

	for _, c := range a.collectors {
		g.Go(func() error {
			return a.loop(gctx, c)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		a.logger.Info().Msg("Push loop stopped")
		return nil
	}

	return err
}

// Start implements lifecycle.Service.
func (a *Agent) Start(ctx context.Context) error {
	return a.Run(ctx)
}

// Stop implements lifecycle.Service. Run returns on its own once the context
// passed to Start is cancelled.
func (*Agent) Stop(context.Context) error {
	return nil
}

func (a *Agent) loop(ctx context.Context, c Collector) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.push(ctx, c)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.push(ctx, c)
		}
	}
}

func (a *Agent) push(ctx context.Context, c Collector) {
	report, err := c.Collect(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Str("device_id", c.DeviceID()).Msg("Collection failed")
		return
	}

	if err := a.sender.Send(ctx, report); err != nil {
		a.logger.Error().Err(err).Str("device_id", report.DeviceID).Msg("Failed to push report")
		return
	}

	a.logger.Debug().
		Str("device_id", report.DeviceID).
		Str("overall_status", report.OverallStatus.String()).
		Msg("Report pushed")
}

// RunOnce collects and sends from every collector concurrently and returns
// the reports that were delivered. The error joins every failure.
func (a *Agent) RunOnce(ctx context.Context) ([]*models.Report, error) {
	var (
		mu      sync.Mutex
		errs    []error
		results = make([]*models.Report, len(a.collectors))
	)

	var g errgroup.Group

	for i, c := range a.collectors {
		g.Go(func() error {
			report, err := c.Collect(ctx)
			if err == nil {
				err = a.sender.Send(ctx, report)
			}

			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", c.DeviceID(), err))
				mu.Unlock()

				return nil
			}

			results[i] = report

			return nil
		})
	}

	_ = g.Wait()

	delivered := make([]*models.Report, 0, len(results))

	for _, r := range results {
		if r != nil {
			delivered = append(delivered, r)
		}
	}

	return delivered, errors.Join(errs...)
}

// BuildCollectors creates the host collector (unless disabled) and one SNMP
// collector per target.
func BuildCollectors(cfg *Config, log logger.Logger) []Collector {
	collectors := make([]Collector, 0, len(cfg.SNMP)+1)

	if !cfg.DisableLocal {
		collectors = append(collectors, NewHostCollector(cfg.DeviceID, log))
	}

	for _, target := range cfg.SNMP {
		collectors = append(collectors, NewSNMPCollector(target, log))
	}

	return collectors
}
