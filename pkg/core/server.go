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

// Package core wires the device ledger, the fleet views and the transports
// into the fleetradar core service.
package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/fleetradar/pkg/core/api"
	"github.com/carverauto/fleetradar/pkg/fleet"
	"github.com/carverauto/fleetradar/pkg/health"
	"github.com/carverauto/fleetradar/pkg/ledger"
	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/natsutil"
)

const natsClientName = "fleetradar-core"

var errServerStarted = errors.New("core server already started")

// Server is the core service: an in-memory ledger fed over HTTP and,
// optionally, NATS, with read views served over HTTP.
type Server struct {
	config  *Config
	logger  logger.Logger
	clock   func() time.Time
	ledger  *ledger.Ledger
	fleet   *fleet.Service
	metrics *Metrics
	api     *api.APIServer

	mu         sync.Mutex
	listener   net.Listener
	natsConn   *nats.Conn
	subscriber *natsutil.ReportSubscriber
	started    bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithClock replaces the clock shared by the ledger and the fleet views.
func WithClock(clock func() time.Time) ServerOption {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithListener serves the API on lis instead of binding Config.Address.
func WithListener(lis net.Listener) ServerOption {
	return func(s *Server) {
		s.listener = lis
	}
}

// NewServer builds the core service from a loaded configuration.
func NewServer(cfg *Config, log logger.Logger, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	s := &Server{
		config: normalizeConfig(cfg),
		logger: log,
		clock:  time.Now,
	}

	for _, o := range opts {
		o(s)
	}

	s.ledger = ledger.New(ledger.WithClock(s.clock), ledger.WithLogger(log))
	s.fleet = fleet.NewService(s.ledger, health.NewClassifier(s.config.FreshnessWindow()),
		fleet.WithClock(s.clock),
		fleet.WithLogger(log),
	)
	s.metrics = NewMetrics(s.fleet)

	tracing := s.config.Tracing != nil && s.config.Tracing.Enabled

	s.api = api.NewAPIServer(s.config.CORS,
		api.WithLogger(log),
		api.WithRecorder(s.ledger),
		api.WithQuerier(s.fleet),
		api.WithIngestObserver(s.metrics),
		api.WithAPIKey(s.config.APIKey),
		api.WithMaxReportBytes(s.config.MaxReportBytes),
		api.WithMetricsHandler(s.config.MetricsPath, s.metrics.Handler()),
		api.WithTracing(tracing),
		api.WithStreamInterval(s.config.StreamInterval()),
	)

	return s, nil
}

// Config returns the normalized configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Fleet returns the read views.
func (s *Server) Fleet() *fleet.Service {
	return s.fleet
}

// Start binds the API, attaches the NATS subscriber when enabled and blocks
// until ctx is cancelled or the HTTP server fails.
func (s *Server) Start(ctx context.Context) error {
	lis, err := s.prepare(ctx)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("addr", lis.Addr().String()).
		Dur("freshness_window", s.config.FreshnessWindow()).
		Msg("Starting fleetradar core")

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.api.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http api: %w", err)
		}

		return nil
	}
}

func (s *Server) prepare(ctx context.Context) (net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil, errServerStarted
	}

	if s.listener == nil {
		lis, err := net.Listen("tcp", s.config.Address())
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
		}

		s.listener = lis
	}

	if err := s.startNATS(ctx); err != nil {
		_ = s.listener.Close()

		return nil, err
	}

	s.started = true

	return s.listener, nil
}

func (s *Server) startNATS(ctx context.Context) error {
	cfg := s.config.NATS
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	nc, err := natsutil.Connect(cfg.URL, natsClientName, cfg.TLS, s.logger)
	if err != nil {
		return err
	}

	sub := natsutil.NewReportSubscriber(nc, natsutil.SubscriberConfig{
		Subject: cfg.Subject,
		Queue:   cfg.Queue,
		Stream:  cfg.Stream,
	}, s.ledger, s.metrics, s.logger)

	if err := sub.Start(ctx); err != nil {
		nc.Close()

		return err
	}

	s.natsConn = nc
	s.subscriber = sub

	return nil
}

// Stop shuts the API down and drains the NATS subscription.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	if err := s.api.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http api: %w", err))
	}

	if s.subscriber != nil {
		if err := s.subscriber.Stop(); err != nil {
			errs = append(errs, err)
		}

		s.subscriber = nil
	}

	if s.natsConn != nil {
		s.natsConn.Close()
		s.natsConn = nil
	}

	s.logger.Info().Int("devices", s.ledger.Len()).Msg("Stopped fleetradar core")

	return errors.Join(errs...)
}
