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

	"github.com/carverauto/fleetradar/pkg/core"
	"github.com/carverauto/fleetradar/pkg/lifecycle"
	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/version"
)

// Options contains runtime configuration derived from CLI flags.
type Options struct {
	ConfigPath string
}

// Run boots the core service using the provided options.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := core.LoadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	if err := lifecycle.InitializeLogger(cfg.Logging); err != nil {
		return err
	}

	mainLogger, err := lifecycle.CreateComponentLogger("core-main", cfg.Logging)
	if err != nil {
		return err
	}

	tracing := *cfg.Tracing
	tracing.ServiceName = "fleetradar-core"
	tracing.ServiceVersion = version.GetVersion()
	tracing.Logger = mainLogger

	tp, err := logger.InitializeTracing(ctx, tracing)
	if err != nil {
		return err
	}

	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			mainLogger.Error().Err(err).Msg("Error shutting down tracer provider")
		}
	}()

	server, err := core.NewServer(cfg, mainLogger)
	if err != nil {
		return err
	}

	mainLogger.Info().
		Str("version", version.GetFullVersion()).
		Str("listen_addr", cfg.Address()).
		Bool("nats", cfg.NATS != nil && cfg.NATS.Enabled).
		Msg("fleetradar core configured")

	return lifecycle.Run(ctx, &lifecycle.RunOptions{
		Service: server,
		Logger:  mainLogger,
	})
}
