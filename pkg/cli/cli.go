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

// Package cli implements fleetctl, a read-only client for the fleetradar core.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
)

const (
	defaultBaseURL = "http://localhost:5001"
	outputTable    = "table"
	outputJSON     = "json"

	envBaseURL = "FLEETRADAR_URL"
	envAPIKey  = "FLEETRADAR_API_KEY"
)

// DevicesHandler handles flags for the devices subcommand.
type DevicesHandler struct{}

// Parse processes arguments for devices.
func (DevicesHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("devices", cfg)

	return parseCommon(fs, args, cfg)
}

// DeviceHandler handles flags for the device subcommand.
type DeviceHandler struct{}

// Parse processes arguments for device. The device id is the first
// positional argument and may come before or after the flags.
func (DeviceHandler) Parse(args []string, cfg *CmdConfig) error {
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cfg.DeviceID = args[0]
		args = args[1:]
	}

	fs := newFlagSet("device", cfg)
	fs.BoolVar(&cfg.Copy, "copy", false, "copy the device JSON to the clipboard")

	if err := parseCommon(fs, args, cfg); err != nil {
		return err
	}

	if cfg.DeviceID == "" && len(cfg.Args) > 0 {
		cfg.DeviceID = cfg.Args[0]
	}

	if cfg.DeviceID == "" {
		return errDeviceIDRequired
	}

	return nil
}

// DashboardHandler handles flags for the dashboard subcommand.
type DashboardHandler struct{}

// Parse processes arguments for dashboard.
func (DashboardHandler) Parse(args []string, cfg *CmdConfig) error {
	return parseCommon(newFlagSet("dashboard", cfg), args, cfg)
}

// WatchHandler handles flags for the watch subcommand.
type WatchHandler struct{}

// Parse processes arguments for watch.
func (WatchHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet("watch", cfg)
	fs.DurationVar(&cfg.Interval, "interval", defaultWatchInterval, "refresh interval")

	if err := parseCommon(fs, args, cfg); err != nil {
		return err
	}

	if cfg.Interval <= 0 {
		return errInvalidInterval
	}

	return nil
}

// HealthHandler handles flags for the health subcommand.
type HealthHandler struct{}

// Parse processes arguments for health.
func (HealthHandler) Parse(args []string, cfg *CmdConfig) error {
	return parseCommon(newFlagSet("health", cfg), args, cfg)
}

func subcommands() map[string]SubcommandHandler {
	return map[string]SubcommandHandler{
		"devices":   DevicesHandler{},
		"device":    DeviceHandler{},
		"dashboard": DashboardHandler{},
		"watch":     WatchHandler{},
		"health":    HealthHandler{},
	}
}

func newFlagSet(name string, cfg *CmdConfig) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BaseURL, "url", envOrDefault(envBaseURL, defaultBaseURL), "core base URL")
	fs.StringVar(&cfg.APIKey, "api-key", os.Getenv(envAPIKey), "API key sent as X-API-Key")
	fs.StringVar(&cfg.Output, "o", outputTable, "output format: table or json")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultClientTimeout, "request timeout")

	return fs
}

func parseCommon(fs *flag.FlagSet, args []string, cfg *CmdConfig) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing %s flags: %w", fs.Name(), err)
	}

	cfg.Args = fs.Args()

	if cfg.Output != outputTable && cfg.Output != outputJSON {
		return fmt.Errorf("%w: %q", errInvalidOutput, cfg.Output)
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

// ParseFlags parses os.Args style arguments (without the program name).
func ParseFlags(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{}

	if len(args) == 0 {
		cfg.Help = true
		return cfg, nil
	}

	switch args[0] {
	case "-h", "-help", "--help", "help":
		cfg.Help = true
		return cfg, nil
	}

	cfg.SubCmd = args[0]

	handler, ok := subcommands()[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cfg.Help = true
			return cfg, nil
		}

		return cfg, err
	}

	return cfg, nil
}

// Run executes the parsed subcommand and writes its output to out.
func Run(ctx context.Context, cfg *CmdConfig, out io.Writer) error {
	if cfg.Help {
		ShowHelp(out)
		return nil
	}

	client := NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout)

	switch cfg.SubCmd {
	case "devices":
		devices, err := client.Devices(ctx)
		if err != nil {
			return err
		}

		return emit(out, cfg, devices, func() string { return RenderDevices(devices) })
	case "device":
		return runDevice(ctx, client, cfg, out)
	case "dashboard":
		dash, err := client.Dashboard(ctx)
		if err != nil {
			return err
		}

		return emit(out, cfg, dash, func() string { return RenderDashboard(dash) })
	case "watch":
		return RunWatch(ctx, client, cfg.Interval)
	case "health":
		health, err := client.Health(ctx)
		if err != nil {
			return err
		}

		return emit(out, cfg, health, func() string {
			return fmt.Sprintf("%s (version %s, %d devices)", health.Status, health.Version, health.Devices)
		})
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}
}

func runDevice(ctx context.Context, client *Client, cfg *CmdConfig, out io.Writer) error {
	detail, err := client.Device(ctx, cfg.DeviceID)
	if err != nil {
		return err
	}

	if cfg.Copy {
		doc, err := json.MarshalIndent(detail, "", "  ")
		if err != nil {
			return err
		}

		if err := clipboard.WriteAll(string(doc)); err != nil {
			return fmt.Errorf("%w: %w", errClipboardFailed, err)
		}
	}

	return emit(out, cfg, detail, func() string { return RenderDevice(detail) })
}

func emit(out io.Writer, cfg *CmdConfig, v any, table func() string) error {
	if cfg.Output == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	}

	_, err := fmt.Fprintln(out, table())

	return err
}
