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
	"time"

	"github.com/charmbracelet/lipgloss"
)

// CmdConfig holds parsed command-line configuration.
type CmdConfig struct {
	Help     bool
	SubCmd   string
	BaseURL  string
	APIKey   string
	Output   string
	Timeout  time.Duration
	Interval time.Duration
	DeviceID string
	Copy     bool
	Args     []string
}

// SubcommandHandler parses the flags of one subcommand into cfg.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

// styles are the lipgloss styles shared by tables and the watch view.
type styles struct {
	title, header, muted, label, healthy, warning, critical, unknown, offline, error, app lipgloss.Style
}
