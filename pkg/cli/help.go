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
	"fmt"
	"io"
)

// ShowHelp writes the usage text to w.
func ShowHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `fleetctl: fleetradar command-line tool
Usage:
  fleetctl <command> [options] [args]

Commands:
  devices          List known devices with freshness and status
  device <id>      Show the latest report for one device
  dashboard        Show the consolidated fleet dashboard
  watch            Live dashboard that refreshes on an interval
  health           Check that the core is up

Common options:
  -url string       core base URL (env FLEETRADAR_URL, default "http://localhost:5001")
  -api-key string   API key sent as X-API-Key (env FLEETRADAR_API_KEY)
  -o string         output format: table or json (default "table")
  -timeout duration request timeout (default 10s)

Options for device:
  -copy             copy the device JSON to the clipboard

Options for watch:
  -interval duration refresh interval (default 5s)

Examples:
  fleetctl devices
  fleetctl device edge-router-1 -o json
  fleetctl watch -url http://core:5001 -interval 2s
`)
}
