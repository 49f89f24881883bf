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

package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/carverauto/fleetradar/cmd/agent/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	var (
		opts      app.Options
		snmpHosts string
	)

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to agent config file (defaults apply when empty)")
	flag.StringVar(&opts.BackendURL, "backend", "", "Core base URL, e.g. http://localhost:5001")
	flag.StringVar(&opts.DeviceID, "device-id", "", "Device id for the local host (defaults to the hostname)")
	flag.StringVar(&opts.APIKey, "api-key", "", "API key sent as X-API-Key")
	flag.DurationVar(&opts.Interval, "interval", 0, "Push interval (default 30s)")
	flag.StringVar(&opts.Transport, "transport", "", "Delivery transport: http or nats")
	flag.StringVar(&opts.NATSURL, "nats-url", "", "NATS server URL for the nats transport")
	flag.StringVar(&snmpHosts, "snmp", "", "Comma separated SNMP hosts to poll")
	flag.StringVar(&opts.Community, "community", "", "SNMP community for -snmp hosts (default public)")
	flag.UintVar(&opts.SNMPPort, "port", 0, "SNMP port for -snmp hosts (default 161)")
	flag.BoolVar(&opts.DisableLocal, "no-local", false, "Do not report the local host")
	flag.BoolVar(&opts.Once, "once", false, "Collect and push once, print the reports and exit")
	flag.Parse()

	if snmpHosts != "" {
		opts.SNMPHosts = strings.Split(snmpHosts, ",")
	}

	return app.Run(context.Background(), opts)
}
