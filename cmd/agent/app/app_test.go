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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetradar/pkg/agent"
	"github.com/carverauto/fleetradar/pkg/models"
)

func TestApplyOverrides(t *testing.T) {
	t.Parallel()

	cfg := &agent.Config{
		BackendURL: "http://from-file:5001",
		SNMP:       []agent.SNMPTarget{{Host: "10.0.0.1"}},
	}

	applyOverrides(cfg, &Options{
		BackendURL: "http://core:5001",
		DeviceID:   "edge-7",
		Interval:   10 * time.Second,
		Transport:  "NATS",
		NATSURL:    "nats://bus:4222",
		SNMPHosts:  []string{"10.0.0.2", " ", "10.0.0.3"},
		Community:  "ops",
		SNMPPort:   1161,
	})

	assert.Equal(t, "http://core:5001", cfg.BackendURL)
	assert.Equal(t, "edge-7", cfg.DeviceID)
	assert.Equal(t, models.Duration(10*time.Second), cfg.Interval)
	assert.Equal(t, agent.TransportNATS, cfg.Transport)
	require.NotNil(t, cfg.NATS)
	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)

	require.Len(t, cfg.SNMP, 3)
	assert.Equal(t, "public", cfg.SNMP[0].Community)
	assert.Equal(t, "ops", cfg.SNMP[1].Community)
	assert.Equal(t, uint16(1161), cfg.SNMP[2].Port)
	assert.Equal(t, "snmp-10.0.0.3", cfg.SNMP[2].DeviceID)
	require.NoError(t, cfg.Validate())
}

func TestApplyOverridesKeepsConfigValues(t *testing.T) {
	t.Parallel()

	cfg := &agent.Config{BackendURL: "http://from-file:5001", Interval: models.Duration(time.Minute)}
	applyOverrides(cfg, &Options{})

	assert.Equal(t, "http://from-file:5001", cfg.BackendURL)
	assert.Equal(t, models.Duration(time.Minute), cfg.Interval)
	assert.Equal(t, agent.TransportHTTP, cfg.Transport)
	assert.Empty(t, cfg.SNMP)
}
