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
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
)

const (
	oidSysDescr        = ".1.3.6.1.2.1.1.1.0"
	oidSysUptime       = ".1.3.6.1.2.1.1.3.0"
	oidSysName         = ".1.3.6.1.2.1.1.5.0"
	oidHrProcessorLoad = ".1.3.6.1.2.1.25.3.3.1.2"
	deviceTypeSNMP     = "snmp"
	maxPlatformLength  = 50
	timeTicksPerSecond = 100
)

// snmpClient is the subset of *gosnmp.GoSNMP the collector uses.
type snmpClient interface {
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	WalkAll(rootOid string) ([]gosnmp.SnmpPDU, error)
}

type snmpDialer func(ctx context.Context, target *SNMPTarget) (snmpClient, func() error, error)

// SNMPCollector reports a remote device over SNMP v2c using the system group
// and the host resources processor table.
type SNMPCollector struct {
	target *SNMPTarget
	dial   snmpDialer
	now    func() time.Time
	logger logger.Logger
}

// NewSNMPCollector returns a collector for target. Missing port, community,
// timeout and device id are defaulted.
func NewSNMPCollector(target SNMPTarget, log logger.Logger) *SNMPCollector {
	if log == nil {
		log = logger.NewTestLogger()
	}

	t := target
	t.applyDefaults()

	return &SNMPCollector{
		target: &t,
		dial:   dialSNMP,
		now:    time.Now,
		logger: log,
	}
}

// DeviceID implements Collector.
func (c *SNMPCollector) DeviceID() string {
	return c.target.DeviceID
}

// Collect implements Collector. Unreachable targets still produce a report
// so the core can tell the device is reporting nothing useful.
func (c *SNMPCollector) Collect(ctx context.Context) (*models.Report, error) {
	client, closeFn, err := c.dial(ctx, c.target)
	if err != nil {
		return nil, fmt.Errorf("snmp connect %s: %w", c.target.Host, err)
	}

	defer func() {
		if closeFn != nil {
			_ = closeFn()
		}
	}()

	sys := c.querySystem(client)
	avgCPU := c.processorLoad(client)

	platform := sys.descr
	if platform == "" {
		platform = "Unknown"
	}

	if len(platform) > maxPlatformLength {
		platform = platform[:maxPlatformLength]
	}

	hostname := sys.name
	if hostname == "" {
		hostname = c.target.Host
	}

	cpuStatus := models.StatusHealthy
	overall := models.StatusHealthy

	if avgCPU != nil {
		cpuStatus = UsageStatus(*avgCPU)

		if *avgCPU >= usageWarningPercent {
			overall = models.StatusWarning
		}
	}

	systemReading := models.Reading{
		Status: models.StatusUnknown,
		Fields: map[string]any{"uptime_hours": nil},
	}

	if sys.uptimeTicks != nil {
		systemReading.Status = models.StatusHealthy
		systemReading.Fields["uptime_hours"] = round(float64(*sys.uptimeTicks)/timeTicksPerSecond/3600, 2)
	}

	return &models.Report{
		DeviceID:   c.target.DeviceID,
		DeviceType: deviceTypeSNMP,
		Hostname:   hostname,
		Platform:   platform,
		Timestamp:  c.now().UTC().Format(time.RFC3339Nano),
		Metrics: map[models.Subsystem]models.Reading{
			models.SubsystemCPU:         {Status: cpuStatus, UsagePercent: avgCPU},
			models.SubsystemMemory:      {Status: models.StatusHealthy},
			models.SubsystemDisk:        {Status: models.StatusHealthy},
			models.SubsystemNetwork:     {Status: models.StatusHealthy},
			models.SubsystemTemperature: {Status: models.StatusUnknown},
			models.SubsystemSystem:      systemReading,
		},
		OverallStatus: overall,
		Extra:         map[string]any{"host_address": c.target.Host},
	}, nil
}

type systemInfo struct {
	descr       string
	name        string
	uptimeTicks *uint32
}

func (c *SNMPCollector) querySystem(client snmpClient) systemInfo {
	var info systemInfo

	result, err := client.Get([]string{oidSysDescr, oidSysName, oidSysUptime})
	if err != nil {
		c.logger.Debug().Err(err).Str("host", c.target.Host).Msg("SNMP system group query failed")
		return info
	}

	if result.Error != gosnmp.NoError {
		c.logger.Debug().Str("host", c.target.Host).Str("error", result.Error.String()).Msg("SNMP agent returned an error")
		return info
	}

	for _, v := range result.Variables {
		if v.Type == gosnmp.NoSuchObject || v.Type == gosnmp.NoSuchInstance {
			continue
		}

		switch v.Name {
		case oidSysDescr:
			if b, ok := v.Value.([]byte); ok {
				info.descr = string(b)
			}
		case oidSysName:
			if b, ok := v.Value.([]byte); ok {
				info.name = string(b)
			}
		case oidSysUptime:
			if ticks, ok := v.Value.(uint32); ok {
				info.uptimeTicks = &ticks
			}
		}
	}

	return info
}

// processorLoad averages hrProcessorLoad across processors, or nil when the
// table is empty or unreadable.
func (c *SNMPCollector) processorLoad(client snmpClient) *float64 {
	pdus, err := client.WalkAll(oidHrProcessorLoad)
	if err != nil {
		c.logger.Debug().Err(err).Str("host", c.target.Host).Msg("SNMP processor walk failed")
		return nil
	}

	var (
		sum   int64
		count int
	)

	for _, pdu := range pdus {
		if pdu.Type != gosnmp.Integer && pdu.Type != gosnmp.Gauge32 {
			continue
		}

		sum += gosnmp.ToBigInt(pdu.Value).Int64()
		count++
	}

	if count == 0 {
		return nil
	}

	return float64Ptr(float64(sum) / float64(count))
}

func dialSNMP(ctx context.Context, target *SNMPTarget) (snmpClient, func() error, error) {
	client := &gosnmp.GoSNMP{
		Context:            ctx,
		Target:             target.Host,
		Port:               target.Port,
		Community:          target.Community,
		Version:            gosnmp.Version2c,
		Timeout:            time.Duration(target.Timeout),
		Retries:            target.Retries,
		MaxOids:            gosnmp.MaxOids,
		MaxRepetitions:     10,
		ExponentialTimeout: true,
	}

	if err := client.Connect(); err != nil {
		return nil, nil, err
	}

	return client, func() error { return client.Conn.Close() }, nil
}
