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
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
)

const (
	deviceTypeLocal   = "local"
	defaultDiskPath   = "/"
	cpuSampleInterval = time.Second
)

var errNoCPUSample = errors.New("no cpu usage sample")

// hostSource gathers raw host counters. Tests replace individual functions.
type hostSource struct {
	cpuPercent     func(ctx context.Context, interval time.Duration, perCPU bool) ([]float64, error)
	cpuCounts      func(ctx context.Context, logical bool) (int, error)
	cpuInfo        func(ctx context.Context) ([]cpu.InfoStat, error)
	virtualMemory  func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	diskUsage      func(ctx context.Context, path string) (*disk.UsageStat, error)
	netIO          func(ctx context.Context, perNIC bool) ([]net.IOCountersStat, error)
	netConnections func(ctx context.Context, kind string) ([]net.ConnectionStat, error)
	temperatures   func(ctx context.Context) ([]host.TemperatureStat, error)
	bootTime       func(ctx context.Context) (uint64, error)
	hostname       func() (string, error)
	now            func() time.Time
}

func defaultHostSource() hostSource {
	return hostSource{
		cpuPercent:     cpu.PercentWithContext,
		cpuCounts:      cpu.CountsWithContext,
		cpuInfo:        cpu.InfoWithContext,
		virtualMemory:  mem.VirtualMemoryWithContext,
		diskUsage:      disk.UsageWithContext,
		netIO:          net.IOCountersWithContext,
		netConnections: net.ConnectionsWithContext,
		temperatures:   host.SensorsTemperaturesWithContext,
		bootTime:       host.BootTimeWithContext,
		hostname:       os.Hostname,
		now:            time.Now,
	}
}

// HostCollector reports the machine the agent runs on.
type HostCollector struct {
	deviceID string
	diskPath string
	src      hostSource
	logger   logger.Logger
}

// NewHostCollector returns a collector for the local host. An empty
// deviceID falls back to the hostname.
func NewHostCollector(deviceID string, log logger.Logger) *HostCollector {
	if log == nil {
		log = logger.NewTestLogger()
	}

	c := &HostCollector{
		deviceID: deviceID,
		diskPath: defaultDiskPath,
		src:      defaultHostSource(),
		logger:   log,
	}

	if c.deviceID == "" {
		c.deviceID = c.hostname()
	}

	return c
}

// DeviceID implements Collector.
func (c *HostCollector) DeviceID() string {
	return c.deviceID
}

// Collect implements Collector. Failing to read cpu, memory, disk or network
// counters yields a fallback report with every subsystem unknown rather than
// an error, so the core still sees the device.
func (c *HostCollector) Collect(ctx context.Context) (*models.Report, error) {
	report, err := c.collect(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("device_id", c.deviceID).Msg("Host collection failed, sending fallback report")

		return c.fallback(err), nil
	}

	return report, nil
}

func (c *HostCollector) collect(ctx context.Context) (*models.Report, error) {
	percents, err := c.src.cpuPercent(ctx, cpuSampleInterval, false)
	if err != nil {
		return nil, fmt.Errorf("cpu usage: %w", err)
	}

	if len(percents) == 0 {
		return nil, errNoCPUSample
	}

	vm, err := c.src.virtualMemory(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}

	du, err := c.src.diskUsage(ctx, c.diskPath)
	if err != nil {
		return nil, fmt.Errorf("disk %s: %w", c.diskPath, err)
	}

	io, err := c.src.netIO(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("network counters: %w", err)
	}

	cpuPercent := percents[0]

	report := c.baseReport()
	report.Metrics = map[models.Subsystem]models.Reading{
		models.SubsystemCPU:         c.cpuReading(ctx, cpuPercent),
		models.SubsystemMemory:      memoryReading(vm),
		models.SubsystemDisk:        diskReading(du),
		models.SubsystemNetwork:     c.networkReading(ctx, io),
		models.SubsystemTemperature: c.temperatureReading(ctx),
		models.SubsystemSystem:      c.systemReading(ctx),
	}
	report.OverallStatus = OverallStatus(cpuPercent, vm.UsedPercent, du.UsedPercent)

	return report, nil
}

func (c *HostCollector) baseReport() *models.Report {
	return &models.Report{
		DeviceID:   c.deviceID,
		DeviceType: deviceTypeLocal,
		Hostname:   c.hostname(),
		Platform:   platformName(),
		Timestamp:  c.src.now().UTC().Format(time.RFC3339Nano),
	}
}

func (c *HostCollector) cpuReading(ctx context.Context, percent float64) models.Reading {
	fields := map[string]any{"frequency_mhz": nil}

	if cores, err := c.src.cpuCounts(ctx, true); err == nil {
		fields["cores"] = cores
	} else {
		c.logger.Debug().Err(err).Msg("cpu count unavailable")
	}

	if info, err := c.src.cpuInfo(ctx); err == nil && len(info) > 0 && info[0].Mhz > 0 {
		fields["frequency_mhz"] = info[0].Mhz
	}

	return models.Reading{
		Status:       UsageStatus(percent),
		UsagePercent: float64Ptr(percent),
		Fields:       fields,
	}
}

func memoryReading(vm *mem.VirtualMemoryStat) models.Reading {
	return models.Reading{
		Status:       UsageStatus(vm.UsedPercent),
		UsagePercent: float64Ptr(vm.UsedPercent),
		Fields: map[string]any{
			"total_gb":     gigabytes(vm.Total),
			"used_gb":      gigabytes(vm.Used),
			"available_gb": gigabytes(vm.Available),
		},
	}
}

func diskReading(du *disk.UsageStat) models.Reading {
	return models.Reading{
		Status:       UsageStatus(du.UsedPercent),
		UsagePercent: float64Ptr(du.UsedPercent),
		Fields: map[string]any{
			"total_gb": gigabytes(du.Total),
			"used_gb":  gigabytes(du.Used),
			"free_gb":  gigabytes(du.Free),
		},
	}
}

func (c *HostCollector) networkReading(ctx context.Context, io []net.IOCountersStat) models.Reading {
	var totals net.IOCountersStat
	for i := range io {
		totals.BytesSent += io[i].BytesSent
		totals.BytesRecv += io[i].BytesRecv
		totals.PacketsSent += io[i].PacketsSent
		totals.PacketsRecv += io[i].PacketsRecv
	}

	var connections int64

	if conns, err := c.src.netConnections(ctx, "all"); err == nil {
		connections = int64(len(conns))
	} else {
		c.logger.Debug().Err(err).Msg("connection table unavailable")
	}

	return models.Reading{
		Status:      models.StatusHealthy,
		Connections: &connections,
		Fields: map[string]any{
			"bytes_sent":   totals.BytesSent,
			"bytes_recv":   totals.BytesRecv,
			"packets_sent": totals.PacketsSent,
			"packets_recv": totals.PacketsRecv,
		},
	}
}

func (c *HostCollector) temperatureReading(ctx context.Context) models.Reading {
	var celsius *float64

	if temps, err := c.src.temperatures(ctx); err == nil && len(temps) > 0 {
		celsius = float64Ptr(temps[0].Temperature)
	}

	fields := map[string]any{"cpu_celsius": nil}
	if celsius != nil {
		fields["cpu_celsius"] = *celsius
	}

	return models.Reading{
		Status: TemperatureStatus(celsius),
		Fields: fields,
	}
}

func (c *HostCollector) systemReading(ctx context.Context) models.Reading {
	reading := models.Reading{Status: models.StatusHealthy, Fields: map[string]any{}}

	boot, err := c.src.bootTime(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("boot time unavailable")
		return reading
	}

	bootAt := time.Unix(int64(boot), 0).UTC()

	reading.Fields["boot_time"] = bootAt.Format(time.RFC3339)
	reading.Fields["uptime_hours"] = round(c.src.now().Sub(bootAt).Hours(), 2)

	return reading
}

func (c *HostCollector) fallback(cause error) *models.Report {
	report := c.baseReport()
	report.OverallStatus = models.StatusUnknown
	report.Metrics = make(map[models.Subsystem]models.Reading, len(models.KnownSubsystems))

	for _, sub := range models.KnownSubsystems {
		report.Metrics[sub] = models.Reading{Status: models.StatusUnknown}
	}

	report.Extra = map[string]any{"error": cause.Error()}

	return report
}

func (c *HostCollector) hostname() string {
	if name, err := c.src.hostname(); err == nil && name != "" {
		return name
	}

	return "unknown-host"
}

func platformName() string {
	goos := runtime.GOOS
	if goos == "" {
		return "Unknown"
	}

	return strings.ToUpper(goos[:1]) + goos[1:]
}
