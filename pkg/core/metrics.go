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

package core

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carverauto/fleetradar/pkg/models"
)

const metricsNamespace = "fleetradar"

// DashboardSource supplies the fleet view the collector reports at scrape time.
type DashboardSource interface {
	Dashboard() *models.Dashboard
}

// Metrics holds the ingest counters and the fleet collector on a private
// registry. It satisfies api.IngestObserver and natsutil.Observer.
type Metrics struct {
	registry *prometheus.Registry
	ingested *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewMetrics registers the counters, a fleet collector over source and the
// Go runtime collectors.
func NewMetrics(source DashboardSource) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ingested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "reports_ingested_total",
				Help:      "Total number of device reports accepted",
			},
			[]string{"transport"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "reports_rejected_total",
				Help:      "Total number of device reports rejected",
			},
			[]string{"transport", "reason"},
		),
	}

	m.registry.MustRegister(
		m.ingested,
		m.rejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if source != nil {
		m.registry.MustRegister(newFleetCollector(source))
	}

	return m
}

// ObserveIngested counts an accepted report.
func (m *Metrics) ObserveIngested(transport string) {
	m.ingested.WithLabelValues(transport).Inc()
}

// ObserveRejected counts a rejected report.
func (m *Metrics) ObserveRejected(transport, reason string) {
	m.rejected.WithLabelValues(transport, reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var subsystemStatuses = []models.Status{
	models.StatusHealthy,
	models.StatusWarning,
	models.StatusCritical,
	models.StatusUnknown,
}

// fleetCollector recomputes the dashboard on every scrape.
type fleetCollector struct {
	source    DashboardSource
	devices   *prometheus.Desc
	subsystem *prometheus.Desc
}

func newFleetCollector(source DashboardSource) *fleetCollector {
	return &fleetCollector{
		source: source,
		devices: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "devices"),
			"Number of devices by freshness and health state",
			[]string{"state"}, nil,
		),
		subsystem: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "subsystem_status"),
			"Fleet rollup per subsystem, 1 for the current status",
			[]string{"subsystem", "status"}, nil,
		),
	}
}

func (c *fleetCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.devices
	ch <- c.subsystem
}

func (c *fleetCollector) Collect(ch chan<- prometheus.Metric) {
	dashboard := c.source.Dashboard()
	if dashboard == nil {
		return
	}

	summary := dashboard.Summary

	for state, n := range map[string]int{
		"total":    summary.TotalDevices,
		"online":   summary.Online,
		"offline":  summary.Offline,
		"healthy":  summary.Healthy,
		"warning":  summary.Warning,
		"critical": summary.Critical,
	} {
		ch <- prometheus.MustNewConstMetric(c.devices, prometheus.GaugeValue, float64(n), state)
	}

	sys := dashboard.SystemStatus

	for name, rollup := range map[string]models.SubsystemStatus{
		"network":  sys.Network,
		"compute":  sys.Compute,
		"storage":  sys.Storage,
		"cooling":  sys.Cooling,
		"security": sys.Security,
		"power":    sys.Power,
	} {
		for _, status := range subsystemStatuses {
			value := 0.0
			if rollup.Status == status {
				value = 1
			}

			ch <- prometheus.MustNewConstMetric(c.subsystem, prometheus.GaugeValue, value, name, string(status))
		}
	}
}
