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

// Package fleet assembles the read views served to dashboards: the device
// list, single device detail and the consolidated fleet dashboard.
package fleet

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/carverauto/fleetradar/pkg/health"
	"github.com/carverauto/fleetradar/pkg/ledger"
	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
)

const (
	detailNoData       = "No data"
	detailCooling      = "Temperature optimal"
	detailSecurity     = "All systems secure"
	detailConnections  = "%d connections"
	detailCPU          = "%.1f%% CPU"
	detailDiskUsed     = "%.1f%% used"
	detailPowerOnlineN = "%d/%d online"
)

// Store is the read side of the device ledger.
type Store interface {
	Get(deviceID string) (ledger.Entry, error)
	Snapshot() []ledger.Entry
}

// Service answers fleet queries from ledger snapshots. It holds no state of
// its own; every call recomputes from the current snapshot.
type Service struct {
	store      Store
	classifier *health.Classifier
	clock      func() time.Time
	logger     logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for ages and the dashboard timestamp.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewService creates a query service over store. A nil classifier uses the
// default freshness window.
func NewService(store Store, classifier *health.Classifier, opts ...Option) *Service {
	if classifier == nil {
		classifier = health.NewClassifier(health.DefaultWindow)
	}

	s := &Service{
		store:      store,
		classifier: classifier,
		clock:      time.Now,
		logger:     logger.NewTestLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ListDevices returns one summary per known device, ordered by device id.
func (s *Service) ListDevices() []models.DeviceSummary {
	observations := s.observe()

	out := make([]models.DeviceSummary, 0, len(observations))

	for _, obs := range observations {
		out = append(out, models.DeviceSummary{
			DeviceID:      obs.DeviceID,
			Hostname:      obs.Report.HostnameOrDefault(),
			DeviceType:    obs.Report.DeviceTypeOrDefault(),
			OverallStatus: obs.Status(),
			LastSeen:      timePtr(obs.ReceivedAt),
			IsStale:       obs.Freshness.Stale,
		})
	}

	return out
}

// DeviceDetail returns the stored report of deviceID with its freshness.
// It returns ledger.ErrNotFound for unknown devices.
func (s *Service) DeviceDetail(deviceID string) (*models.DeviceDetail, error) {
	entry, err := s.store.Get(deviceID)
	if err != nil {
		return nil, err
	}

	obs := s.observation(entry, s.clock())

	detail := &models.DeviceDetail{
		Report:     obs.Report,
		ReceivedAt: timePtr(obs.ReceivedAt),
		IsStale:    obs.Freshness.Stale,
	}

	if obs.Freshness.Known {
		detail.AgeSeconds = ageSeconds(obs.Freshness.Age)
	}

	return detail, nil
}

// Dashboard returns the consolidated fleet view. An empty ledger yields the
// no_data shape with every rollup unknown.
func (s *Service) Dashboard() *models.Dashboard {
	now := s.clock()
	observations := s.observeAt(now)

	if len(observations) == 0 {
		return emptyDashboard(now)
	}

	devices := make([]models.DashboardDevice, 0, len(observations))

	for _, obs := range observations {
		device := models.DashboardDevice{
			DeviceID:      obs.DeviceID,
			Hostname:      obs.Report.HostnameOrDefault(),
			Platform:      obs.Report.PlatformOrDefault(),
			IsOnline:      !obs.Freshness.Stale,
			OverallStatus: obs.Status(),
			Metrics:       obs.Report.Metrics,
			LastSeen:      timePtr(obs.ReceivedAt),
		}

		if device.Metrics == nil {
			device.Metrics = map[models.Subsystem]models.Reading{}
		}

		if obs.Freshness.Known {
			device.AgeSeconds = ageSeconds(obs.Freshness.Age)
		} else {
			s.logger.Debug().Str("device_id", obs.DeviceID).Msg("No arrival time, classified offline")
		}

		devices = append(devices, device)
	}

	summary := health.Summarize(observations)

	var representative *models.Report
	if rep, ok := health.Representative(observations); ok {
		representative = rep.Report
	}

	return &models.Dashboard{
		Status:       models.DashboardStatusOK,
		Timestamp:    now.UTC(),
		Devices:      devices,
		Summary:      summary,
		SystemStatus: systemStatus(observations, summary, representative),
	}
}

func (s *Service) observe() []health.Observation {
	return s.observeAt(s.clock())
}

func (s *Service) observeAt(now time.Time) []health.Observation {
	entries := s.store.Snapshot()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].DeviceID < entries[j].DeviceID
	})

	out := make([]health.Observation, 0, len(entries))
	for _, entry := range entries {
		out = append(out, s.observation(entry, now))
	}

	return out
}

func (s *Service) observation(entry ledger.Entry, now time.Time) health.Observation {
	report := entry.Report
	if report == nil {
		report = &models.Report{DeviceID: entry.DeviceID}
	}

	return health.Observation{
		DeviceID:   entry.DeviceID,
		Report:     report,
		ReceivedAt: entry.ReceivedAt,
		Freshness:  s.classifier.Classify(entry.ReceivedAt, now),
	}
}

func systemStatus(observations []health.Observation, summary models.FleetSummary, rep *models.Report) models.SystemStatus {
	power := models.StatusUnknown
	if summary.Online > 0 {
		power = models.StatusHealthy
	}

	return models.SystemStatus{
		Network: models.SubsystemStatus{
			Status: health.RollupSubsystem(observations, models.SubsystemNetwork),
			Detail: networkDetail(rep),
		},
		Compute: models.SubsystemStatus{
			Status: health.RollupSubsystem(observations, models.SubsystemCPU),
			Detail: usageDetail(rep, models.SubsystemCPU, detailCPU),
		},
		Storage: models.SubsystemStatus{
			Status: health.RollupSubsystem(observations, models.SubsystemDisk),
			Detail: usageDetail(rep, models.SubsystemDisk, detailDiskUsed),
		},
		Cooling:  models.SubsystemStatus{Status: models.StatusHealthy, Detail: detailCooling},
		Security: models.SubsystemStatus{Status: models.StatusHealthy, Detail: detailSecurity},
		Power: models.SubsystemStatus{
			Status: power,
			Detail: fmt.Sprintf(detailPowerOnlineN, summary.Online, summary.TotalDevices),
		},
	}
}

func networkDetail(rep *models.Report) string {
	reading, ok := rep.Reading(models.SubsystemNetwork)
	if !ok || reading.IsEmpty() {
		return detailNoData
	}

	var connections int64
	if reading.Connections != nil {
		connections = *reading.Connections
	}

	return fmt.Sprintf(detailConnections, connections)
}

func usageDetail(rep *models.Report, subsystem models.Subsystem, format string) string {
	reading, ok := rep.Reading(subsystem)
	if !ok || reading.UsagePercent == nil {
		return detailNoData
	}

	return fmt.Sprintf(format, *reading.UsagePercent)
}

func emptyDashboard(now time.Time) *models.Dashboard {
	noData := models.SubsystemStatus{Status: models.StatusUnknown, Detail: detailNoData}

	return &models.Dashboard{
		Status:    models.DashboardStatusNoData,
		Timestamp: now.UTC(),
		Devices:   []models.DashboardDevice{},
		SystemStatus: models.SystemStatus{
			Network:  noData,
			Compute:  noData,
			Storage:  noData,
			Cooling:  noData,
			Security: noData,
			Power:    noData,
		},
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

// ageSeconds rounds to one decimal place.
func ageSeconds(age time.Duration) *float64 {
	v := math.Round(age.Seconds()*10) / 10

	return &v
}
