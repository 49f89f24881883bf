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

package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetradar/pkg/models"
)

var now = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func TestClassifier(t *testing.T) {
	t.Parallel()

	c := NewClassifier(60 * time.Second)

	tests := []struct {
		name       string
		receivedAt time.Time
		wantStale  bool
		wantKnown  bool
	}{
		{"five seconds old", now.Add(-5 * time.Second), false, true},
		{"exactly at window", now.Add(-60 * time.Second), false, true},
		{"just past window", now.Add(-60*time.Second - time.Millisecond), true, true},
		{"two minutes old", now.Add(-120 * time.Second), true, true},
		{"from the future", now.Add(5 * time.Second), false, true},
		{"missing arrival time", time.Time{}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := c.Classify(tt.receivedAt, now)
			assert.Equal(t, tt.wantStale, f.Stale)
			assert.Equal(t, tt.wantKnown, f.Known)
			assert.Equal(t, tt.wantStale, c.IsStale(tt.receivedAt, now))
		})
	}
}

func TestNewClassifierDefaultsWindow(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultWindow, NewClassifier(0).Window())
	assert.Equal(t, 5*time.Minute, NewClassifier(5*time.Minute).Window())
}

func TestAge(t *testing.T) {
	t.Parallel()

	age, ok := Age(now.Add(-90*time.Second), now)
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, age)

	_, ok = Age(time.Time{}, now)
	assert.False(t, ok)
}

func TestDeviceStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status models.Status
		stale  bool
		want   models.Status
	}{
		{"fresh healthy", models.StatusHealthy, false, models.StatusHealthy},
		{"fresh critical", models.StatusCritical, false, models.StatusCritical},
		{"fresh missing", "", false, models.StatusUnknown},
		{"fresh unrecognized", "degraded", false, models.StatusUnknown},
		{"fresh mixed case", "Warning", false, models.StatusUnknown},
		{"fresh upper case", "CRITICAL", false, models.StatusUnknown},
		{"stale critical", models.StatusCritical, true, models.StatusOffline},
		{"stale healthy", models.StatusHealthy, true, models.StatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			report := &models.Report{DeviceID: "d", OverallStatus: tt.status}
			assert.Equal(t, tt.want, DeviceStatus(report, tt.stale))
		})
	}
}

func TestRollup(t *testing.T) {
	t.Parallel()

	h, w, c, u := models.StatusHealthy, models.StatusWarning, models.StatusCritical, models.StatusUnknown

	tests := []struct {
		name     string
		statuses []models.Status
		want     models.Status
	}{
		{"empty", nil, u},
		{"all healthy", []models.Status{h, h, h}, h},
		{"warning beats healthy", []models.Status{w, h}, w},
		{"critical dominates", []models.Status{h, w, w, c, h}, c},
		{"healthy and unknown", []models.Status{h, u}, u},
		{"only unknown", []models.Status{u, u}, u},
		{"unrecognized treated as unknown", []models.Status{h, "bogus"}, u},
		{"warning with unknown", []models.Status{u, w}, w},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Rollup(tt.statuses))
		})
	}
}

func observe(c *Classifier, id string, age time.Duration, overall models.Status, metrics map[models.Subsystem]models.Reading) Observation {
	receivedAt := now.Add(-age)

	return Observation{
		DeviceID:   id,
		Report:     &models.Report{DeviceID: id, OverallStatus: overall, Metrics: metrics},
		ReceivedAt: receivedAt,
		Freshness:  c.Classify(receivedAt, now),
	}
}

func TestRollupSubsystemExcludesStaleDevices(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultWindow)

	obs := []Observation{
		observe(c, "a", 5*time.Second, models.StatusHealthy, map[models.Subsystem]models.Reading{
			models.SubsystemCPU: {Status: models.StatusWarning},
		}),
		observe(c, "b", 10*time.Second, models.StatusHealthy, map[models.Subsystem]models.Reading{
			models.SubsystemCPU: {Status: models.StatusHealthy},
		}),
		observe(c, "c", 5*time.Minute, models.StatusCritical, map[models.Subsystem]models.Reading{
			models.SubsystemCPU: {Status: models.StatusCritical},
		}),
	}

	assert.Equal(t, models.StatusWarning, RollupSubsystem(obs, models.SubsystemCPU))
	assert.Equal(t, models.StatusUnknown, RollupSubsystem(obs, models.SubsystemDisk))
	assert.Len(t, SubsystemStatuses(obs, models.SubsystemCPU), 2)
}

func TestRollupSubsystemReadingWithoutStatus(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultWindow)

	obs := []Observation{
		observe(c, "a", time.Second, models.StatusHealthy, map[models.Subsystem]models.Reading{
			models.SubsystemNetwork: {},
		}),
	}

	assert.Equal(t, []models.Status{models.StatusUnknown}, SubsystemStatuses(obs, models.SubsystemNetwork))
	assert.Equal(t, models.StatusUnknown, RollupSubsystem(obs, models.SubsystemNetwork))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultWindow)

	obs := []Observation{
		observe(c, "a", time.Second, models.StatusHealthy, nil),
		observe(c, "b", time.Second, models.StatusWarning, nil),
		observe(c, "c", time.Second, models.StatusCritical, nil),
		observe(c, "d", time.Second, "", nil),
		observe(c, "e", 2*time.Minute, models.StatusCritical, nil),
		{DeviceID: "f", Report: &models.Report{DeviceID: "f"}, Freshness: c.Classify(time.Time{}, now)},
	}

	assert.Equal(t, models.FleetSummary{
		TotalDevices: 6,
		Online:       4,
		Offline:      2,
		Healthy:      1,
		Warning:      1,
		Critical:     1,
	}, Summarize(obs))
}

func TestRepresentative(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultWindow)

	_, ok := Representative(nil)
	assert.False(t, ok)

	obs := []Observation{
		observe(c, "zulu", 3*time.Second, models.StatusHealthy, nil),
		observe(c, "bravo", time.Second, models.StatusHealthy, nil),
		observe(c, "alpha", time.Second, models.StatusHealthy, nil),
		observe(c, "old", time.Hour, models.StatusHealthy, nil),
	}

	rep, ok := Representative(obs)
	require.True(t, ok)
	assert.Equal(t, "alpha", rep.DeviceID)

	// Order of the input does not matter.
	reversed := []Observation{obs[3], obs[2], obs[1], obs[0]}
	rep, ok = Representative(reversed)
	require.True(t, ok)
	assert.Equal(t, "alpha", rep.DeviceID)
}
