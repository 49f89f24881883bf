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
	"time"

	"github.com/carverauto/fleetradar/pkg/models"
)

// Observation is one device as seen at a single instant.
type Observation struct {
	DeviceID   string
	Report     *models.Report
	ReceivedAt time.Time
	Freshness  Freshness
}

// Status returns the device status for the observation.
func (o Observation) Status() models.Status {
	return DeviceStatus(o.Report, o.Freshness.Stale)
}

// DeviceStatus is offline when stale, otherwise the producer's overall
// status folded onto the status domain.
func DeviceStatus(report *models.Report, stale bool) models.Status {
	if stale {
		return models.StatusOffline
	}

	if report == nil {
		return models.StatusUnknown
	}

	return report.OverallStatus.Normalize()
}

// Rollup folds a set of statuses into one. Any critical wins, then any
// warning. The result is healthy only if every status is healthy and
// unknown otherwise, including for an empty set.
func Rollup(statuses []models.Status) models.Status {
	if len(statuses) == 0 {
		return models.StatusUnknown
	}

	worst := models.StatusUnknown
	allHealthy := true

	for _, raw := range statuses {
		s := raw.Normalize()

		if s.MoreSevere(worst) {
			worst = s
		}

		if s != models.StatusHealthy {
			allHealthy = false
		}
	}

	switch worst {
	case models.StatusCritical, models.StatusWarning:
		return worst
	case models.StatusHealthy:
		if allHealthy {
			return models.StatusHealthy
		}

		return models.StatusUnknown
	default:
		return models.StatusUnknown
	}
}

// SubsystemStatuses collects the subsystem status of every fresh device that
// sent a reading for it. Stale devices are left out entirely.
func SubsystemStatuses(observations []Observation, subsystem models.Subsystem) []models.Status {
	var out []models.Status

	for _, obs := range observations {
		if obs.Freshness.Stale {
			continue
		}

		reading, ok := obs.Report.Reading(subsystem)
		if !ok {
			continue
		}

		out = append(out, reading.Status.Normalize())
	}

	return out
}

// RollupSubsystem is Rollup over SubsystemStatuses.
func RollupSubsystem(observations []Observation, subsystem models.Subsystem) models.Status {
	return Rollup(SubsystemStatuses(observations, subsystem))
}

// Summarize counts devices by freshness and counts online devices by status.
func Summarize(observations []Observation) models.FleetSummary {
	summary := models.FleetSummary{TotalDevices: len(observations)}

	for _, obs := range observations {
		if obs.Freshness.Stale {
			summary.Offline++

			continue
		}

		summary.Online++

		switch obs.Status() {
		case models.StatusHealthy:
			summary.Healthy++
		case models.StatusWarning:
			summary.Warning++
		case models.StatusCritical:
			summary.Critical++
		case models.StatusUnknown, models.StatusOffline:
		}
	}

	return summary
}

// Representative picks the device that reported most recently, breaking ties
// on the smallest device id. It only feeds display text.
func Representative(observations []Observation) (Observation, bool) {
	if len(observations) == 0 {
		return Observation{}, false
	}

	best := observations[0]

	for _, obs := range observations[1:] {
		switch {
		case obs.ReceivedAt.After(best.ReceivedAt):
			best = obs
		case obs.ReceivedAt.Equal(best.ReceivedAt) && obs.DeviceID < best.DeviceID:
			best = obs
		}
	}

	return best, true
}
