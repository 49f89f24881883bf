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
	"math"

	"github.com/carverauto/fleetradar/pkg/models"
)

const (
	usageWarningPercent  = 80
	usageCriticalPercent = 95

	temperatureWarningCelsius  = 70
	temperatureCriticalCelsius = 85
)

// UsageStatus grades a utilisation percentage: below 80 is healthy, below 95
// a warning, anything else critical.
func UsageStatus(percent float64) models.Status {
	switch {
	case percent < usageWarningPercent:
		return models.StatusHealthy
	case percent < usageCriticalPercent:
		return models.StatusWarning
	default:
		return models.StatusCritical
	}
}

// TemperatureStatus grades a CPU temperature. A missing or zero reading is
// healthy.
func TemperatureStatus(celsius *float64) models.Status {
	switch {
	case celsius == nil || *celsius == 0 || *celsius < temperatureWarningCelsius:
		return models.StatusHealthy
	case *celsius < temperatureCriticalCelsius:
		return models.StatusWarning
	default:
		return models.StatusCritical
	}
}

// OverallStatus is critical when any of cpu, memory or disk is above 95%,
// a warning above 80%, healthy otherwise.
func OverallStatus(cpu, memory, disk float64) models.Status {
	switch {
	case cpu > usageCriticalPercent || memory > usageCriticalPercent || disk > usageCriticalPercent:
		return models.StatusCritical
	case cpu > usageWarningPercent || memory > usageWarningPercent || disk > usageWarningPercent:
		return models.StatusWarning
	default:
		return models.StatusHealthy
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func gigabytes(b uint64) float64 {
	return round(float64(b)/(1<<30), 2)
}

func float64Ptr(v float64) *float64 {
	return &v
}
