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

package models

// Status is a health state reported by a producer or derived by the engine.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusUnknown  Status = "unknown"

	// StatusOffline is never accepted from a producer. The engine assigns it to
	// devices whose last report aged past the freshness window.
	StatusOffline Status = "offline"
)

// ParseStatus maps a producer supplied string onto the status domain.
// Matching is exact: anything outside {healthy, warning, critical, unknown},
// including other casings, is unknown.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusHealthy:
		return StatusHealthy
	case StatusWarning:
		return StatusWarning
	case StatusCritical:
		return StatusCritical
	default:
		return StatusUnknown
	}
}

// Normalize returns the status folded onto the producer status domain.
func (s Status) Normalize() Status {
	return ParseStatus(string(s))
}

// Severity orders statuses critical > warning > healthy > unknown.
func (s Status) Severity() int {
	switch s.Normalize() {
	case StatusCritical:
		return 3
	case StatusWarning:
		return 2
	case StatusHealthy:
		return 1
	case StatusUnknown, StatusOffline:
		return 0
	default:
		return 0
	}
}

// MoreSevere reports whether s outranks other.
func (s Status) MoreSevere(other Status) bool {
	return s.Severity() > other.Severity()
}

func (s Status) String() string {
	return string(s)
}
