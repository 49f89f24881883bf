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

// Package health classifies device freshness and rolls device and subsystem
// statuses up into fleet views. Everything here is pure.
package health

import "time"

// DefaultWindow is the age after which a device is considered offline.
const DefaultWindow = 60 * time.Second

// Freshness is the classification of one arrival time.
type Freshness struct {
	Stale bool
	// Age is only meaningful when Known is true.
	Age   time.Duration
	Known bool
}

// Classifier decides whether an entry is stale using a fixed window.
type Classifier struct {
	window time.Duration
}

// NewClassifier returns a classifier for window. Non-positive windows fall
// back to DefaultWindow.
func NewClassifier(window time.Duration) *Classifier {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Classifier{window: window}
}

// Window returns the freshness window.
func (c *Classifier) Window() time.Duration {
	return c.window
}

// IsStale reports whether now - receivedAt exceeds the window. A zero
// receivedAt has no computable age and is always stale.
func (c *Classifier) IsStale(receivedAt, now time.Time) bool {
	return c.Classify(receivedAt, now).Stale
}

// Classify returns staleness together with the age it was derived from.
func (c *Classifier) Classify(receivedAt, now time.Time) Freshness {
	age, ok := Age(receivedAt, now)
	if !ok {
		return Freshness{Stale: true}
	}

	return Freshness{
		Stale: age > c.window,
		Age:   age,
		Known: true,
	}
}

// Age returns now - receivedAt, or false when receivedAt is unset.
func Age(receivedAt, now time.Time) (time.Duration, bool) {
	if receivedAt.IsZero() {
		return 0, false
	}

	return now.Sub(receivedAt), true
}
