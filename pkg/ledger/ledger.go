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

// Package ledger holds the latest report of every device that has reported.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
)

// Entry is the stored report of one device and the time the ledger accepted it.
type Entry struct {
	DeviceID   string
	Report     *models.Report
	ReceivedAt time.Time
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	return Entry{
		DeviceID:   e.DeviceID,
		Report:     e.Report.Clone(),
		ReceivedAt: e.ReceivedAt,
	}
}

// Receipt acknowledges a recorded report.
type Receipt struct {
	DeviceID   string    `json:"device_id"`
	ReceivedAt time.Time `json:"received_at"`
}

// Ledger maps device ids to their most recently arrived report. Entries are
// replaced whole and never removed.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]Entry

	clock  func() time.Time
	logger logger.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used for received_at.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.logger = log
		}
	}
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		entries: make(map[string]Entry),
		clock:   time.Now,
		logger:  logger.NewTestLogger(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Record validates the report and replaces the entry for its device. The
// ledger keeps its own copy, so later changes to report are not observed.
func (l *Ledger) Record(report *models.Report) (Receipt, error) {
	if report == nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrValidation, errNilReport)
	}

	if report.DeviceID == "" {
		return Receipt{}, fmt.Errorf("%w: device_id is required", ErrValidation)
	}

	stored := report.Clone()

	l.mu.Lock()

	receivedAt := l.clock().UTC()
	l.entries[stored.DeviceID] = Entry{
		DeviceID:   stored.DeviceID,
		Report:     stored,
		ReceivedAt: receivedAt,
	}
	count := len(l.entries)

	l.mu.Unlock()

	l.logger.Debug().
		Str("device_id", stored.DeviceID).
		Time("received_at", receivedAt).
		Int("devices", count).
		Msg("Recorded report")

	return Receipt{DeviceID: stored.DeviceID, ReceivedAt: receivedAt}, nil
}

// Get returns a copy of the entry for deviceID.
func (l *Ledger) Get(deviceID string) (Entry, error) {
	l.mu.RLock()
	entry, ok := l.entries[deviceID]
	l.mu.RUnlock()

	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, deviceID)
	}

	return entry.Clone(), nil
}

// Snapshot returns a point in time copy of every entry in no particular order.
func (l *Ledger) Snapshot() []Entry {
	l.mu.RLock()

	shallow := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		shallow = append(shallow, entry)
	}

	l.mu.RUnlock()

	// Stored reports are never mutated in place, so the deep copy can run
	// after the lock is released.
	out := make([]Entry, len(shallow))
	for i, entry := range shallow {
		out[i] = entry.Clone()
	}

	return out
}

// Len returns the number of devices in the ledger.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}
