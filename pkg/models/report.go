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

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Subsystem names a category of metrics inside a report.
type Subsystem string

const (
	SubsystemCPU         Subsystem = "cpu"
	SubsystemMemory      Subsystem = "memory"
	SubsystemDisk        Subsystem = "disk"
	SubsystemNetwork     Subsystem = "network"
	SubsystemTemperature Subsystem = "temperature"
	SubsystemSystem      Subsystem = "system"
)

// KnownSubsystems lists the subsystems producers are expected to report.
var KnownSubsystems = []Subsystem{
	SubsystemCPU,
	SubsystemMemory,
	SubsystemDisk,
	SubsystemNetwork,
	SubsystemTemperature,
	SubsystemSystem,
}

const (
	unknownHostname   = "Unknown"
	unknownPlatform   = "Unknown"
	unknownDeviceType = "unknown"

	fieldDeviceID      = "device_id"
	fieldHostname      = "hostname"
	fieldPlatform      = "platform"
	fieldDeviceType    = "device_type"
	fieldTimestamp     = "timestamp"
	fieldMetrics       = "metrics"
	fieldOverallStatus = "overall_status"

	fieldStatus       = "status"
	fieldUsagePercent = "usage_percent"
	fieldConnections  = "connections"
)

// Reading is one subsystem's slice of a report. Status and the numeric fields
// used for dashboard detail strings are lifted out; everything else the
// producer sent is kept verbatim in Fields.
type Reading struct {
	Status       Status
	UsagePercent *float64
	Connections  *int64
	Fields       map[string]any
}

// Report is a single device's metrics snapshot as submitted by a producer.
// Top level keys the engine does not interpret are kept in Extra.
type Report struct {
	DeviceID      string
	Hostname      string
	Platform      string
	DeviceType    string
	Timestamp     string // producer clock, display only
	Metrics       map[Subsystem]Reading
	OverallStatus Status
	Extra         map[string]any
}

// HostnameOrDefault returns the hostname or the "Unknown" sentinel.
func (r *Report) HostnameOrDefault() string {
	return orDefault(r.Hostname, unknownHostname)
}

// PlatformOrDefault returns the platform or the "Unknown" sentinel.
func (r *Report) PlatformOrDefault() string {
	return orDefault(r.Platform, unknownPlatform)
}

// DeviceTypeOrDefault returns the device type or the "unknown" sentinel.
func (r *Report) DeviceTypeOrDefault() string {
	return orDefault(r.DeviceType, unknownDeviceType)
}

// Reading returns the reading for a subsystem, if the producer sent one.
func (r *Report) Reading(subsystem Subsystem) (Reading, bool) {
	if r == nil || r.Metrics == nil {
		return Reading{}, false
	}

	reading, ok := r.Metrics[subsystem]

	return reading, ok
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}

	out := *r

	if r.Metrics != nil {
		out.Metrics = make(map[Subsystem]Reading, len(r.Metrics))
		for name, reading := range r.Metrics {
			out.Metrics[name] = reading.Clone()
		}
	}

	out.Extra = cloneMap(r.Extra)

	return &out
}

// Clone returns a deep copy of the reading.
func (r Reading) Clone() Reading {
	out := r

	if r.UsagePercent != nil {
		v := *r.UsagePercent
		out.UsagePercent = &v
	}

	if r.Connections != nil {
		v := *r.Connections
		out.Connections = &v
	}

	out.Fields = cloneMap(r.Fields)

	return out
}

// IsEmpty reports whether the producer sent an empty object for this reading.
func (r Reading) IsEmpty() bool {
	return r.Status == "" && r.UsagePercent == nil && r.Connections == nil && len(r.Fields) == 0
}

// MarshalJSON flattens the reading back into the producer's object shape.
func (r Reading) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}

	if r.Status != "" {
		out[fieldStatus] = r.Status
	}

	if r.UsagePercent != nil {
		out[fieldUsagePercent] = *r.UsagePercent
	}

	if r.Connections != nil {
		out[fieldConnections] = *r.Connections
	}

	return json.Marshal(out)
}

// UnmarshalJSON lifts the recognized fields out of a subsystem object.
func (r *Reading) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Reading{}

	if s, ok := takeString(raw, fieldStatus); ok {
		r.Status = Status(s)
	}

	if f, ok := takeFloat(raw, fieldUsagePercent); ok {
		r.UsagePercent = &f
	}

	if f, ok := takeFloat(raw, fieldConnections); ok {
		n := int64(f)
		r.Connections = &n
	}

	fields, err := decodeRest(raw)
	if err != nil {
		return err
	}

	r.Fields = fields

	return nil
}

// MarshalJSON flattens the report back into the producer's document shape.
func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+7)
	for k, v := range r.Extra {
		out[k] = v
	}

	out[fieldDeviceID] = r.DeviceID

	putString(out, fieldHostname, r.Hostname)
	putString(out, fieldPlatform, r.Platform)
	putString(out, fieldDeviceType, r.DeviceType)
	putString(out, fieldTimestamp, r.Timestamp)
	putString(out, fieldOverallStatus, string(r.OverallStatus))

	if r.Metrics != nil {
		out[fieldMetrics] = r.Metrics
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes a producer document. A non-string device_id is left
// in Extra so the ledger rejects the report as missing an id.
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Report{}

	r.DeviceID, _ = takeString(raw, fieldDeviceID)
	r.Hostname, _ = takeString(raw, fieldHostname)
	r.Platform, _ = takeString(raw, fieldPlatform)
	r.DeviceType, _ = takeString(raw, fieldDeviceType)
	r.Timestamp, _ = takeString(raw, fieldTimestamp)

	if s, ok := takeString(raw, fieldOverallStatus); ok {
		r.OverallStatus = Status(s)
	}

	if metrics, ok := raw[fieldMetrics]; ok {
		delete(raw, fieldMetrics)

		if err := json.Unmarshal(metrics, &r.Metrics); err != nil {
			return fmt.Errorf("invalid metrics: %w", err)
		}
	}

	extra, err := decodeRest(raw)
	if err != nil {
		return err
	}

	r.Extra = extra

	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func putString(out map[string]any, key, value string) {
	if value != "" {
		out[key] = value
	}
}

// takeString removes key from raw when it holds a JSON string or null.
func takeString(raw map[string]json.RawMessage, key string) (string, bool) {
	msg, ok := raw[key]
	if !ok {
		return "", false
	}

	var s *string
	if err := json.Unmarshal(msg, &s); err != nil {
		return "", false
	}

	delete(raw, key)

	if s == nil {
		return "", false
	}

	return *s, true
}

// takeFloat removes key from raw when it holds a JSON number or null.
func takeFloat(raw map[string]json.RawMessage, key string) (float64, bool) {
	msg, ok := raw[key]
	if !ok {
		return 0, false
	}

	var f *float64
	if err := json.Unmarshal(msg, &f); err != nil {
		return 0, false
	}

	delete(raw, key)

	if f == nil {
		return 0, false
	}

	return *f, true
}

func decodeRest(raw map[string]json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make(map[string]any, len(raw))

	for k, msg := range raw {
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil, fmt.Errorf("invalid field %q: %w", k, err)
		}

		out[k] = v
	}

	return out, nil
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}

	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = cloneValue(val[i])
		}

		return out
	default:
		return val
	}
}
