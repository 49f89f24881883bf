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

package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/carverauto/fleetradar/pkg/models"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"
)

const (
	appPadding  = 2
	neverSeen   = "never"
	missingCell = "-"
)

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true).
			Padding(0, 1),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaYellow)),
		healthy: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		critical: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		unknown: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaForeground)),
		offline: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)).
			Italic(true),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		app: lipgloss.NewStyle().
			Padding(1, appPadding).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color(draculaCyan)).
			Foreground(lipgloss.Color(draculaForeground)),
	}
}

func (s *styles) status(status models.Status) lipgloss.Style {
	switch status {
	case models.StatusHealthy:
		return s.healthy
	case models.StatusWarning:
		return s.warning
	case models.StatusCritical:
		return s.critical
	case models.StatusOffline:
		return s.offline
	case models.StatusUnknown:
		return s.unknown
	default:
		return s.unknown
	}
}

func (s *styles) table(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.muted).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}

			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// RenderDevices renders the device list as a table.
func RenderDevices(devices []models.DeviceSummary) string {
	s := newStyles()

	if len(devices) == 0 {
		return s.muted.Render("No devices have reported yet.")
	}

	t := s.table("DEVICE", "HOSTNAME", "TYPE", "STATUS", "LAST SEEN", "FRESH")

	for _, d := range devices {
		fresh := s.healthy.Render("yes")
		if d.IsStale {
			fresh = s.offline.Render("stale")
		}

		t.Row(
			d.DeviceID,
			d.Hostname,
			d.DeviceType,
			s.status(d.OverallStatus).Render(d.OverallStatus.String()),
			formatTime(d.LastSeen),
			fresh,
		)
	}

	return t.String()
}

// RenderDevice renders one device detail with a row per subsystem.
func RenderDevice(d *models.DeviceDetail) string {
	s := newStyles()

	report := d.Report
	if report == nil {
		report = &models.Report{}
	}

	var b strings.Builder

	b.WriteString(s.title.Render(report.DeviceID))
	b.WriteString("\n")

	overall := report.OverallStatus
	if d.IsStale {
		overall = models.StatusOffline
	}

	for _, kv := range [][2]string{
		{"Hostname", report.HostnameOrDefault()},
		{"Platform", report.PlatformOrDefault()},
		{"Type", report.DeviceTypeOrDefault()},
		{"Received", formatTime(d.ReceivedAt)},
		{"Age", formatAge(d.AgeSeconds)},
	} {
		fmt.Fprintf(&b, "%s %s\n", s.label.Render(fmt.Sprintf("%-9s", kv[0]+":")), kv[1])
	}

	fmt.Fprintf(&b, "%s %s\n\n", s.label.Render(fmt.Sprintf("%-9s", "Status:")), s.status(overall).Render(overall.String()))

	if len(report.Metrics) == 0 {
		b.WriteString(s.muted.Render("No subsystem metrics in this report."))
		return b.String()
	}

	t := s.table("SUBSYSTEM", "STATUS", "USAGE", "DETAILS")

	for _, name := range sortedSubsystems(report.Metrics) {
		reading := report.Metrics[name]

		t.Row(
			string(name),
			s.status(reading.Status.Normalize()).Render(reading.Status.Normalize().String()),
			formatUsage(reading),
			formatFields(reading.Fields),
		)
	}

	b.WriteString(t.String())

	return b.String()
}

// RenderDashboard renders the summary, the subsystem rollups and the device table.
func RenderDashboard(d *models.Dashboard) string {
	s := newStyles()

	var b strings.Builder

	b.WriteString(s.title.Render("Fleet dashboard"))
	b.WriteString(s.muted.Render("  " + d.Timestamp.UTC().Format(time.RFC3339)))
	b.WriteString("\n\n")
	b.WriteString(renderSummary(&s, &d.Summary))
	b.WriteString("\n\n")

	sys := s.table("SUBSYSTEM", "STATUS", "DETAIL")
	for _, row := range systemRows(&d.SystemStatus) {
		sys.Row(row.name, s.status(row.status.Status).Render(row.status.Status.String()), row.status.Detail)
	}

	b.WriteString(sys.String())
	b.WriteString("\n")

	if d.Status == models.DashboardStatusNoData || len(d.Devices) == 0 {
		b.WriteString(s.muted.Render("No data"))
		return b.String()
	}

	devices := s.table("DEVICE", "HOSTNAME", "PLATFORM", "ONLINE", "STATUS", "AGE")

	for i := range d.Devices {
		dev := &d.Devices[i]

		online := s.healthy.Render("online")
		if !dev.IsOnline {
			online = s.offline.Render("offline")
		}

		devices.Row(
			dev.DeviceID,
			dev.Hostname,
			dev.Platform,
			online,
			s.status(dev.OverallStatus).Render(dev.OverallStatus.String()),
			formatAge(dev.AgeSeconds),
		)
	}

	b.WriteString(devices.String())

	return b.String()
}

func renderSummary(s *styles, sum *models.FleetSummary) string {
	return strings.Join([]string{
		s.label.Render("Devices ") + fmt.Sprint(sum.TotalDevices),
		s.healthy.Render("Online ") + fmt.Sprint(sum.Online),
		s.offline.Render("Offline ") + fmt.Sprint(sum.Offline),
		s.healthy.Render("Healthy ") + fmt.Sprint(sum.Healthy),
		s.warning.Render("Warning ") + fmt.Sprint(sum.Warning),
		s.critical.Render("Critical ") + fmt.Sprint(sum.Critical),
	}, s.muted.Render("  |  "))
}

type systemRow struct {
	name   string
	status models.SubsystemStatus
}

func systemRows(sys *models.SystemStatus) []systemRow {
	return []systemRow{
		{"network", sys.Network},
		{"compute", sys.Compute},
		{"storage", sys.Storage},
		{"cooling", sys.Cooling},
		{"security", sys.Security},
		{"power", sys.Power},
	}
}

func sortedSubsystems(metrics map[models.Subsystem]models.Reading) []models.Subsystem {
	names := make([]models.Subsystem, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return neverSeen
	}

	return t.UTC().Format(time.RFC3339)
}

func formatAge(age *float64) string {
	if age == nil {
		return missingCell
	}

	return (time.Duration(*age * float64(time.Second))).Round(time.Second).String()
}

func formatUsage(r models.Reading) string {
	switch {
	case r.UsagePercent != nil:
		return fmt.Sprintf("%.1f%%", *r.UsagePercent)
	case r.Connections != nil:
		return fmt.Sprintf("%d conns", *r.Connections)
	default:
		return missingCell
	}
}

func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))

	for _, k := range keys {
		v := fields[k]
		if v == nil {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}

	return strings.Join(parts, " ")
}
