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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/fleetradar/pkg/models"
)

const (
	defaultWatchInterval = 5 * time.Second
	defaultTableHeight   = 10
	tableChromeHeight    = 14
)

type dashboardFetcher interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

type dashboardMsg struct {
	dashboard *models.Dashboard
	err       error
}

type refreshMsg time.Time

// watchModel is the bubbletea model behind the watch command.
type watchModel struct {
	ctx       context.Context
	client    dashboardFetcher
	interval  time.Duration
	table     table.Model
	spinner   spinner.Model
	dashboard *models.Dashboard
	err       error
	loading   bool
	updated   time.Time
	styles    styles
}

func newWatchModel(ctx context.Context, client dashboardFetcher, interval time.Duration) *watchModel {
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "DEVICE", Width: 20},
			{Title: "HOSTNAME", Width: 18},
			{Title: "PLATFORM", Width: 14},
			{Title: "ONLINE", Width: 8},
			{Title: "STATUS", Width: 9},
			{Title: "CPU", Width: 7},
			{Title: "MEM", Width: 7},
			{Title: "DISK", Width: 7},
			{Title: "AGE", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(defaultTableHeight),
	)

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(draculaComment)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(draculaPurple))
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color(draculaForeground)).
		Background(lipgloss.Color(draculaComment))
	t.SetStyles(ts)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan))

	return &watchModel{
		ctx:      ctx,
		client:   client,
		interval: interval,
		table:    t,
		spinner:  sp,
		loading:  true,
		styles:   newStyles(),
	}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m *watchModel) fetch() tea.Cmd {
	return func() tea.Msg {
		dash, err := m.client.Dashboard(m.ctx)
		return dashboardMsg{dashboard: dash, err: err}
	}
}

func (m *watchModel) scheduleRefresh() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.fetch()
		}
	case tea.WindowSizeMsg:
		if h := msg.Height - tableChromeHeight; h > 3 {
			m.table.SetHeight(h)
		}

		return m, nil
	case dashboardMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.dashboard = msg.dashboard
			m.updated = time.Now()
			m.table.SetRows(dashboardRows(msg.dashboard))
		}

		return m, m.scheduleRefresh()
	case refreshMsg:
		m.loading = true
		return m, m.fetch()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *watchModel) View() string {
	s := &m.styles

	var b strings.Builder

	b.WriteString(s.title.Render("fleetradar watch"))

	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}

	if !m.updated.IsZero() {
		b.WriteString(s.muted.Render("  updated " + m.updated.Format(time.TimeOnly)))
	}

	b.WriteString("\n\n")

	if m.dashboard != nil {
		b.WriteString(renderSummary(s, &m.dashboard.Summary))
		b.WriteString("\n")

		parts := make([]string, 0, 6)
		for _, row := range systemRows(&m.dashboard.SystemStatus) {
			parts = append(parts, fmt.Sprintf("%s %s", row.name, s.status(row.status.Status).Render(row.status.Detail)))
		}

		b.WriteString(strings.Join(parts, s.muted.Render("  ·  ")))
		b.WriteString("\n\n")
	}

	b.WriteString(m.table.View())

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(s.error.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	b.WriteString("\n\n")
	b.WriteString(s.muted.Render(fmt.Sprintf("↑/↓ select | r refresh | q quit | every %s", m.interval)))

	return s.app.Render(b.String())
}

func dashboardRows(d *models.Dashboard) []table.Row {
	if d == nil {
		return nil
	}

	rows := make([]table.Row, 0, len(d.Devices))

	for i := range d.Devices {
		dev := &d.Devices[i]

		online := "yes"
		if !dev.IsOnline {
			online = "no"
		}

		rows = append(rows, table.Row{
			dev.DeviceID,
			dev.Hostname,
			dev.Platform,
			online,
			dev.OverallStatus.String(),
			usageCell(dev.Metrics, models.SubsystemCPU),
			usageCell(dev.Metrics, models.SubsystemMemory),
			usageCell(dev.Metrics, models.SubsystemDisk),
			formatAge(dev.AgeSeconds),
		})
	}

	return rows
}

func usageCell(metrics map[models.Subsystem]models.Reading, sub models.Subsystem) string {
	r, ok := metrics[sub]
	if !ok || r.UsagePercent == nil {
		return missingCell
	}

	return fmt.Sprintf("%.1f%%", *r.UsagePercent)
}

// RunWatch runs the live dashboard until the user quits or ctx is cancelled.
func RunWatch(ctx context.Context, client *Client, interval time.Duration) error {
	p := tea.NewProgram(newWatchModel(ctx, client, interval), tea.WithContext(ctx), tea.WithAltScreen())

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}

	return err
}
