// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for notices
}

// Messages
type monitorTickMsg time.Time

// pollResultMsg is the outcome of one poll
type pollResultMsg struct {
	at     time.Time
	rtt    time.Duration
	clock  *elgas.ReadTimeResponse
	values *elgas.ReadValuesResponse
	err    error
}

type connectionLostMsg struct {
	err error
}

type reconnectedMsg struct {
	connInfo string
}

const maxPollRows = 50

// monitorModel is the bubbletea model of the monitor command
type monitorModel struct {
	connInfo  string
	interval  time.Duration
	stats     *elgas.Statistics
	spinner   spinner.Model
	polls     table.Model
	rows      []table.Row
	events    []eventLogEntry
	maxEvents int
	connected bool
	pollCount int
	failures  int
	lastTime  *elgas.ReadTimeResponse
	lastVals  *elgas.ReadValuesResponse
	width     int
	height    int
	quitting  bool
}

func initialMonitorModel(connInfo string, interval time.Duration, stats *elgas.Statistics) monitorModel {
	polls := table.New(
		table.WithColumns([]table.Column{
			{Title: "Polled", Width: 12},
			{Title: "Device clock", Width: 24},
			{Title: "Drift", Width: 8},
			{Title: "RTT", Width: 8},
			{Title: "Result", Width: 30},
		}),
		table.WithHeight(8),
		table.WithFocused(false),
	)
	return monitorModel{
		connInfo:  connInfo,
		interval:  interval,
		stats:     stats,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("12")))),
		polls:     polls,
		events:    make([]eventLogEntry, 0),
		maxEvents: 100,
		connected: true,
		width:     80,
		height:    24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		monitorTickCmd(),
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		// Redraw so the statistics rates move between polls
		return m, monitorTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pollResultMsg:
		m.addPoll(msg)

	case connectionLostMsg:
		m.connected = false
		m.addLogEntry(fmt.Sprintf("Connection lost: %v", msg.err), true)
		m.addLogEntry("Reconnecting...", false)

	case reconnectedMsg:
		m.connected = true
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected: "+msg.connInfo, false)
	}

	return m, nil
}

// addPoll records one poll in the table and the event log
func (m *monitorModel) addPoll(msg pollResultMsg) {
	m.pollCount++
	row := table.Row{msg.at.Format("15:04:05"), "-", "-", msg.rtt.Round(time.Millisecond).String(), "ok"}

	if msg.clock != nil {
		m.lastTime = msg.clock
		row[1] = elgas.FormatDeviceTime(msg.clock.Time)
		drift := msg.clock.Time.Time.Sub(wallClock(msg.at)).Round(time.Second)
		row[2] = drift.String()
	}
	if msg.values != nil {
		m.lastVals = msg.values
	}
	if msg.err != nil {
		m.failures++
		row[4] = msg.err.Error()
		m.addLogEntry(fmt.Sprintf("Poll failed: %v", msg.err), true)
	}

	m.rows = append(m.rows, row)
	if len(m.rows) > maxPollRows {
		m.rows = m.rows[len(m.rows)-maxPollRows:]
	}
	m.polls.SetRows(m.rows)
	m.polls.GotoBottom()
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.events = append(m.events, entry)

	// Keep only last N entries
	if len(m.events) > m.maxEvents {
		m.events = m.events[len(m.events)-m.maxEvents:]
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("ELCORSTAT - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Poll every %s | Press 'q' to quit",
		m.connInfo, m.interval)))
	s.WriteString("\n\n")

	// Link status
	if m.connected {
		s.WriteString(m.spinner.View() + " " + statsValueStyle.Render("Polling"))
	} else {
		s.WriteString(warningStyle.Render("⏳ Reconnecting..."))
	}
	if m.lastTime != nil {
		s.WriteString(headerStyle.Render(" | Device clock: " + elgas.FormatDeviceTime(m.lastTime.Time)))
	}
	s.WriteString("\n\n")

	// Statistics
	frameRate, errorRate := m.stats.Rates()
	received := m.stats.FramesReceived.Load()
	errs := m.stats.Errors()

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Polls:"), statsValueStyle.Render(fmt.Sprintf("%d", m.pollCount)),
		statsLabelStyle.Render("Frames:"), statsValueStyle.Render(fmt.Sprintf("%d sent / %d received", m.stats.FramesSent.Load(), received)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d", errs)),
	))

	if errs > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Frame:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.FrameErrors.Load())),
			statsLabelStyle.Render("Cipher:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.CipherErrors.Load())),
			statsLabelStyle.Render("Device:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.DeviceErrors.Load())),
			statsLabelStyle.Render("Decode:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.DecodeErrors.Load())),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Last Exchange:"), statsValueStyle.Render(time.Duration(m.stats.LastExchangeNanos.Load()).Round(time.Millisecond).String()),
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", frameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if errorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", errorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", errorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Latest values (only shown once values were read)
	if m.lastVals != nil {
		s.WriteString(statsLabelStyle.Render("Latest Values:"))
		s.WriteString("\n")

		valuesContent := strings.Builder{}
		valuesContent.WriteString(fmt.Sprintf("%s %s   %s 0x%02X\n",
			statsLabelStyle.Render("Timestamp:"), statsValueStyle.Render(elgas.FormatDeviceTime(m.lastVals.Time)),
			statsLabelStyle.Render("Access:"), m.lastVals.DataAccess,
		))
		valuesContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Status:"), statsValueStyle.Render(hex.EncodeToString(m.lastVals.Status)),
			statsLabelStyle.Render("Summary:"), statsValueStyle.Render(hex.EncodeToString(m.lastVals.SummaryStatus)),
		))
		valuesContent.WriteString(fmt.Sprintf("%s %s",
			statsLabelStyle.Render("Parameter CRC:"), statsValueStyle.Render(hex.EncodeToString(m.lastVals.ParameterCRC)),
		))

		s.WriteString(boxStyle.Render(valuesContent.String()))
		s.WriteString("\n\n")
	}

	// Poll history
	s.WriteString(statsLabelStyle.Render("Polls:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(m.polls.View()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 30 // Reserve space for header, stats and polls
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.events) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.events) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.events); i++ {
			entry := m.events[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
