// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/elcorstat/internal/client"
	"github.com/Thermoquad/elcorstat/internal/logging"
	"github.com/Thermoquad/elcorstat/internal/transport"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

func TestNextBackoff(t *testing.T) {
	var got []time.Duration
	d := initialBackoff
	for i := 0; i < 7; i++ {
		got = append(got, d)
		d = nextBackoff(d)
	}
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}, got)
}

func TestWallClock(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	got := wallClock(time.Date(2024, 2, 16, 14, 20, 14, 0, loc))
	assert.Equal(t, time.Date(2024, 2, 16, 14, 20, 14, 0, time.UTC), got)
}

// ============================================================================
// Model
// ============================================================================

func TestMonitorModelPolls(t *testing.T) {
	stats := elgas.NewStatistics()
	m := initialMonitorModel("tcp://10.0.0.5:10001", time.Second, stats)

	at := time.Date(2006, 5, 30, 12, 33, 0, 0, time.UTC)
	clock := &elgas.ReadTimeResponse{Time: elgas.DeviceTime{Time: time.Date(2006, 5, 30, 12, 33, 10, 0, time.UTC)}}

	next, _ := m.Update(pollResultMsg{at: at, rtt: 40 * time.Millisecond, clock: clock})
	m = next.(monitorModel)
	require.Len(t, m.rows, 1)
	assert.Equal(t, "12:33:00", m.rows[0][0])
	assert.Equal(t, "10s", m.rows[0][2])
	assert.Equal(t, "ok", m.rows[0][4])
	assert.Same(t, clock, m.lastTime)

	next, _ = m.Update(pollResultMsg{at: at, err: transport.ErrTimeout})
	m = next.(monitorModel)
	assert.Equal(t, 2, m.pollCount)
	assert.Equal(t, 1, m.failures)
	assert.Equal(t, transport.ErrTimeout.Error(), m.rows[1][4])
	require.Len(t, m.events, 1)
	assert.True(t, m.events[0].isError)

	for i := 0; i < maxPollRows+5; i++ {
		next, _ = m.Update(pollResultMsg{at: at})
		m = next.(monitorModel)
	}
	assert.Len(t, m.rows, maxPollRows)

	assert.Contains(t, m.View(), "ELCORSTAT - MONITOR")
	assert.Contains(t, m.View(), "Device clock: ")
}

func TestMonitorModelReconnect(t *testing.T) {
	m := initialMonitorModel("serial:/dev/ttyUSB0", time.Second, elgas.NewStatistics())

	next, _ := m.Update(connectionLostMsg{err: transport.ErrConnectionClosed})
	m = next.(monitorModel)
	assert.False(t, m.connected)
	assert.Contains(t, m.View(), "Reconnecting")

	next, _ = m.Update(reconnectedMsg{connInfo: "serial:/dev/ttyUSB1"})
	m = next.(monitorModel)
	assert.True(t, m.connected)
	assert.Equal(t, "serial:/dev/ttyUSB1", m.connInfo)
	assert.Equal(t, "Reconnected: serial:/dev/ttyUSB1", m.events[len(m.events)-1].message)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, next.(monitorModel).quitting)
	assert.NotNil(t, cmd)
}

// ============================================================================
// Poller
// ============================================================================

type chanSink chan tea.Msg

func (c chanSink) Send(msg tea.Msg) {
	select {
	case c <- msg:
	default:
	}
}

func (c chanSink) next(t *testing.T) tea.Msg {
	t.Helper()
	select {
	case msg := <-c:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no message from poller")
		return nil
	}
}

// serveDevice answers one request with a time reply and hangs up
func serveDevice(conn net.Conn, reply []byte) {
	defer conn.Close()
	buf := make([]byte, 64)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		if n > 0 && buf[n-1] == elgas.EndByte {
			break
		}
	}
	conn.Write(reply)
}

func TestPollerReconnects(t *testing.T) {
	reply := mustHex(t, readTimeReply)
	logger, err := logging.NewZapLogger(logging.Options{Writer: io.Discard})
	require.NoError(t, err)

	dials := 0
	dial := func() (*transport.Transport, error) {
		dials++
		local, device := net.Pipe()
		go serveDevice(device, reply)
		return transport.New(local, "pipe", time.Second), nil
	}

	sink := make(chanSink, 16)
	p := &poller{
		dial:     dial,
		options:  client.Options{Logger: logger},
		interval: 10 * time.Millisecond,
		logger:   logger,
		sink:     sink,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first, err := dial()
	require.NoError(t, err)
	go p.run(ctx, first)
	defer p.close()

	msg := sink.next(t).(pollResultMsg)
	require.NoError(t, msg.err)
	assert.True(t, msg.clock.Time.Time.Equal(time.Date(2006, 5, 30, 12, 33, 10, 0, time.UTC)))

	msg = sink.next(t).(pollResultMsg)
	assert.True(t, errors.Is(msg.err, transport.ErrConnectionClosed))
	lost := sink.next(t).(connectionLostMsg)
	assert.ErrorIs(t, lost.err, transport.ErrConnectionClosed)

	back := sink.next(t).(reconnectedMsg)
	assert.Equal(t, "pipe", back.connInfo)

	msg = sink.next(t).(pollResultMsg)
	require.NoError(t, msg.err)
	assert.NotNil(t, msg.clock)

	cancel()
	assert.Equal(t, 2, dials)
}
