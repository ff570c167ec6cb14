// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/elcorstat/internal/client"
	"github.com/Thermoquad/elcorstat/internal/logging"
	"github.com/Thermoquad/elcorstat/internal/transport"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

var (
	monitorInterval time.Duration
	monitorValues   bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI polling the device clock and values",
	Long: `Poll a device on an interval and show the results in a terminal UI.

Each poll reads the device clock (READ_DEVICE_TIME) and, with --values, the
instantaneous values (READ_VALUES, needs the device password). The UI shows
the poll history with clock drift and round-trip time, frame statistics,
the latest values and an event log.

A lost connection is reopened automatically with exponential backoff.

Supports serial, TCP and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 5*time.Second, "Poll interval")
	monitorCmd.Flags().BoolVar(&monitorValues, "values", false, "Also read instantaneous values")
}

// Reconnect backoff bounds
const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// nextBackoff doubles d up to maxBackoff
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// messageSink receives TUI messages; *tea.Program is one
type messageSink interface {
	Send(msg tea.Msg)
}

// poller owns the link of the monitor command and reopens it when it drops
type poller struct {
	dial     func() (*transport.Transport, error)
	options  client.Options
	interval time.Duration
	values   bool
	logger   *logging.Logger
	sink     messageSink

	mu        sync.Mutex
	transport *transport.Transport
}

func (p *poller) setTransport(t *transport.Transport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transport = t
}

func (p *poller) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transport != nil {
		p.transport.Close()
		p.transport = nil
	}
}

// run polls until ctx is done
func (p *poller) run(ctx context.Context, t *transport.Transport) {
	p.setTransport(t)
	c := client.New(t, p.options)

	for {
		msg := p.poll(ctx, c)
		if ctx.Err() != nil {
			return
		}
		p.sink.Send(msg)

		if msg.err != nil && linkLost(msg.err) {
			p.sink.Send(connectionLostMsg{err: msg.err})
			t = p.reconnect(ctx)
			if t == nil {
				return
			}
			c = client.New(t, p.options)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		}
	}
}

// poll runs one round of requests
func (p *poller) poll(ctx context.Context, c *client.Client) pollResultMsg {
	msg := pollResultMsg{at: time.Now()}
	msg.clock, msg.err = c.ReadTime(ctx)
	msg.rtt = time.Since(msg.at)
	if msg.err == nil && p.values {
		msg.values, msg.err = c.ReadValues(ctx)
	}
	if msg.err != nil {
		p.logger.Warn("poll failed", "error", msg.err.Error())
	}
	return msg
}

// linkLost reports whether err means the transport is gone
func linkLost(err error) bool {
	return stderrors.Is(err, transport.ErrConnectionClosed)
}

// reconnect reopens the link with exponential backoff. It returns nil
// when ctx is done first.
func (p *poller) reconnect(ctx context.Context) *transport.Transport {
	p.close()

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		t, err := p.dial()
		if err == nil {
			p.setTransport(t)
			p.logger.Info("reconnected", "link", t.Info())
			p.sink.Send(reconnectedMsg{connInfo: t.Info()})
			return t
		}
		p.logger.Warn("reconnect failed", "error", err.Error(), "backoff", backoff.String())

		backoff = nextBackoff(backoff)
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if monitorInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	password := ""
	if monitorValues {
		if password, err = GetPassword(); err != nil {
			return err
		}
	}
	bridgePassword, err := GetBridgePassword(cfg)
	if err != nil {
		return err
	}
	link, err := cfg.ConnectionConfig()
	if err != nil {
		return err
	}
	stats := elgas.NewStatistics()
	link.Statistics = stats
	link.Logger = logger.Named("connection")

	dial := func() (*transport.Transport, error) {
		t, err := OpenTransport(cfg, bridgePassword)
		if err != nil {
			return nil, err
		}
		t.SetLogger(logger.Named("transport"))
		return t, nil
	}
	t, err := dial()
	if err != nil {
		return err
	}

	m := initialMonitorModel(t.Info(), monitorInterval, stats)
	prog := tea.NewProgram(m, tea.WithAltScreen())

	p := &poller{
		dial: dial,
		options: client.Options{
			Link:     link,
			Password: password,
			Retries:  cfg.Transport.Retries,
			Logger:   logger.Named("client"),
		},
		interval: monitorInterval,
		values:   monitorValues,
		logger:   logger.Named("monitor"),
		sink:     prog,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go p.run(ctx, t)

	_, err = prog.Run()
	cancel()
	p.close()
	if err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
