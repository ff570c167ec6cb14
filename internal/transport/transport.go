// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport moves ELGAS frames over serial, TCP and WebSocket links.
//
// A Transport is half-duplex: Send writes one escaped frame and Receive
// blocks until the device's answer has been read up to its end byte.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

// DefaultTimeout bounds one Receive call
const DefaultTimeout = 10 * time.Second

// pollInterval caps how long a single read blocks so cancellation is noticed
const pollInterval = 250 * time.Millisecond

var (
	// ErrTimeout is returned when no end byte arrives in time
	ErrTimeout = errors.New("timed out waiting for response")
	// ErrConnectionClosed is returned once the peer has gone away
	ErrConnectionClosed = errors.New("connection closed")
)

// Conn is the byte stream under a Transport
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// deadliner is implemented by connections whose reads can be bounded.
// A read that hits the deadline returns os.ErrDeadlineExceeded or no bytes.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Transport frames a Conn on the ELGAS end byte
type Transport struct {
	conn    Conn
	info    string
	timeout time.Duration
	logger  elgas.Logger

	pending []byte
	buf     []byte
}

// New wraps conn. A zero timeout selects DefaultTimeout.
func New(conn Conn, info string, timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Transport{
		conn:    conn,
		info:    info,
		timeout: timeout,
		logger:  elgas.NopLogger(),
		buf:     make([]byte, 256),
	}
}

// SetLogger replaces the silent default logger
func (t *Transport) SetLogger(l elgas.Logger) {
	if l == nil {
		l = elgas.NopLogger()
	}
	t.logger = l
}

// Info describes the link, e.g. "Serial: /dev/ttyUSB0 @ 9600 baud"
func (t *Transport) Info() string { return t.info }

// Conn returns the underlying stream for passive monitoring
func (t *Transport) Conn() Conn { return t.conn }

// Timeout is the per-Receive limit
func (t *Transport) Timeout() time.Duration { return t.timeout }

// Send writes data in full. Bytes left over from an earlier exchange are
// discarded first.
func (t *Transport) Send(data []byte) error {
	if len(t.pending) > 0 {
		t.logger.Debug("discarding stale bytes", "count", len(t.pending))
		t.pending = nil
	}
	for len(data) > 0 {
		n, err := t.conn.Write(data)
		if err != nil {
			return fmt.Errorf("write to %s: %w", t.info, t.closedOr(err))
		}
		data = data[n:]
	}
	return nil
}

// Receive returns the bytes up to and including the next end byte. Bytes
// read past it are kept for the following call.
func (t *Transport) Receive(ctx context.Context) ([]byte, error) {
	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	for {
		if i := bytes.IndexByte(t.pending, elgas.EndByte); i >= 0 {
			frame := t.pending[:i+1]
			t.pending = append([]byte(nil), t.pending[i+1:]...)
			return frame, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}

		if d, ok := t.conn.(deadliner); ok {
			if err := d.SetReadDeadline(time.Now().Add(min(remaining, pollInterval))); err != nil {
				return nil, fmt.Errorf("set read deadline: %w", err)
			}
		}

		n, err := t.conn.Read(t.buf)
		t.pending = append(t.pending, t.buf[:n]...)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return nil, fmt.Errorf("read from %s: %w", t.info, t.closedOr(err))
		}
	}
}

// Close closes the underlying connection
func (t *Transport) Close() error {
	return t.conn.Close()
}

func (t *Transport) closedOr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return ErrConnectionClosed
	}
	return err
}
