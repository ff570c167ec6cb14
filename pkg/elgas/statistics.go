// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Statistics tracks frame traffic and error rates. Counters are safe to
// read from another goroutine while a Connection updates them.
type Statistics struct {
	mu        sync.Mutex
	startTime time.Time

	FramesSent     atomic.Uint64
	FramesReceived atomic.Uint64
	BytesSent      atomic.Uint64
	BytesReceived  atomic.Uint64

	FrameErrors       atomic.Uint64
	CipherErrors      atomic.Uint64
	DeviceErrors      atomic.Uint64
	DecodeErrors      atomic.Uint64
	ProtocolErrors    atomic.Uint64
	LastExchangeNanos atomic.Int64
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

// RecordSent counts one outgoing frame of n wire bytes
func (s *Statistics) RecordSent(n int) {
	s.FramesSent.Inc()
	s.BytesSent.Add(uint64(n))
}

// RecordReceived counts n wire bytes fed into a Connection
func (s *Statistics) RecordReceived(n int) {
	s.BytesReceived.Add(uint64(n))
}

// RecordFrame counts one consumed frame and its outcome
func (s *Statistics) RecordFrame(err error) {
	s.FramesReceived.Inc()
	if err == nil {
		return
	}
	var (
		frameErr  *FrameError
		cipherErr *CipherError
		deviceErr *DeviceError
		protoErr  *ProtocolError
	)
	switch {
	case errors.As(err, &frameErr):
		s.FrameErrors.Inc()
	case errors.As(err, &cipherErr):
		s.CipherErrors.Inc()
	case errors.As(err, &deviceErr):
		s.DeviceErrors.Inc()
	case errors.As(err, &protoErr):
		s.ProtocolErrors.Inc()
	default:
		s.DecodeErrors.Inc()
	}
}

// RecordExchange stores the duration of the last request/response
func (s *Statistics) RecordExchange(d time.Duration) {
	s.LastExchangeNanos.Store(int64(d))
}

// Errors is the sum of all error counters
func (s *Statistics) Errors() uint64 {
	return s.FrameErrors.Load() + s.CipherErrors.Load() + s.DeviceErrors.Load() +
		s.DecodeErrors.Load() + s.ProtocolErrors.Load()
}

// Elapsed is the time since creation or the last Reset
func (s *Statistics) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startTime)
}

// Rates returns frames per second and errors per second
func (s *Statistics) Rates() (frameRate, errorRate float64) {
	elapsed := s.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0, 0
	}
	frames := s.FramesSent.Load() + s.FramesReceived.Load()
	return float64(frames) / elapsed, float64(s.Errors()) / elapsed
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	frameRate, errorRate := s.Rates()
	received := s.FramesReceived.Load()

	var validPercent float64
	if received > 0 {
		validPercent = float64(received-min(received, s.Errors())) * 100.0 / float64(received)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", s.Elapsed().Seconds())
	fmt.Fprintf(&b, "Frames Sent:     %8d (%d bytes)\n", s.FramesSent.Load(), s.BytesSent.Load())
	fmt.Fprintf(&b, "Frames Received: %8d (%d bytes)\n", received, s.BytesReceived.Load())
	fmt.Fprintf(&b, "Valid Frames:    %8d (%.1f%%)\n", received-min(received, s.Errors()), validPercent)

	if n := s.FrameErrors.Load(); n > 0 {
		fmt.Fprintf(&b, "Frame Errors:    %8d\n", n)
	}
	if n := s.CipherErrors.Load(); n > 0 {
		fmt.Fprintf(&b, "Cipher Errors:   %8d\n", n)
	}
	if n := s.DeviceErrors.Load(); n > 0 {
		fmt.Fprintf(&b, "Device Errors:   %8d\n", n)
	}
	if n := s.DecodeErrors.Load(); n > 0 {
		fmt.Fprintf(&b, "Decode Errors:   %8d\n", n)
	}
	if n := s.ProtocolErrors.Load(); n > 0 {
		fmt.Fprintf(&b, "Protocol Errors: %8d\n", n)
	}
	if d := time.Duration(s.LastExchangeNanos.Load()); d > 0 {
		fmt.Fprintf(&b, "Last Exchange:   %8s\n", d.Round(time.Millisecond))
	}

	fmt.Fprintf(&b, "Frame Rate:      %8.1f frames/sec\n", frameRate)
	fmt.Fprintf(&b, "Error Rate:      %8.1f errors/sec\n", errorRate)
	b.WriteString("================================\n")
	return b.String()
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	s.startTime = time.Now()
	s.mu.Unlock()

	for _, c := range []*atomic.Uint64{
		&s.FramesSent, &s.FramesReceived, &s.BytesSent, &s.BytesReceived,
		&s.FrameErrors, &s.CipherErrors, &s.DeviceErrors, &s.DecodeErrors, &s.ProtocolErrors,
	} {
		c.Store(0)
	}
	s.LastExchangeNanos.Store(0)
}
