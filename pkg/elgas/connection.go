// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

type needData struct{}

func (needData) Service() Service { return 0 }
func (needData) isResponse() {}

// NeedData is returned by NextEvent while no complete frame is buffered.
// It is not an error: feed more bytes with ReceiveData and call again.
var NeedData Response = needData{}

// ConnectionConfig describes one master/device link
type ConnectionConfig struct {
	Source       Address
	Destination  Address
	AddressOrder AddressOrder
	// Cipher wraps application data when set; nil sends plain frames
	Cipher     *Cipher
	Logger     Logger
	Statistics *Statistics
}

// Connection turns requests into wire bytes and wire bytes into responses.
// It does no I/O. One Connection serves one exchange at a time and is not
// safe for concurrent use.
type Connection struct {
	cfg     ConnectionConfig
	session *Session
	buf     []byte
	sentAt  time.Time
}

// NewConnection creates an idle connection
func NewConnection(cfg ConnectionConfig) *Connection {
	if cfg.Logger == nil {
		cfg.Logger = NopLogger()
	}
	if cfg.Statistics == nil {
		cfg.Statistics = NewStatistics()
	}
	return &Connection{
		cfg:     cfg,
		session: NewSession(cfg.Logger),
	}
}

// State is the session state name
func (c *Connection) State() string { return c.session.State() }

// Statistics returns the counters this connection updates
func (c *Connection) Statistics() *Statistics { return c.cfg.Statistics }

// Reset drops buffered bytes and abandons the outstanding exchange
func (c *Connection) Reset() {
	c.buf = nil
	c.session.Reset()
}

// Send advances the session and returns the escaped frame to write
func (c *Connection) Send(req Request) ([]byte, error) {
	data, err := req.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", req.Service(), err)
	}
	if err := c.session.Request(req.Service()); err != nil {
		return nil, err
	}

	frameType := byte(TypeRequest)
	if c.cfg.Cipher != nil {
		data, err = c.cfg.Cipher.Encrypt(data)
		if err != nil {
			c.session.Reset()
			return nil, err
		}
		frameType = TypeEncryptedRequest
	}

	raw := EncodeFrame(&Frame{
		Type:        frameType,
		Service:     req.Service(),
		Destination: c.cfg.Destination,
		Source:      c.cfg.Source,
		Data:        data,
	}, c.cfg.AddressOrder)
	wire, err := Escape(raw)
	if err != nil {
		c.session.Reset()
		return nil, err
	}

	c.sentAt = time.Now()
	c.cfg.Statistics.RecordSent(len(wire))
	c.cfg.Logger.Debug("frame out", "service", req.Service().String(), "bytes", hex.EncodeToString(wire))
	return wire, nil
}

// ReceiveData buffers bytes read from the transport. A lone end byte on an
// empty buffer is a keep-alive some devices send and is dropped.
func (c *Connection) ReceiveData(data []byte) {
	c.cfg.Statistics.RecordReceived(len(data))
	if len(c.buf) == 0 && len(data) == 1 && data[0] == EndByte {
		c.cfg.Logger.Debug("dropped lone end byte")
		return
	}
	c.buf = append(c.buf, data...)
}

// Buffered is the number of bytes waiting for a terminator
func (c *Connection) Buffered() int { return len(c.buf) }

// NextEvent decodes the buffered frame. It returns NeedData until an end
// byte has arrived. A consumed frame always empties the buffer, whether it
// decodes or not, since the link carries one exchange at a time.
func (c *Connection) NextEvent() (Response, error) {
	end := bytes.IndexByte(c.buf, EndByte)
	if end < 0 {
		return NeedData, nil
	}
	wire := c.buf[:end+1]
	c.buf = nil

	resp, err := c.decode(wire)
	c.cfg.Statistics.RecordFrame(err)
	if !c.sentAt.IsZero() {
		c.cfg.Statistics.RecordExchange(time.Since(c.sentAt))
	}
	if err != nil {
		c.cfg.Logger.Warn("frame in rejected", "error", err.Error(), "bytes", hex.EncodeToString(wire))
		return nil, err
	}
	return resp, nil
}

func (c *Connection) decode(wire []byte) (Response, error) {
	raw, err := Unescape(wire)
	if err != nil {
		return nil, err
	}
	f, err := DecodeFrame(raw, c.cfg.AddressOrder)
	if err != nil {
		return nil, err
	}
	c.cfg.Logger.Debug("frame in", "service", f.Service.String(), "encrypted", f.Encrypted(), "bytes", hex.EncodeToString(wire))

	data := f.Data
	if f.Encrypted() {
		if c.cfg.Cipher == nil {
			return nil, &CipherError{Message: "encrypted frame received but no key is configured"}
		}
		if data, err = c.cfg.Cipher.Decrypt(data); err != nil {
			return nil, err
		}
	}

	if err := c.session.Response(f.Service); err != nil {
		return nil, err
	}

	resp, err := DecodeResponse(f.Service, data)
	if err != nil {
		var devErr *DeviceError
		if errors.As(err, &devErr) {
			c.cfg.Logger.Info("device rejected request", "service", f.Service.String(), "reason", devErr.Kind.String())
		}
		return nil, err
	}
	return resp, nil
}
