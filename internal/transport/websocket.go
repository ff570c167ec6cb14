// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// webSocketConn turns binary WebSocket messages into a byte stream. A
// background reader owns the socket so that a read deadline can expire
// without failing the connection.
type webSocketConn struct {
	conn     *websocket.Conn
	messages chan []byte
	readDone chan struct{}
	closing  chan struct{}
	once     sync.Once

	buf      []byte
	deadline time.Time
}

func newWebSocketConn(conn *websocket.Conn) *webSocketConn {
	w := &webSocketConn{
		conn:     conn,
		messages: make(chan []byte),
		readDone: make(chan struct{}),
		closing:  make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *webSocketConn) readLoop() {
	defer close(w.readDone)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			return
		}
		// ELGAS frames only travel in binary messages
		if messageType != websocket.BinaryMessage {
			continue
		}
		select {
		case w.messages <- data:
		case <-w.closing:
			return
		}
	}
}

func (w *webSocketConn) Read(p []byte) (int, error) {
	if len(w.buf) > 0 {
		n := copy(p, w.buf)
		w.buf = w.buf[n:]
		return n, nil
	}

	var expired <-chan time.Time
	if !w.deadline.IsZero() {
		timer := time.NewTimer(time.Until(w.deadline))
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case data := <-w.messages:
		n := copy(p, data)
		w.buf = data[n:]
		return n, nil
	case <-w.readDone:
		return 0, ErrConnectionClosed
	case <-expired:
		return 0, os.ErrDeadlineExceeded
	}
}

func (w *webSocketConn) SetReadDeadline(t time.Time) error {
	w.deadline = t
	return nil
}

func (w *webSocketConn) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *webSocketConn) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closing)
		err = w.conn.Close()
	})
	return err
}

// OpenWebSocket dials a serial-over-WebSocket bridge with optional HTTP
// Basic auth
func OpenWebSocket(wsURL, username, password string, skipSSLVerify bool) (Conn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketConn(conn), nil
}

// NewWebSocket opens a WebSocket bridge transport
func NewWebSocket(wsURL, username, password string, skipSSLVerify bool, timeout time.Duration) (*Transport, error) {
	conn, err := OpenWebSocket(wsURL, username, password, skipSSLVerify)
	if err != nil {
		return nil, err
	}
	return New(conn, "WebSocket: "+wsURL, timeout), nil
}
