// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// NewTCP dials host:port. The dial itself is bounded by timeout too.
func NewTCP(host string, port int, timeout time.Duration) (*Transport, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if host == "" || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid TCP address %q port %d", host, port)
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return New(conn, "TCP: "+addr, timeout), nil
}
