// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the usual speed of an ELCOR service port
const DefaultBaudRate = 9600

// serialConn wraps a serial port. Its read deadline maps onto the port's
// read timeout, after which Read returns no bytes and no error.
type serialConn struct {
	port serial.Port
}

func (s *serialConn) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *serialConn) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialConn) Close() error {
	return s.port.Close()
}

func (s *serialConn) SetReadDeadline(t time.Time) error {
	timeout := time.Until(t)
	if timeout < time.Millisecond {
		timeout = time.Millisecond
	}
	return s.port.SetReadTimeout(timeout)
}

// OpenSerial opens portName at baudRate, 8N1
func OpenSerial(portName string, baudRate int) (Conn, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return &serialConn{port: port}, nil
}

// NewSerial opens a serial transport
func NewSerial(portName string, baudRate int, timeout time.Duration) (*Transport, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	conn, err := OpenSerial(portName, baudRate)
	if err != nil {
		return nil, err
	}
	return New(conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), timeout), nil
}
