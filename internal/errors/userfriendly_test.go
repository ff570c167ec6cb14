// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Thermoquad/elcorstat/internal/transport"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

func TestUserFriendlyError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      UserFriendlyError
		contains []string
	}{
		{
			name:     "message only",
			err:      UserFriendlyError{Message: "something broke"},
			contains: []string{"something broke"},
		},
		{
			name: "all fields",
			err: UserFriendlyError{
				Message: "read failed",
				Reason:  "timeout",
				Hint:    "check cable",
				Try:     "raise timeout",
				Err:     fmt.Errorf("timed out waiting for response"),
			},
			contains: []string{"read failed", "Reason: timeout", "Hint: check cable", "Try: raise timeout", "Details: timed out"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
		})
	}
}

func TestUserFriendlyError_ErrorOmitsEmptyFields(t *testing.T) {
	msg := UserFriendlyError{Message: "msg"}.Error()
	assert.NotContains(t, msg, "Reason:")
	assert.NotContains(t, msg, "Hint:")
	assert.NotContains(t, msg, "Try:")
	assert.NotContains(t, msg, "Details:")
}

func TestUserFriendlyError_Unwrap(t *testing.T) {
	err := WrapExchangeError(elgas.ParseDeviceError(0x01), "Read values")
	assert.ErrorIs(t, err, elgas.ErrWrongPassword)

	var nilErr UserFriendlyError
	assert.Nil(t, nilErr.Unwrap())
}

func TestWrapExchangeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"timeout", fmt.Errorf("read: %w", transport.ErrTimeout), "did not answer"},
		{"closed", transport.ErrConnectionClosed, "closed by the other side"},
		{"wrong password", elgas.ParseDeviceError(0x01), "wrong password"},
		{"frame", &elgas.FrameError{Kind: elgas.FrameLRCMismatch}, "corrupted"},
		{"cipher", &elgas.CipherError{Message: "bad padding"}, "corrupted"},
		{"unknown record", &elgas.UnknownParameterTypeError{Type: 200}, "cannot decode"},
		{"protocol", &elgas.ProtocolError{State: "idle", Event: "response_READ_VALUES"}, "request/response order"},
		{"other", stderrors.New("boom"), "Communication failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapExchangeError(tt.err, "Read values")
			var ufe UserFriendlyError
			if assert.ErrorAs(t, err, &ufe) {
				assert.Equal(t, "Read values failed", ufe.Message)
				assert.Contains(t, ufe.Reason, tt.reason)
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestWrapExchangeErrorDeviceHints(t *testing.T) {
	err := WrapExchangeError(elgas.ParseDeviceError(0x20), "Read parameters")
	assert.Contains(t, err.Error(), "--key-id")

	err = WrapExchangeError(elgas.ParseDeviceError(0x01), "Read parameters")
	assert.Contains(t, err.Error(), "ELGAS_PASSWORD")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, WrapExchangeError(nil, "x"))
	assert.Nil(t, WrapConnectionError(nil, "x"))
	assert.Nil(t, WrapConfigError(nil, "x"))
	assert.Nil(t, WrapDecodeError(nil, "x"))
}

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		err    string
		reason string
	}{
		{"dial tcp 10.0.0.1:502: connect: connection refused", "Connection refused"},
		{"failed to open serial port /dev/ttyUSB9: no such file or directory", "does not exist"},
		{"open /dev/ttyS0: permission denied", "dialout"},
		{"WebSocket connection failed (HTTP 401): bad handshake", "credentials"},
		{"dial tcp: i/o timeout", "timeout"},
		{"weird", "Connection failed"},
	}

	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			err := WrapConnectionError(stderrors.New(tt.err), "TCP: 10.0.0.1:502")
			var ufe UserFriendlyError
			if assert.ErrorAs(t, err, &ufe) {
				assert.Contains(t, ufe.Reason, tt.reason)
				assert.Contains(t, ufe.Message, "TCP: 10.0.0.1:502")
			}
		})
	}
}

func TestWrapConfigAndDecode(t *testing.T) {
	err := WrapConfigError(stderrors.New("link.password_id 900 out of range"), "elcorstat.yaml")
	assert.Contains(t, err.Error(), "Configuration error in elcorstat.yaml")
	assert.Contains(t, err.Error(), "password_id 900")

	err = WrapDecodeError(&elgas.FrameError{Kind: elgas.FrameBadTerminator}, "frame")
	assert.Contains(t, err.Error(), "redundancy check failed")

	err = WrapDecodeError(&elgas.UnknownParameterTypeError{Type: 1}, "parameter stream")
	assert.Contains(t, err.Error(), "cannot decode")
}
