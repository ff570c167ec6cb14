// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/Thermoquad/elcorstat/internal/transport"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapConnectionError wraps failures to open a link
func WrapConnectionError(err error, target string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to open connection to %s", target),
		Reason:  extractConnectionReason(err),
		Hint:    "Check the cable or modem, and that no other program holds the port",
		Try:     "elcorstat time --port /dev/ttyUSB0 --baud 9600",
		Err:     err,
	}
}

// WrapExchangeError wraps a failed request with advice chosen by the
// error's category
func WrapExchangeError(err error, operation string) error {
	if err == nil {
		return nil
	}

	e := UserFriendlyError{
		Message: fmt.Sprintf("%s failed", operation),
		Err:     err,
	}

	var devErr *elgas.DeviceError
	switch {
	case stderrors.Is(err, transport.ErrTimeout), stderrors.Is(err, context.DeadlineExceeded):
		e.Reason = "Device did not answer within the timeout"
		e.Hint = "Check the destination address and that the device is powered"
		e.Try = "Raise --timeout or use --dst1 0 --dst2 0 to let any device answer"
	case stderrors.Is(err, transport.ErrConnectionClosed):
		e.Reason = "The connection was closed by the other side"
		e.Hint = "The modem or WebSocket bridge may have dropped the call"
	case stderrors.As(err, &devErr):
		e.Reason = "Device rejected the request: " + devErr.Kind.String()
		e.Hint = deviceHint(devErr.Kind)
	default:
		switch elgas.Category(err) {
		case elgas.CategoryTransport:
			e.Reason = "Received a corrupted or undecipherable frame"
			e.Hint = "Line noise or a wrong encryption key; the request can be retried"
			e.Try = "Check --key and --key-id, or lower the baud rate"
		case elgas.CategoryUnsupported:
			e.Reason = "The device sent data this version cannot decode"
			e.Hint = "The firmware is probably newer than the decoder"
			e.Try = "Save the raw stream with 'elcorstat params --format raw --out params.bin' and report it"
		case elgas.CategoryProtocol:
			e.Reason = "The exchange broke the request/response order"
			e.Hint = "Another master may be talking on the same line"
		default:
			e.Reason = "Communication failed"
		}
	}
	return e
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Flags override the file; ELCORSTAT_* environment variables override both",
		Try:     "Check the transport and link sections of your configuration",
		Err:     err,
	}
}

// WrapDecodeError wraps offline decode failures
func WrapDecodeError(err error, what string) error {
	if err == nil {
		return nil
	}

	reason := "Input is not valid ELGAS data"
	switch elgas.Category(err) {
	case elgas.CategoryTransport:
		reason = "Frame framing or redundancy check failed"
	case elgas.CategoryUnsupported:
		reason = "Input uses a record or service this version cannot decode"
	}
	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to decode %s", what),
		Reason:  reason,
		Hint:    "Frames are hex strings from STX (02) to END (0D), escaped as on the wire",
		Err:     err,
	}
}

func deviceHint(kind elgas.DeviceErrorKind) string {
	switch kind {
	case elgas.DeviceWrongPassword:
		return "Set ELGAS_PASSWORD to the device password (at most 6 characters)"
	case elgas.DeviceCipherKeyError, elgas.DeviceWrongEncryptionKeys:
		return "The device expects a different key; check --key and --key-id"
	case elgas.DeviceSwitchOff:
		return "The service switch on the device blocks this operation"
	case elgas.DeviceSettingArchiveFull:
		return "The setting archive must be read out before the device accepts writes"
	default:
		return "Check the device's access rights for this password"
	}
}

func extractConnectionReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Connection timeout - modem or bridge may be offline or unreachable"
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused - nothing is listening on this port"
	}
	if strings.Contains(errStr, "no such file") || strings.Contains(errStr, "not found") {
		return "Serial port does not exist"
	}
	if strings.Contains(errStr, "permission denied") {
		return "Permission denied - the user may need to be in the dialout group"
	}
	if strings.Contains(errStr, "HTTP 401") {
		return "WebSocket bridge rejected the credentials"
	}

	return "Connection failed"
}
