// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"errors"
	"fmt"
)

// FrameErrorKind tells which frame check failed
type FrameErrorKind int

const (
	FrameBadPrefix FrameErrorKind = iota
	FrameNotResponse
	FrameBadTerminator
	FrameTruncated
	FrameLengthMismatch
	FrameLRCMismatch
	FrameChecksumMismatch
	FrameDRCMismatch
)

var frameErrorNames = []string{
	"bad prefix",
	"not a response frame",
	"bad terminator",
	"truncated frame",
	"length mismatch",
	"LRC mismatch",
	"checksum mismatch",
	"DRC mismatch",
}

func (k FrameErrorKind) String() string {
	if int(k) < len(frameErrorNames) {
		return frameErrorNames[k]
	}
	return fmt.Sprintf("frame error %d", int(k))
}

// FrameError is returned when complete but malformed bytes fail to decode
type FrameError struct {
	Kind     FrameErrorKind
	Expected int
	Actual   int
}

// Error implements the error interface
func (e *FrameError) Error() string {
	switch e.Kind {
	case FrameNotResponse, FrameBadTerminator, FrameBadPrefix:
		return fmt.Sprintf("%s (got 0x%02X)", e.Kind, e.Actual)
	case FrameTruncated, FrameLengthMismatch:
		return fmt.Sprintf("%s: expected %d, got %d", e.Kind, e.Expected, e.Actual)
	default:
		return fmt.Sprintf("%s: expected 0x%02X, got 0x%02X", e.Kind, e.Expected, e.Actual)
	}
}

// CipherError reports an envelope that cannot be opened or built
type CipherError struct {
	Message string
}

// Error implements the error interface
func (e *CipherError) Error() string {
	return "cipher: " + e.Message
}

// ProtocolError reports an event that has no transition from the current
// state, or a device answer that breaks the exchange rules (Message set).
type ProtocolError struct {
	State   string
	Event   string
	Message string
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	if e.Message != "" {
		return "protocol: " + e.Message
	}
	return fmt.Sprintf("event %s not allowed in state %s", e.Event, e.State)
}

// DeviceErrorKind is one of the eight reasons a device rejects a request
type DeviceErrorKind uint8

// Device error kinds, by the bit they occupy in a 1-byte response
const (
	DeviceWrongPassword DeviceErrorKind = 1 << iota
	DeviceSettingArchiveFull
	DeviceSwitchOff
	DeviceBlockedBuffer
	DeviceDataError
	DeviceCipherKeyError
	DeviceWrongEncryptionKeys
	DeviceWriteError
)

var deviceErrorNames = map[DeviceErrorKind]string{
	DeviceWrongPassword:       "wrong password",
	DeviceSettingArchiveFull:  "setting archive full",
	DeviceSwitchOff:           "switch off",
	DeviceBlockedBuffer:       "blocked buffer",
	DeviceDataError:           "data error",
	DeviceCipherKeyError:      "cipher key error",
	DeviceWrongEncryptionKeys: "wrong encryption keys",
	DeviceWriteError:          "write error",
}

func (k DeviceErrorKind) String() string {
	if name, ok := deviceErrorNames[k]; ok {
		return name
	}
	return fmt.Sprintf("device error 0x%02X", uint8(k))
}

// DeviceError is a request rejected by the device
type DeviceError struct {
	Kind DeviceErrorKind
	Raw  byte
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	return fmt.Sprintf("device rejected request: %s (0x%02X)", e.Kind, e.Raw)
}

// Is matches a DeviceError against the Err* sentinels by kind
func (e *DeviceError) Is(target error) bool {
	t, ok := target.(*DeviceError)
	return ok && t.Raw == 0 && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrWrongPassword       = &DeviceError{Kind: DeviceWrongPassword}
	ErrSettingArchiveFull  = &DeviceError{Kind: DeviceSettingArchiveFull}
	ErrSwitchOff           = &DeviceError{Kind: DeviceSwitchOff}
	ErrBlockedBuffer       = &DeviceError{Kind: DeviceBlockedBuffer}
	ErrDataError           = &DeviceError{Kind: DeviceDataError}
	ErrCipherKeyError      = &DeviceError{Kind: DeviceCipherKeyError}
	ErrWrongEncryptionKeys = &DeviceError{Kind: DeviceWrongEncryptionKeys}
	ErrWriteError          = &DeviceError{Kind: DeviceWriteError}
)

// ParseDeviceError maps an error byte to its kind. The lowest set bit wins.
func ParseDeviceError(b byte) *DeviceError {
	for bit := 0; bit < 8; bit++ {
		if b&(1<<bit) != 0 {
			return &DeviceError{Kind: DeviceErrorKind(1 << bit), Raw: b}
		}
	}
	return nil
}

// UnknownParameterTypeError is returned for a record tag with no decoder
type UnknownParameterTypeError struct {
	Type   uint8
	Offset int
}

// Error implements the error interface
func (e *UnknownParameterTypeError) Error() string {
	return fmt.Sprintf("unknown parameter object type %d at offset %d", e.Type, e.Offset)
}

// UnsupportedServiceError is returned for a service this package has no PDU for
type UnsupportedServiceError struct {
	Service Service
}

// Error implements the error interface
func (e *UnsupportedServiceError) Error() string {
	return fmt.Sprintf("no PDU for service %s", e.Service)
}

// StructuralDecodeError reports a body that is too short or too long for
// the layout being decoded
type StructuralDecodeError struct {
	Record   string
	Field    string
	Need     int
	Have     int
	Leftover int
}

// Error implements the error interface
func (e *StructuralDecodeError) Error() string {
	if e.Leftover > 0 {
		return fmt.Sprintf("%s: %d unexpected bytes left after decoding", e.Record, e.Leftover)
	}
	return fmt.Sprintf("%s: field %s needs %d bytes, %d left", e.Record, e.Field, e.Need, e.Have)
}

// ErrorCategory groups errors by what a caller can do about them
type ErrorCategory int

const (
	CategoryNone ErrorCategory = iota
	// CategoryTransport is corruption on the wire; resend the request
	CategoryTransport
	// CategoryDevice is a rejection; fix password, keys or permissions
	CategoryDevice
	// CategoryUnsupported is a decode table gap; the firmware is newer than the decoder
	CategoryUnsupported
	// CategoryProtocol is misuse of the session
	CategoryProtocol
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryTransport:
		return "transport"
	case CategoryDevice:
		return "device"
	case CategoryUnsupported:
		return "unsupported"
	case CategoryProtocol:
		return "protocol"
	default:
		return "none"
	}
}

// Category classifies err by walking its chain
func Category(err error) ErrorCategory {
	var (
		frameErr   *FrameError
		cipherErr  *CipherError
		deviceErr  *DeviceError
		unknownErr *UnknownParameterTypeError
		structErr  *StructuralDecodeError
		svcErr     *UnsupportedServiceError
		protoErr   *ProtocolError
	)
	switch {
	case err == nil:
		return CategoryNone
	case errors.As(err, &frameErr), errors.As(err, &cipherErr):
		return CategoryTransport
	case errors.As(err, &deviceErr):
		return CategoryDevice
	case errors.As(err, &unknownErr), errors.As(err, &structErr), errors.As(err, &svcErr):
		return CategoryUnsupported
	case errors.As(err, &protoErr):
		return CategoryProtocol
	default:
		return CategoryNone
	}
}
