// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"encoding/binary"
	"fmt"
	"time"
)

// AddressOrder selects the byte order of the 16-bit address fields.
// Older firmware sends them big-endian; current firmware little-endian.
type AddressOrder int

const (
	LittleEndian AddressOrder = iota
	BigEndian
)

func (o AddressOrder) String() string {
	if o == BigEndian {
		return "big"
	}
	return "little"
}

// ParseAddressOrder accepts "little" or "big"
func ParseAddressOrder(s string) (AddressOrder, error) {
	switch s {
	case "", "little", "le":
		return LittleEndian, nil
	case "big", "be":
		return BigEndian, nil
	}
	return LittleEndian, fmt.Errorf("unknown address byte order %q (use little or big)", s)
}

type appendByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func (o AddressOrder) byteOrder() appendByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Address identifies one end of a link. Address1 selects the measuring
// place, Address2 the device within it. Zero in either makes every device
// answer.
type Address struct {
	Address1 uint16
	Address2 uint8
}

func (a Address) String() string {
	return fmt.Sprintf("%d/%d", a.Address1, a.Address2)
}

// Frame is one unescaped ELGAS frame
type Frame struct {
	Type        byte
	Service     Service
	Destination Address
	Source      Address
	Data        []byte

	timestamp time.Time
}

// Encrypted reports whether the frame data is a cipher envelope
func (f *Frame) Encrypted() bool {
	return f.Type == TypeEncryptedRequest || f.Type == TypeEncryptedResponse
}

// IsResponse reports whether the frame travels device to master
func (f *Frame) IsResponse() bool {
	return f.Type == TypeResponse || f.Type == TypeEncryptedResponse
}

// Length returns the value of the frame's length field
func (f *Frame) Length() int {
	return len(f.Data) + FrameOverhead
}

// Timestamp returns when the frame was decoded (zero for frames built locally)
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// EncodeFrame serializes f to its unescaped form, STX through END.
func EncodeFrame(f *Frame, order AddressOrder) []byte {
	bo := order.byteOrder()
	out := make([]byte, 0, f.Length()+1)

	out = append(out, StartByte, FrameID, f.Type, byte(f.Service))
	out = binary.LittleEndian.AppendUint16(out, uint16(f.Length()))
	out = bo.AppendUint16(out, f.Destination.Address1)
	out = append(out, f.Destination.Address2)
	out = bo.AppendUint16(out, f.Source.Address1)
	out = append(out, f.Source.Address2)
	out = append(out, f.Data...)

	checked := out[1:]
	lrc := CalculateLRC(checked)
	sum := CalculateChecksum(checked)
	drc := CalculateDRC(checked)
	return append(out, lrc, sum, drc, EndByte)
}

// DecodeFrame validates and parses an unescaped response frame.
// Request type bytes are rejected with FrameNotResponse.
func DecodeFrame(raw []byte, order AddressOrder) (*Frame, error) {
	return decodeFrame(raw, order, TypeResponse, TypeEncryptedResponse)
}

// DecodeRequestFrame validates and parses an unescaped request frame, such as
// a Call a device sends when it dials in.
func DecodeRequestFrame(raw []byte, order AddressOrder) (*Frame, error) {
	return decodeFrame(raw, order, TypeRequest, TypeEncryptedRequest)
}

func decodeFrame(raw []byte, order AddressOrder, plain, encrypted byte) (*Frame, error) {
	if len(raw) < 3 {
		return nil, &FrameError{Kind: FrameTruncated, Expected: MinFrameSize, Actual: len(raw)}
	}
	if raw[0] != StartByte {
		return nil, &FrameError{Kind: FrameBadPrefix, Expected: StartByte, Actual: int(raw[0])}
	}
	if raw[1] != FrameID {
		return nil, &FrameError{Kind: FrameBadPrefix, Expected: FrameID, Actual: int(raw[1])}
	}
	if raw[2] != plain && raw[2] != encrypted {
		return nil, &FrameError{Kind: FrameNotResponse, Expected: int(plain), Actual: int(raw[2])}
	}
	if last := raw[len(raw)-1]; last != EndByte {
		return nil, &FrameError{Kind: FrameBadTerminator, Expected: EndByte, Actual: int(last)}
	}
	if len(raw) < MinFrameSize {
		return nil, &FrameError{Kind: FrameTruncated, Expected: MinFrameSize, Actual: len(raw)}
	}

	length := int(binary.LittleEndian.Uint16(raw[4:6]))
	if length != len(raw)-1 {
		return nil, &FrameError{Kind: FrameLengthMismatch, Expected: length, Actual: len(raw) - 1}
	}

	checked := raw[1 : len(raw)-4]
	if got, want := raw[len(raw)-4], CalculateLRC(checked); got != want {
		return nil, &FrameError{Kind: FrameLRCMismatch, Expected: int(want), Actual: int(got)}
	}
	if got, want := raw[len(raw)-3], CalculateChecksum(checked); got != want {
		return nil, &FrameError{Kind: FrameChecksumMismatch, Expected: int(want), Actual: int(got)}
	}
	if got, want := raw[len(raw)-2], CalculateDRC(checked); got != want {
		return nil, &FrameError{Kind: FrameDRCMismatch, Expected: int(want), Actual: int(got)}
	}

	bo := order.byteOrder()
	data := make([]byte, len(raw)-MinFrameSize)
	copy(data, raw[12:len(raw)-4])

	return &Frame{
		Type:    raw[2],
		Service: Service(raw[3]),
		Destination: Address{
			Address1: bo.Uint16(raw[6:8]),
			Address2: raw[8],
		},
		Source: Address{
			Address1: bo.Uint16(raw[9:11]),
			Address2: raw[11],
		},
		Data:      data,
		timestamp: time.Now(),
	}, nil
}
