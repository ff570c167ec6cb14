// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// reader is a little-endian cursor over an immutable body. The first short
// read sticks: later calls return zero values and err reports the failure.
type reader struct {
	record string
	data   []byte
	pos    int
	err    error
}

func newReader(record string, data []byte) *reader {
	return &reader{record: record, data: data}
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) take(field string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.remaining() {
		r.err = &StructuralDecodeError{Record: r.record, Field: field, Need: n, Have: r.remaining()}
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8(field string) uint8 {
	b := r.take(field, 1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16(field string) uint16 {
	b := r.take(field, 2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u24(field string) uint32 {
	b := r.take(field, 3)
	if b == nil {
		return 0
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func (r *reader) u32(field string) uint32 {
	b := r.take(field, 4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) f32(field string) float32 {
	return math.Float32frombits(r.u32(field))
}

func (r *reader) f64(field string) float64 {
	b := r.take(field, 8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// bytes returns a copy so records never alias the caller's buffer
func (r *reader) bytes(field string, n int) []byte {
	b := r.take(field, n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// name reads a fixed-width Latin-1 text cut at the first NUL
func (r *reader) name(field string, n int) string {
	b := r.take(field, n)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(latin1(b))
}

// unit reads a fixed-width Latin-1 text with NULs turned into spaces
func (r *reader) unit(field string, n int) string {
	b := r.take(field, n)
	return strings.TrimSpace(strings.ReplaceAll(latin1(b), "\x00", " "))
}

// decimals reads the optional trailing precision byte
func (r *reader) decimals() *uint8 {
	if r.err != nil || r.remaining() == 0 {
		return nil
	}
	d := r.u8("decimals")
	return &d
}

// rest returns a copy of everything left, or nil
func (r *reader) rest() []byte {
	if r.err != nil || r.remaining() == 0 {
		return nil
	}
	return r.bytes("trailing", r.remaining())
}

// done reports the sticky error, or a leftover error when bytes remain
func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if n := r.remaining(); n > 0 {
		return &StructuralDecodeError{Record: r.record, Leftover: n}
	}
	return nil
}

func latin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

func ipv4(b []byte) string {
	if len(b) != 4 {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3])
}
