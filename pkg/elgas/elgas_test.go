// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// ============================================================
// Redundancy Tests
// ============================================================

func TestRedundancyBytes(t *testing.T) {
	data := mustHex(t, "FE846C0F00000000000000")

	if got := CalculateLRC(data); got != 0x19 {
		t.Errorf("LRC = 0x%02X, want 0x19", got)
	}
	if got := CalculateChecksum(data); got != 0xFD {
		t.Errorf("checksum = 0x%02X, want 0xFD", got)
	}
	if got := CalculateDRC(data); got != 0x19 {
		t.Errorf("DRC = 0x%02X, want 0x19", got)
	}
}

func TestRedundancyEmpty(t *testing.T) {
	if CalculateLRC(nil) != 0 || CalculateChecksum(nil) != 0 || CalculateDRC(nil) != 0 {
		t.Error("redundancy of empty input should be zero")
	}
}

func TestCalculateCRC16(t *testing.T) {
	data := mustHex(t, "1000036B04A5B1B370A1B0EF8100000000E0031DA5498940BDA30964D6661F6468")
	// Raw CRC is 0xA346; the swapped value written big-endian puts 0x46 first
	if got := CalculateCRC16(data); got != 0x46A3 {
		t.Errorf("CalculateCRC16 = 0x%04X, want 0x46A3", got)
	}
}

// ============================================================
// Escape Tests
// ============================================================

func TestEscape(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		wire  string
	}{
		{"nothing to escape", "02FE0D", "02FE0D"},
		{"end byte", "020D0D", "021B0E0D"},
		{"escape byte", "021B0D", "021B1B0D"},
		{"reserved byte", "028D0D", "021B0F0D"},
		{"all three", "0D1B8D0D", "1B0E1B1B1B0F0D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Escape(mustHex(t, tt.frame))
			if err != nil {
				t.Fatalf("Escape() error = %v", err)
			}
			if want := mustHex(t, tt.wire); !bytes.Equal(got, want) {
				t.Errorf("Escape() = %X, want %X", got, want)
			}

			back, err := Unescape(got)
			if err != nil {
				t.Fatalf("Unescape() error = %v", err)
			}
			if want := mustHex(t, tt.frame); !bytes.Equal(back, want) {
				t.Errorf("Unescape() = %X, want %X", back, want)
			}
		})
	}
}

func TestEscapeRequiresTerminator(t *testing.T) {
	if _, err := Escape([]byte{0x02, 0xFE}); err == nil {
		t.Error("Escape() without end byte should fail")
	}
	if _, err := Unescape(nil); err == nil {
		t.Error("Unescape() of empty input should fail")
	}
}

func TestUnescapeSinglePass(t *testing.T) {
	// 1B 1B 0E is an escaped ESC followed by a literal 0E, never 1B 0D
	got, err := Unescape(mustHex(t, "1B1B0E0D"))
	if err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, "1B0E0D"); !bytes.Equal(got, want) {
		t.Errorf("Unescape() = %X, want %X", got, want)
	}
}

func TestUnescapeUnknownPair(t *testing.T) {
	got, err := Unescape(mustHex(t, "1B550D"))
	if err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, "1B550D"); !bytes.Equal(got, want) {
		t.Errorf("Unescape() = %X, want %X", got, want)
	}
}

// ============================================================
// Frame Tests
// ============================================================

func TestEncodeFrameReadTimeRequest(t *testing.T) {
	got := EncodeFrame(&Frame{Type: TypeRequest, Service: ServiceReadDeviceTime, Data: []byte{}}, LittleEndian)
	want := mustHex(t, "02FE846C0F0000000000000019FD190D")
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeFrame() = %X, want %X", got, want)
	}
}

func TestEncodeFrameReadValuesRequest(t *testing.T) {
	f := &Frame{
		Type:    TypeRequest,
		Service: ServiceReadValues,
		Data:    mustHex(t, "EA0389A33F25AB417769"),
	}
	got := EncodeFrame(f, LittleEndian)
	want := mustHex(t, "02FE84641900000000000000EA0389A33F25AB4177692A48F80D")
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeFrame() = %X, want %X", got, want)
	}
	if f.Length() != 0x19 {
		t.Errorf("Length() = %d, want %d", f.Length(), 0x19)
	}
}

func TestDecodeFrameReadTimeResponse(t *testing.T) {
	raw := mustHex(t, "02FE866C17000000000200021033123005060C2D20D49B0D")
	f, err := DecodeFrame(raw, LittleEndian)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if f.Type != TypeResponse || f.Service != ServiceReadDeviceTime {
		t.Errorf("type/service = 0x%02X/%s", f.Type, f.Service)
	}
	if f.Source != (Address{Address1: 2, Address2: 2}) {
		t.Errorf("Source = %s, want 2/2", f.Source)
	}
	if f.Destination != (Address{}) {
		t.Errorf("Destination = %s, want 0/0", f.Destination)
	}
	if want := mustHex(t, "1033123005060C2D"); !bytes.Equal(f.Data, want) {
		t.Errorf("Data = %X, want %X", f.Data, want)
	}
	if f.Timestamp().IsZero() {
		t.Error("decoded frame should carry a timestamp")
	}
}

func TestFrameAddressOrder(t *testing.T) {
	f := &Frame{
		Type:        TypeResponse,
		Service:     ServiceReadValues,
		Destination: Address{Address1: 0x0102, Address2: 3},
		Source:      Address{Address1: 0x0A0B, Address2: 4},
		Data:        []byte{0x55},
	}

	for _, order := range []AddressOrder{LittleEndian, BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			raw := EncodeFrame(f, order)
			got, err := DecodeFrame(raw, order)
			if err != nil {
				t.Fatal(err)
			}
			if got.Destination != f.Destination || got.Source != f.Source {
				t.Errorf("addresses = %s -> %s, want %s -> %s", got.Source, got.Destination, f.Source, f.Destination)
			}
		})
	}

	big := EncodeFrame(f, BigEndian)
	if big[6] != 0x01 || big[7] != 0x02 {
		t.Errorf("big endian destination bytes = %X", big[6:8])
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	good := mustHex(t, "02FE866C17000000000200021033123005060C2D20D49B0D")

	corrupt := func(i int, b byte) []byte {
		out := append([]byte(nil), good...)
		out[i] = b
		return out
	}

	tests := []struct {
		name string
		raw  []byte
		kind FrameErrorKind
	}{
		{"bad start", corrupt(0, 0x03), FrameBadPrefix},
		{"bad id", corrupt(1, 0xFF), FrameBadPrefix},
		{"request type", corrupt(2, TypeRequest), FrameNotResponse},
		{"bad terminator", corrupt(len(good)-1, 0x00), FrameBadTerminator},
		{"truncated", good[:8], FrameBadTerminator},
		{"short", []byte{0x02, 0xFE, 0x86, 0x0D}, FrameTruncated},
		{"length field", corrupt(4, 0x18), FrameLengthMismatch},
		{"lrc", corrupt(len(good)-4, 0x00), FrameLRCMismatch},
		{"checksum", corrupt(len(good)-3, 0x00), FrameChecksumMismatch},
		{"drc", corrupt(len(good)-2, 0x00), FrameDRCMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame(tt.raw, LittleEndian)
			var frameErr *FrameError
			if !errors.As(err, &frameErr) {
				t.Fatalf("DecodeFrame() error = %v, want *FrameError", err)
			}
			if frameErr.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", frameErr.Kind, tt.kind)
			}
			if Category(err) != CategoryTransport {
				t.Errorf("Category = %s, want transport", Category(err))
			}
		})
	}
}

func TestParseAddressOrder(t *testing.T) {
	for in, want := range map[string]AddressOrder{"": LittleEndian, "little": LittleEndian, "le": LittleEndian, "big": BigEndian, "be": BigEndian} {
		got, err := ParseAddressOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseAddressOrder(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseAddressOrder("middle"); err == nil {
		t.Error("ParseAddressOrder(middle) should fail")
	}
}

func TestParseArchiveAndKeyID(t *testing.T) {
	a, err := ParseArchive("fast-1")
	if err != nil || a != ArchiveFast1 {
		t.Errorf("ParseArchive(fast-1) = %s, %v", a, err)
	}
	if _, err := ParseArchive("weekly"); err == nil {
		t.Error("ParseArchive(weekly) should fail")
	}

	k, err := ParseKeyID("administrator")
	if err != nil || k != KeyAdministrator {
		t.Errorf("ParseKeyID(administrator) = %s, %v", k, err)
	}
	k, err = ParseKeyID("5")
	if err != nil || k != KeyUser1 {
		t.Errorf("ParseKeyID(5) = %s, %v", k, err)
	}
	if _, err := ParseKeyID("9"); err == nil {
		t.Error("ParseKeyID(9) should fail")
	}
}
