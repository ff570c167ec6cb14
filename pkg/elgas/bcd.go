// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"fmt"
	"strings"
	"time"
)

// Hour byte flags in a BCD timestamp
const (
	hourIsDST       = 0x80
	hourSupportsDST = 0x40
	hourFlagMask    = hourIsDST | hourSupportsDST
)

// DeviceTime is a device timestamp with its daylight-saving flags. The device
// sends local wall-clock time without a zone, so Time is in time.UTC by
// convention and should be read as a naive timestamp.
type DeviceTime struct {
	Time        time.Time
	IsDST       bool
	SupportsDST bool
}

// EncodeBCDByte packs 0..99 into one BCD byte
func EncodeBCDByte(n int) (byte, error) {
	if n < 0 || n > 99 {
		return 0, fmt.Errorf("value %d does not fit one BCD byte", n)
	}
	return byte(n/10)<<4 | byte(n%10), nil
}

// DecodeBCDByte unpacks one BCD byte
func DecodeBCDByte(b byte) (int, error) {
	hi, lo := b>>4, b&0x0F
	if hi > 9 || lo > 9 {
		return 0, fmt.Errorf("0x%02X is not a BCD byte", b)
	}
	return int(hi)*10 + int(lo), nil
}

// DecodeBCDDigits renders BCD bytes as their digit string, high nibble first.
func DecodeBCDDigits(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

// DecodeBCDNumber renders BCD bytes as a decimal number without leading
// zeros. All-zero input gives "0".
func DecodeBCDNumber(data []byte) string {
	digits := strings.TrimLeft(DecodeBCDDigits(data), "0")
	if digits == "" {
		return "0"
	}
	return digits
}

// DecodeBCDTime decodes sec, min, hour, day, month, year-2000.
// The top two bits of the hour byte carry the DST flags.
func DecodeBCDTime(data []byte) (DeviceTime, error) {
	if len(data) != 6 {
		return DeviceTime{}, fmt.Errorf("BCD time needs 6 bytes, got %d", len(data))
	}

	hourByte := data[2]
	fields := []byte{data[0], data[1], hourByte &^ hourFlagMask, data[3], data[4], data[5]}
	var v [6]int
	for i, b := range fields {
		n, err := DecodeBCDByte(b)
		if err != nil {
			return DeviceTime{}, fmt.Errorf("BCD time %X: %w", data, err)
		}
		v[i] = n
	}

	sec, min, hour, day, month, year := v[0], v[1], v[2], v[3], v[4], v[5]+2000
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || min > 59 || sec > 59 {
		return DeviceTime{}, fmt.Errorf("BCD time %X is out of range", data)
	}

	return DeviceTime{
		Time:        time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC),
		IsDST:       hourByte&hourIsDST != 0,
		SupportsDST: hourByte&hourSupportsDST != 0,
	}, nil
}

// EncodeBCDTime packs t's wall clock as sec, min, hour, day, month, year-2000.
// No DST flags are set.
func EncodeBCDTime(t time.Time) ([]byte, error) {
	if t.Year() < 2000 || t.Year() > 2099 {
		return nil, fmt.Errorf("year %d cannot be encoded", t.Year())
	}
	out := make([]byte, 0, 6)
	for _, n := range []int{t.Second(), t.Minute(), t.Hour(), t.Day(), int(t.Month()), t.Year() - 2000} {
		b, err := EncodeBCDByte(n)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
