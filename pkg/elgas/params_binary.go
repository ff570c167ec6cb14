// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

// BinaryFlags are the archive bits of binary-signal records
type BinaryFlags struct {
	InBinaryArchive bool `json:"in_binary_archive"`
	InDataArchive   bool `json:"in_data_archive"`
}

func binaryFlags(bc uint8) BinaryFlags {
	return BinaryFlags{
		InBinaryArchive: bc&bitBinaryInBinaryArchive != 0,
		InDataArchive:   bc&bitBinaryInDataArchive != 0,
	}
}

// Binary is a two-state input such as a cover switch
type Binary struct {
	objectTag
	BitHeader
	BinaryFlags
	ActiveIndicator bool `json:"active_indicator"`
	ErrorBitOrders
	ChangeLog *ChangeLog `json:"change_log"`
}

func decodeBinary(t ObjectType, body []byte) (Record, error) {
	r := newReader("Binary", body)
	rec := &Binary{objectTag: objectTag{t}, BitHeader: readBitHeader(r)}
	rec.BinaryFlags = binaryFlags(rec.BitControl)
	rec.ActiveIndicator = rec.BitControl&bitBinaryActive != 0
	rec.ErrorBitOrders = readErrorBitOrders(r)
	rec.ChangeLog = readChangeLog(r)
	return finish(rec, r)
}

// timeWindowRowSize is the width of one raw row of a time window
const timeWindowRowSize = 10

// TimeWindow is a schedule of intervals. Rows are kept raw.
type TimeWindow struct {
	objectTag
	BitHeader
	BinaryFlags
	Rows      [][]byte   `json:"rows"`
	ChangeLog *ChangeLog `json:"change_log"`
}

func decodeTimeWindow(t ObjectType, body []byte) (Record, error) {
	r := newReader("TimeWindow", body)
	rec := &TimeWindow{objectTag: objectTag{t}, BitHeader: readBitHeader(r)}
	rec.BinaryFlags = binaryFlags(rec.BitControl)
	n := int(r.u8("rows_in_window"))
	rec.Rows = make([][]byte, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		rec.Rows = append(rec.Rows, r.bytes("row", timeWindowRowSize))
	}
	rec.ChangeLog = readChangeLog(r)
	return finish(rec, r)
}

// SetPoint is a binary signal raised when a quantity crosses a limit
type SetPoint struct {
	objectTag
	BitHeader
	BinaryFlags
	ActiveIndicator         bool       `json:"active_indicator"`
	ValueOfLimit            float32    `json:"value_of_limit"`
	TypeOfPrimaryQuantity   uint8      `json:"type_of_primary_quantity"`
	NumberOfPrimaryQuantity uint8      `json:"number_of_primary_quantity"`
	ChangeLog               *ChangeLog `json:"change_log"`
}

func decodeSetPoint(t ObjectType, body []byte) (Record, error) {
	r := newReader("SetPoint", body)
	rec := &SetPoint{objectTag: objectTag{t}, BitHeader: readBitHeader(r)}
	rec.BinaryFlags = binaryFlags(rec.BitControl)
	rec.ActiveIndicator = rec.BitControl&bitBinaryActive != 0
	rec.ValueOfLimit = r.f32("value_of_limit")
	rec.TypeOfPrimaryQuantity = r.u8("type_of_primary_quantity")
	rec.NumberOfPrimaryQuantity = r.u8("number_of_primary_quantity")
	rec.ChangeLog = readChangeLog(r)
	return finish(rec, r)
}

// SumOfAlarms is a binary signal set while any alarm is active
type SumOfAlarms struct {
	objectTag
	BitHeader
	BinaryFlags
	ChangeLog *ChangeLog `json:"change_log"`
}

func decodeSumOfAlarms(t ObjectType, body []byte) (Record, error) {
	r := newReader("SumOfAlarms", body)
	rec := &SumOfAlarms{objectTag: objectTag{t}, BitHeader: readBitHeader(r)}
	rec.BinaryFlags = binaryFlags(rec.BitControl)
	rec.ChangeLog = readChangeLog(r)
	return finish(rec, r)
}

// DeviceErrorParameter is a binary signal set while the device reports an
// internal error
type DeviceErrorParameter struct {
	objectTag
	BitHeader
	ChangeLog *ChangeLog `json:"change_log"`
}

func decodeDeviceErrorParameter(t ObjectType, body []byte) (Record, error) {
	r := newReader("DeviceError", body)
	rec := &DeviceErrorParameter{objectTag: objectTag{t}, BitHeader: readBitHeader(r)}
	rec.ChangeLog = readChangeLog(r)
	return finish(rec, r)
}
