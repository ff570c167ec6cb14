// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// ObjectType tags a record in the parameter stream
type ObjectType uint8

// Parameter object types
const (
	ObjectSystemParameters          ObjectType = 0
	ObjectAnalogQuantity            ObjectType = 30
	ObjectBinary                    ObjectType = 31
	ObjectCounter                   ObjectType = 32
	ObjectStandardCounter           ObjectType = 33
	ObjectFlowRate                  ObjectType = 34
	ObjectStandardFlowRate          ObjectType = 35
	ObjectConversionCoefficient     ObjectType = 36
	ObjectErrorCounter              ObjectType = 45
	ObjectErrorStandardCounter      ObjectType = 46
	ObjectCompressibility           ObjectType = 47
	ObjectTimeWindow                ObjectType = 48
	ObjectCorrectionCounter         ObjectType = 49
	ObjectDoubleCounter             ObjectType = 53
	ObjectDoubleErrorCounter        ObjectType = 54
	ObjectDiagnostics               ObjectType = 59
	ObjectDeviceError               ObjectType = 61
	ObjectSumOfAlarms               ObjectType = 62
	ObjectTimer                     ObjectType = 65
	ObjectTariffCounter             ObjectType = 68
	ObjectBaseTariffCounter         ObjectType = 69
	ObjectSetPoint                  ObjectType = 70
	ObjectDifferenceCounter         ObjectType = 72
	ObjectDifferenceBaseCounter     ObjectType = 73
	ObjectCompressibilityZ          ObjectType = 74
	ObjectCompressibilityZBase      ObjectType = 75
	ObjectEnergy                    ObjectType = 77
	ObjectErrorEnergy               ObjectType = 78
	ObjectDoubleTariffCounter       ObjectType = 79
	ObjectAnalogStatistics          ObjectType = 80
	ObjectCounterStatistics         ObjectType = 81
	ObjectStandardCounterStatistics ObjectType = 82
	ObjectStatistics                ObjectType = 83
	ObjectAnalogTimeStatistics      ObjectType = 84
	ObjectTimeStatistics            ObjectType = 85
	ObjectModem                     ObjectType = 141
)

// Record is one decoded parameter object
type Record interface {
	ObjectType() ObjectType
	// Label is the human readable name the device stores for the object
	Label() string
}

// objectTag carries the tag a record was decoded from, so kinds that share
// a layout stay distinguishable
type objectTag struct {
	Type ObjectType `json:"-"`
}

func (t objectTag) ObjectType() ObjectType { return t.Type }

type recordDecoder struct {
	name        string
	decode      func(ObjectType, []byte) (Record, error)
	valueLength int
}

var recordDecoders = map[ObjectType]recordDecoder{
	ObjectSystemParameters:          {"SYSTEM_PARAMETER", decodeSystemParameters, 0},
	ObjectAnalogQuantity:            {"ANALOG_MEASURAND", decodeAnalogQuantity, 2},
	ObjectBinary:                    {"BINARY", decodeBinary, 0},
	ObjectCounter:                   {"COUNTER", decodeCounter, 4},
	ObjectStandardCounter:           {"STANDARD_COUNTER", decodeStandardCounter, 8},
	ObjectFlowRate:                  {"FLOW_RATE", decodeFlowRate, 4},
	ObjectStandardFlowRate:          {"STANDARD_FLOW_RATE", decodeStandardFlowRate, 4},
	ObjectConversionCoefficient:     {"CONVERSION_COEFFICIENT", decodeConversionCoefficient, 4},
	ObjectErrorCounter:              {"ERROR_COUNTER", decodeErrorCounter, 4},
	ObjectErrorStandardCounter:      {"ERROR_STANDARD_COUNTER", decodeErrorStandardCounter, 8},
	ObjectCompressibility:           {"COMPRESSIBILITY", decodeCompressibility, 4},
	ObjectTimeWindow:                {"TIME_WINDOW", decodeTimeWindow, 0},
	ObjectCorrectionCounter:         {"CORRECTION_COUNTER", decodeErrorCounter, 4},
	ObjectDoubleCounter:             {"DOUBLE_COUNTER", decodeCounter, 8},
	ObjectDoubleErrorCounter:        {"DOUBLE_ERROR_COUNTER", decodeErrorCounter, 8},
	ObjectDiagnostics:               {"DIAGNOSTICS", decodeDiagnostics, 0},
	ObjectDeviceError:               {"DEVICE_ERROR", decodeDeviceErrorParameter, 0},
	ObjectSumOfAlarms:               {"SUM_OF_ALARMS", decodeSumOfAlarms, 0},
	ObjectTimer:                     {"TIMER", decodeTimer, 4},
	ObjectTariffCounter:             {"TARIFF_COUNTER", decodeTariffCounter, 0},
	ObjectBaseTariffCounter:         {"BASE_TARIFF_COUNTER", decodeBaseTariffCounter, 0},
	ObjectSetPoint:                  {"SET_POINT", decodeSetPoint, 0},
	ObjectDifferenceCounter:         {"DIFFERENCE_COUNTER", decodeDifferenceCounter, 8},
	ObjectDifferenceBaseCounter:     {"DIFFERENCE_BASE_COUNTER", decodeDifferenceCounter, 8},
	ObjectCompressibilityZ:          {"COMPRESSIBILITY_Z", decodeCompressibility, 4},
	ObjectCompressibilityZBase:      {"COMPRESSIBILITY_Z_BASE", decodeCompressibility, 4},
	ObjectEnergy:                    {"ENERGY", decodeEnergy, 0},
	ObjectErrorEnergy:               {"ERROR_ENERGY", decodeEnergy, 0},
	ObjectDoubleTariffCounter:       {"DOUBLE_TARIFF_COUNTER", decodeTariffCounter, 0},
	ObjectAnalogStatistics:          {"ANALOG_STATISTICS", decodeAnalogStatistics, 0},
	ObjectCounterStatistics:         {"COUNTER_STATISTICS", decodeCounterStatistics, 0},
	ObjectStandardCounterStatistics: {"STANDARD_COUNTER_STATISTICS", decodeCounterStatistics, 0},
	ObjectStatistics:                {"STATISTICS", decodeAnalogStatistics, 0},
	ObjectAnalogTimeStatistics:      {"ANALOG_TIME_STATISTICS", decodeAnalogStatistics, 0},
	ObjectTimeStatistics:            {"TIME_STATISTICS", decodeAnalogStatistics, 0},
	ObjectModem:                     {"MODEM", decodeModem, 0},
}

func (t ObjectType) String() string {
	if d, ok := recordDecoders[t]; ok {
		return d.name
	}
	return fmt.Sprintf("OBJECT_%d", uint8(t))
}

// Known reports whether t has a decoder
func (t ObjectType) Known() bool {
	_, ok := recordDecoders[t]
	return ok
}

// ValueLength is the width in bytes of the object's value in archive and
// actual-value records, or 0 when the object has no single value
func (t ObjectType) ValueLength() int {
	return recordDecoders[t].valueLength
}

// ObjectTypes lists every known tag in ascending order
func ObjectTypes() []ObjectType {
	out := make([]ObjectType, 0, len(recordDecoders))
	for t := range recordDecoders {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// recordHeaderSize is length:u16 plus object_type:u8
const recordHeaderSize = 3

// DecodeRecord decodes one record body, the bytes after its 3-byte header
func DecodeRecord(t ObjectType, body []byte) (Record, error) {
	d, ok := recordDecoders[t]
	if !ok {
		return nil, &UnknownParameterTypeError{Type: uint8(t)}
	}
	return d.decode(t, body)
}

// DecodeParameters splits a parameter stream into records. Each record is
// length:u16 LE, object_type:u8 and length-3 bytes of body.
func DecodeParameters(data []byte) ([]Record, error) {
	var records []Record
	off := 0
	for off < len(data) {
		if len(data)-off < recordHeaderSize {
			return records, &StructuralDecodeError{Record: "parameter stream", Field: "header", Need: recordHeaderSize, Have: len(data) - off}
		}
		length := int(binary.LittleEndian.Uint16(data[off:]))
		t := ObjectType(data[off+2])
		if length < recordHeaderSize {
			return records, &StructuralDecodeError{Record: "parameter stream", Field: "length", Need: recordHeaderSize, Have: length}
		}
		if off+length > len(data) {
			return records, &StructuralDecodeError{Record: t.String(), Field: "body", Need: length - recordHeaderSize, Have: len(data) - off - recordHeaderSize}
		}

		d, ok := recordDecoders[t]
		if !ok {
			return records, &UnknownParameterTypeError{Type: uint8(t), Offset: off}
		}
		rec, err := d.decode(t, data[off+recordHeaderSize:off+length])
		if err != nil {
			return records, fmt.Errorf("record %d (%s) at offset %d: %w", len(records), t, off, err)
		}
		records = append(records, rec)
		off += length
	}
	return records, nil
}

// ============================================================================
// Shared layouts
// ============================================================================

// Bits of the bit_control byte shared by measured quantities
const (
	bitDataArchive    = 0b00000001
	bitDailyArchive   = 0b00000010
	bitMonthlyArchive = 0b00000100
	bitFactoryArchive = 0b00001000
	bitMetrological   = 0b00010000
	bitFastArchive1   = 0b00100000
	bitFastArchive2   = 0b01000000

	bitCountingDirection = 0b01000000
	bitDoubleDifference  = 0b00001000
)

// Bits of the bit_control byte of binary objects
const (
	bitBinaryInBinaryArchive = 0b00000001
	bitBinaryInDataArchive   = 0b00000010
	bitBinaryActive          = 0b01000000
)

// QuantityHeader opens every measured quantity record
type QuantityHeader struct {
	Number                     uint16 `json:"number"`
	ID                         uint16 `json:"id"`
	AddressInActualValues      uint16 `json:"address_in_actual_values"`
	AddressInDataArchiveRecord uint16 `json:"address_in_data_archive_record"`
	BitControl                 uint8  `json:"bit_control"`
	Name                       string `json:"name"`
}

// Label implements Record
func (h *QuantityHeader) Label() string { return h.Name }

func readQuantityHeader(r *reader) QuantityHeader {
	return QuantityHeader{
		Number:                     r.u16("number"),
		ID:                         r.u16("id"),
		AddressInActualValues:      r.u16("address_in_actual_values"),
		AddressInDataArchiveRecord: r.u16("address_in_data_archive_record"),
		BitControl:                 r.u8("bit_control"),
		Name:                       r.name("name", 23),
	}
}

// ArchiveFlags are the archive membership bits common to quantities
type ArchiveFlags struct {
	InDataArchive    bool `json:"in_data_archive"`
	InDailyArchive   bool `json:"in_daily_archive"`
	InMonthlyArchive bool `json:"in_monthly_archive"`
	IsMetrological   bool `json:"is_metrological_quantity"`
}

func archiveFlags(bc uint8) ArchiveFlags {
	return ArchiveFlags{
		InDataArchive:    bc&bitDataArchive != 0,
		InDailyArchive:   bc&bitDailyArchive != 0,
		InMonthlyArchive: bc&bitMonthlyArchive != 0,
		IsMetrological:   bc&bitMetrological != 0,
	}
}

// BitHeader opens every binary-signal record
type BitHeader struct {
	Number                        uint16 `json:"number"`
	ID                            uint16 `json:"id"`
	BitOrderInActualValues        uint16 `json:"bit_order_in_actual_values"`
	BitOrderInDataArchiveRecord   uint16 `json:"bit_order_in_data_archive_record"`
	BitOrderInBinaryArchiveRecord uint16 `json:"bit_order_in_binary_archive_record"`
	BitControl                    uint8  `json:"bit_control"`
	Name                          string `json:"name"`
}

// Label implements Record
func (h *BitHeader) Label() string { return h.Name }

func readBitHeader(r *reader) BitHeader {
	return BitHeader{
		Number:                        r.u16("number"),
		ID:                            r.u16("id"),
		BitOrderInActualValues:        r.u16("bit_order_in_actual_values"),
		BitOrderInDataArchiveRecord:   r.u16("bit_order_in_data_archive_record"),
		BitOrderInBinaryArchiveRecord: r.u16("bit_order_in_binary_archive_record"),
		BitControl:                    r.u8("bit_control"),
		Name:                          r.name("name", 23),
	}
}

// textLogSize is the width of each change-log text as the devices send it
const textLogSize = 13

// ChangeLog is the optional tail of binary-signal records
type ChangeLog struct {
	ActionDuringChange uint8  `json:"action_during_change"`
	TextLog0           string `json:"text_log_0"`
	TextLog1           string `json:"text_log_1"`
}

func readChangeLog(r *reader) *ChangeLog {
	if r.err != nil || r.remaining() == 0 {
		return nil
	}
	return &ChangeLog{
		ActionDuringChange: r.u8("action_during_change"),
		TextLog0:           r.name("text_log_0", textLogSize),
		TextLog1:           r.name("text_log_1", textLogSize),
	}
}

// ArchiveAddresses locates a quantity in the daily, monthly and billing
// archive records
type ArchiveAddresses struct {
	AddressInDailyArchiveRecord   uint16 `json:"address_in_daily_archive_record"`
	AddressInMonthlyArchiveRecord uint16 `json:"address_in_monthly_archive_record"`
}

func readArchiveAddresses(r *reader) ArchiveAddresses {
	return ArchiveAddresses{
		AddressInDailyArchiveRecord:   r.u16("address_in_daily_archive_record"),
		AddressInMonthlyArchiveRecord: r.u16("address_in_monthly_archive_record"),
	}
}

// ErrorBitOrders locate a quantity's error bit in the three status areas
type ErrorBitOrders struct {
	ErrorBitOrderInActualValues  uint16 `json:"error_bit_order_in_actual_values"`
	ErrorBitOrderInBinaryArchive uint16 `json:"error_bit_order_in_binary_archive"`
	ErrorBitOrderInDataArchive   uint16 `json:"error_bit_order_in_data_archive"`
}

func readErrorBitOrders(r *reader) ErrorBitOrders {
	return ErrorBitOrders{
		ErrorBitOrderInActualValues:  r.u16("error_bit_order_in_actual_values"),
		ErrorBitOrderInBinaryArchive: r.u16("error_bit_order_in_binary_archive"),
		ErrorBitOrderInDataArchive:   r.u16("error_bit_order_in_data_archive"),
	}
}
