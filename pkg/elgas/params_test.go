// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"testing"
)

func loadParams(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/params.bin")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func decodeFixture(t *testing.T) []Record {
	t.Helper()
	records, err := DecodeParameters(loadParams(t))
	if err != nil {
		t.Fatalf("DecodeParameters() error = %v", err)
	}
	return records
}

// record builds one length-prefixed record
func record(t ObjectType, body []byte) []byte {
	out := binary.LittleEndian.AppendUint16(nil, uint16(len(body)+recordHeaderSize))
	out = append(out, byte(t))
	return append(out, body...)
}

// fixtureBody returns the body of the record starting at off
func fixtureBody(t *testing.T, off int) (ObjectType, []byte) {
	t.Helper()
	data := loadParams(t)
	length := int(binary.LittleEndian.Uint16(data[off:]))
	return ObjectType(data[off+2]), append([]byte(nil), data[off+recordHeaderSize:off+length]...)
}

// ============================================================
// Stream Tests
// ============================================================

func TestDecodeParametersFixture(t *testing.T) {
	records := decodeFixture(t)

	want := []struct {
		typ   ObjectType
		label string
	}{
		{ObjectSystemParameters, "211137_000000001"},
		{ObjectAnalogQuantity, "Pressure p"},
		{ObjectAnalogQuantity, "Temperature t"},
		{ObjectAnalogQuantity, "Internal temp. A3"},
		{ObjectAnalogQuantity, "Battery voltage A4"},
		{ObjectAnalogQuantity, "Battery capacity A5"},
		{ObjectAnalogQuantity, "GSM signal A6"},
		{ObjectBinary, "Cover B1"},
		{ObjectTimeWindow, "Call window B2"},
		{ObjectTimeWindow, "Service window B3"},
		{ObjectBinary, "Modem power supp B4"},
		{ObjectBinary, "External power B5"},
		{ObjectBinary, "Ext.power modem B6"},
		{ObjectDoubleCounter, "Primary volume Vm"},
		{ObjectDoubleErrorCounter, "Spare prim. vol. Vs"},
		{ObjectStandardCounter, "Base volume Vb"},
		{ObjectErrorStandardCounter, "Spare base vol. Vbs"},
		{ObjectFlowRate, "Flow Q"},
		{ObjectStandardFlowRate, "Base flow Qb"},
		{ObjectSetPoint, "Setpoint Q max S1"},
		{ObjectConversionCoefficient, "Convers.factor C"},
		{ObjectCompressibility, "Comp. ratio Z/Zb K"},
		{ObjectCompressibilityZ, "Compressibility Z"},
		{ObjectCompressibilityZBase, "Base compress. Zb"},
		{ObjectDiagnostics, "Status St1"},
		{ObjectModem, ""},
	}

	if len(records) != len(want) {
		t.Fatalf("decoded %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		if records[i].ObjectType() != w.typ {
			t.Errorf("record %d type = %s, want %s", i, records[i].ObjectType(), w.typ)
		}
		if records[i].Label() != w.label {
			t.Errorf("record %d label = %q, want %q", i, records[i].Label(), w.label)
		}
	}
}

func TestSystemParametersFixture(t *testing.T) {
	sys, ok := decodeFixture(t)[0].(*SystemParameters)
	if !ok {
		t.Fatal("first record is not *SystemParameters")
	}

	if sys.DeviceType != DeviceElcorPlus || sys.DeviceType.String() != "ELCOR_PLUS" {
		t.Errorf("DeviceType = %s", sys.DeviceType)
	}
	if sys.SerialNumber != 1946100061 {
		t.Errorf("SerialNumber = %d", sys.SerialNumber)
	}
	if sys.FirmwareVersion != "1.16" {
		t.Errorf("FirmwareVersion = %q", sys.FirmwareVersion)
	}
	if sys.ServiceVersion != 0x10 {
		t.Errorf("ServiceVersion = 0x%02X", sys.ServiceVersion)
	}
	if sys.CertificationVariant != CertificationCMIMID {
		t.Errorf("CertificationVariant = %s", sys.CertificationVariant)
	}
	if sys.DataAccess != 0x0C || !sys.MetrologicalSwitch || !sys.UserSwitch || sys.PasswordForReadingIsOn {
		t.Errorf("DataAccess = 0x%02X, flags %+v", sys.DataAccess, sys)
	}
	if sys.BasePressure < 101.32 || sys.BasePressure > 101.33 {
		t.Errorf("BasePressure = %v", sys.BasePressure)
	}
	if sys.GasComposition.CO2 < 1.09 || sys.GasComposition.CO2 > 1.11 {
		t.Errorf("GasComposition.CO2 = %v", sys.GasComposition.CO2)
	}
	if len(sys.ParameterCRC) != 2 || len(sys.DeviceFeatures) != 16 {
		t.Errorf("ParameterCRC %X DeviceFeatures %X", sys.ParameterCRC, sys.DeviceFeatures)
	}
}

func TestAnalogQuantityFixture(t *testing.T) {
	records := decodeFixture(t)

	p := records[1].(*AnalogQuantity)
	if p.Unit != "bar" {
		t.Errorf("Unit = %q, want bar", p.Unit)
	}
	if p.Decimals == nil || *p.Decimals != 2 {
		t.Errorf("Decimals = %v, want 2", p.Decimals)
	}
	if p.ID != 1 || p.AddressInActualValues != 6 || p.AddressInDataArchiveRecord != 10 {
		t.Errorf("header = %+v", p.QuantityHeader)
	}
	if !p.InDataArchive || !p.InDailyArchive || p.InMonthlyArchive || !p.IsMetrological {
		t.Errorf("archive flags = %+v (bit control 0x%02X)", p.ArchiveFlags, p.BitControl)
	}
	if p.LowerLimitMeasuringRange < 0.79 || p.LowerLimitMeasuringRange > 0.81 || p.UpperLimitMeasuringRange != 70 {
		t.Errorf("range = %v..%v", p.LowerLimitMeasuringRange, p.UpperLimitMeasuringRange)
	}
	if p.Trailing != nil {
		t.Errorf("Trailing = %X, want nil", p.Trailing)
	}

	temp := records[2].(*AnalogQuantity)
	if temp.Unit != "°C" {
		t.Errorf("Unit = %q, want °C", temp.Unit)
	}
	if temp.Decimals == nil || *temp.Decimals != 65 {
		t.Errorf("Decimals = %v, want 65", temp.Decimals)
	}
}

func TestBinaryFixture(t *testing.T) {
	cover := decodeFixture(t)[7].(*Binary)
	if cover.ID != 160 || cover.BitControl != 0x81 {
		t.Errorf("header = %+v", cover.BitHeader)
	}
	if !cover.InBinaryArchive || cover.InDataArchive || cover.ActiveIndicator {
		t.Errorf("flags = %+v active %v", cover.BinaryFlags, cover.ActiveIndicator)
	}
	if cover.ChangeLog == nil {
		t.Fatal("ChangeLog is nil")
	}
	if cover.ChangeLog.TextLog0 != "Closed" || cover.ChangeLog.TextLog1 != "Opened" {
		t.Errorf("ChangeLog = %+v", cover.ChangeLog)
	}
}

func TestTimeWindowFixture(t *testing.T) {
	w := decodeFixture(t)[8].(*TimeWindow)
	if len(w.Rows) != 1 || len(w.Rows[0]) != timeWindowRowSize {
		t.Fatalf("Rows = %X", w.Rows)
	}
	if want := mustHex(t, "2100b856000000000000"); !bytes.Equal(w.Rows[0], want) {
		t.Errorf("Rows[0] = %x", w.Rows[0])
	}
	if w.ChangeLog == nil {
		t.Error("ChangeLog is nil")
	}
}

func TestCounterFixture(t *testing.T) {
	records := decodeFixture(t)

	vm := records[13].(*Counter)
	if vm.Unit != "m3" || vm.Digit != 1.0 || vm.SerialNumberOfGasMeter != 545071229 {
		t.Errorf("Counter = unit %q digit %v serial %d", vm.Unit, vm.Digit, vm.SerialNumberOfGasMeter)
	}
	if vm.Decimals == nil || *vm.Decimals != 0 {
		t.Errorf("Decimals = %v, want 0", vm.Decimals)
	}
	if !bytes.Equal(vm.Trailing, []byte{0x0B, 0, 0, 0}) {
		t.Errorf("Trailing = %X, want 0B000000", vm.Trailing)
	}

	vs := records[14].(*ErrorCounter)
	if !bytes.Equal(vs.Trailing, []byte{0x0B, 0, 0, 0}) {
		t.Errorf("ErrorCounter Trailing = %X", vs.Trailing)
	}

	vb := records[15].(*StandardCounter)
	if vb.Unit != "m3" || vb.Decimals == nil || *vb.Decimals != 2 {
		t.Errorf("StandardCounter unit %q decimals %v", vb.Unit, vb.Decimals)
	}
	if vb.AddressInDailyArchiveRecord != 30 || vb.AddressInMonthlyArchiveRecord != 26 {
		t.Errorf("archive addresses = %+v", vb.ArchiveAddresses)
	}

	q := records[17].(*FlowRate)
	if q.Unit != "m3/h" || q.Decimals == nil || *q.Decimals != 1 {
		t.Errorf("FlowRate unit %q decimals %v", q.Unit, q.Decimals)
	}
}

func TestDiagnosticsAndModemFixture(t *testing.T) {
	records := decodeFixture(t)

	d := records[24].(*Diagnostics)
	if !bytes.Equal(d.Trailing, []byte{0, 0}) {
		t.Errorf("Diagnostics Trailing = %X, want 0000", d.Trailing)
	}

	m := records[25].(*Modem)
	if m.BitControl != 18 || m.ModemType != 5 {
		t.Errorf("Modem bit control %d type %d", m.BitControl, m.ModemType)
	}
	if m.IPAddressForCallingToDispatching != "0.0.0.0" {
		t.Errorf("IPAddressForCallingToDispatching = %q", m.IPAddressForCallingToDispatching)
	}
	if len(m.GPRSPassword) != 66 || len(m.PIN) != 18 {
		t.Errorf("secret hex lengths = %d/%d", len(m.GPRSPassword), len(m.PIN))
	}
}

// ============================================================
// Error Tests
// ============================================================

func TestDecodeParametersUnknownType(t *testing.T) {
	data := loadParams(t)[:270]
	data = append(data, record(ObjectType(99), []byte{1, 2, 3})...)

	records, err := DecodeParameters(data)
	var unknown *UnknownParameterTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want *UnknownParameterTypeError", err)
	}
	if unknown.Type != 99 || unknown.Offset != 270 {
		t.Errorf("unknown = %+v", unknown)
	}
	if len(records) != 1 {
		t.Errorf("records before the error = %d, want 1", len(records))
	}
	if Category(err) != CategoryUnsupported {
		t.Errorf("Category = %s", Category(err))
	}
}

func TestDecodeParametersTruncated(t *testing.T) {
	data := loadParams(t)

	tests := []struct {
		name string
		data []byte
	}{
		{"partial header", append(append([]byte{}, data[:270]...), 0x10)},
		{"partial body", data[:len(data)-1]},
		{"length below header", append(append([]byte{}, data[:270]...), 0x02, 0x00, 0x1E)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeParameters(tt.data)
			var structErr *StructuralDecodeError
			if !errors.As(err, &structErr) {
				t.Errorf("error = %v, want *StructuralDecodeError", err)
			}
		})
	}
}

func TestRecordLeftoverPolicy(t *testing.T) {
	t.Run("strict standard counter", func(t *testing.T) {
		typ, body := fixtureBody(t, 1302)
		_, err := DecodeRecord(typ, append(body, 0xFF))
		var structErr *StructuralDecodeError
		if !errors.As(err, &structErr) || structErr.Leftover != 1 {
			t.Errorf("error = %v, want 1 leftover byte", err)
		}
	})

	t.Run("strict modem", func(t *testing.T) {
		typ, body := fixtureBody(t, 1823)
		if _, err := DecodeRecord(typ, append(body, 0xFF)); err == nil {
			t.Error("surplus byte should fail")
		}
	})

	t.Run("lenient analog", func(t *testing.T) {
		typ, body := fixtureBody(t, 270)
		rec, err := DecodeRecord(typ, append(body, 0xAA, 0xBB))
		if err != nil {
			t.Fatal(err)
		}
		if got := rec.(*AnalogQuantity).Trailing; !bytes.Equal(got, []byte{0xAA, 0xBB}) {
			t.Errorf("Trailing = %X", got)
		}
	})

	t.Run("short body", func(t *testing.T) {
		typ, body := fixtureBody(t, 270)
		_, err := DecodeRecord(typ, body[:20])
		var structErr *StructuralDecodeError
		if !errors.As(err, &structErr) || structErr.Field != "name" {
			t.Errorf("error = %v, want short name field", err)
		}
	})

	t.Run("optional decimals", func(t *testing.T) {
		typ, body := fixtureBody(t, 1302)
		rec, err := DecodeRecord(typ, body[:len(body)-1])
		if err != nil {
			t.Fatal(err)
		}
		if rec.(*StandardCounter).Decimals != nil {
			t.Error("Decimals should be nil when absent")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		var unknown *UnknownParameterTypeError
		if _, err := DecodeRecord(ObjectType(200), nil); !errors.As(err, &unknown) {
			t.Errorf("error = %v", err)
		}
	})
}

func TestObjectTypes(t *testing.T) {
	types := ObjectTypes()
	if len(types) != 36 {
		t.Errorf("ObjectTypes() has %d entries, want 36", len(types))
	}
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Fatalf("ObjectTypes() not sorted at %d", i)
		}
	}
	if ObjectModem.String() != "MODEM" || ObjectType(99).String() != "OBJECT_99" {
		t.Errorf("String() = %s / %s", ObjectModem, ObjectType(99))
	}
	if ObjectType(99).Known() || !ObjectSetPoint.Known() {
		t.Error("Known() mismatch")
	}
	if ObjectStandardCounter.ValueLength() != 8 || ObjectBinary.ValueLength() != 0 {
		t.Error("ValueLength() mismatch")
	}
}

func TestFormatRecord(t *testing.T) {
	records := decodeFixture(t)
	got := FormatRecord(records[1])
	for _, want := range []string{"ANALOG_MEASURAND", "Pressure p", "[bar]", "decimals=2"} {
		if !bytes.Contains([]byte(got), []byte(want)) {
			t.Errorf("FormatRecord() = %q, missing %q", got, want)
		}
	}
	if got := FormatRecord(records[0]); !bytes.Contains([]byte(got), []byte("ELCOR_PLUS")) {
		t.Errorf("FormatRecord(system) = %q", got)
	}
}
