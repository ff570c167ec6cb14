// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
)

func TestRecordsJSONRoundTrip(t *testing.T) {
	records := decodeFixture(t)

	data, err := MarshalRecordsJSON(records)
	if err != nil {
		t.Fatalf("MarshalRecordsJSON() error = %v", err)
	}
	back, err := UnmarshalRecordsJSON(data)
	if err != nil {
		t.Fatalf("UnmarshalRecordsJSON() error = %v", err)
	}
	if len(back) != len(records) {
		t.Fatalf("round trip gave %d records, want %d", len(back), len(records))
	}
	for i := range records {
		if !reflect.DeepEqual(records[i], back[i]) {
			t.Errorf("record %d (%s) differs after round trip:\n got %+v\nwant %+v", i, records[i].ObjectType(), back[i], records[i])
		}
	}
}

func TestRecordsJSONShape(t *testing.T) {
	data, err := MarshalRecordsJSON(decodeFixture(t)[:2])
	if err != nil {
		t.Fatal(err)
	}

	var objs []map[string]any
	if err := json.Unmarshal(data, &objs); err != nil {
		t.Fatal(err)
	}
	if objs[0]["parameter_type"] != float64(0) {
		t.Errorf("parameter_type = %v", objs[0]["parameter_type"])
	}
	sys := objs[0]["data"].(map[string]any)
	if sys["device_type"] != "ELCOR_PLUS" || sys["certification_variant"] != "CMI_MID" {
		t.Errorf("enum names = %v / %v", sys["device_type"], sys["certification_variant"])
	}
	analog := objs[1]["data"].(map[string]any)
	if analog["name"] != "Pressure p" || analog["unit"] != "bar" {
		t.Errorf("analog = %v", analog)
	}
	if _, ok := analog["in_data_archive"]; !ok {
		t.Error("embedded archive flags should be flattened")
	}
	if _, ok := analog["trailing"]; ok {
		t.Error("empty trailing should be omitted")
	}
}

func TestRecordsCBORRoundTrip(t *testing.T) {
	records := decodeFixture(t)

	data, err := MarshalRecordsCBOR(records)
	if err != nil {
		t.Fatalf("MarshalRecordsCBOR() error = %v", err)
	}
	again, err := MarshalRecordsCBOR(records)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("CBOR export is not deterministic")
	}

	back, err := UnmarshalRecordsCBOR(data)
	if err != nil {
		t.Fatalf("UnmarshalRecordsCBOR() error = %v", err)
	}
	if !reflect.DeepEqual(records, back) {
		t.Error("records differ after CBOR round trip")
	}
}

func TestUnmarshalRecordsUnknownType(t *testing.T) {
	if _, err := UnmarshalRecordsJSON([]byte(`[{"parameter_type": 99, "data": {}}]`)); err == nil {
		t.Error("unknown parameter type should fail")
	}
	if _, err := UnmarshalRecordsJSON([]byte(`{`)); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestEnumTextRoundTrip(t *testing.T) {
	for _, d := range []DeviceType{DeviceElcor, DeviceElcorPlus, DeviceType(7)} {
		text, err := d.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back DeviceType
		if err := back.UnmarshalText(text); err != nil || back != d {
			t.Errorf("DeviceType %q round trip = %d, %v", text, back, err)
		}
	}

	var f CompressibilityFormula
	if err := f.UnmarshalText([]byte("NOT_A_FORMULA")); err == nil {
		t.Error("unknown enum name should fail")
	}
}
