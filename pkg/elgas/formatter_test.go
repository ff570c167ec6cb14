// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"strings"
	"testing"
	"time"
)

func TestFormatFrame(t *testing.T) {
	f, err := DecodeFrame(mustHex(t, "02FE866C17000000000200021033123005060C2D20D49B0D"), LittleEndian)
	if err != nil {
		t.Fatal(err)
	}
	got := FormatFrame(f)
	for _, want := range []string{"RESPONSE", "READ_DEVICE_TIME", "(0x6C)", "src=2/2", "len=8"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatFrame() = %q, missing %q", got, want)
		}
	}

	enc := FormatFrame(&Frame{Type: TypeEncryptedRequest, Service: ServiceReadValues})
	if !strings.Contains(enc, "ENCRYPTED_REQUEST") {
		t.Errorf("FormatFrame() = %q", enc)
	}
}

func TestFormatResponse(t *testing.T) {
	when := DeviceTime{Time: time.Date(2006, 5, 30, 12, 33, 10, 0, time.UTC), IsDST: true}

	tests := []struct {
		name string
		resp Response
		want []string
	}{
		{"time", &ReadTimeResponse{Time: when, DataAccessResult: []byte{0x0C}}, []string{"2006-05-30 12:33:10 DST", "0x0C"}},
		{"write time", &WriteTimeResponse{}, []string{"written"}},
		{"values", &ReadValuesResponse{Time: when, ParameterCRC: []byte{0x2D, 0x47}}, []string{"2d47"}},
		{"parameters", &ReadParametersResponse{ObjectNumber: 3, ObjectAmount: 26, IsEnd: true}, []string{"object 3", "26 objects", "end=true"}},
		{"archive", &ArchiveResponse{Archive: ArchiveDaily, OldestRecordID: 42}, []string{"DAILY", "42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatResponse(tt.resp)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("FormatResponse() = %q, missing %q", got, want)
				}
			}
		})
	}
}
