// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

const fixturePath = "../pkg/elgas/testdata/params.bin"

func fixtureRecords(t *testing.T) []elgas.Record {
	t.Helper()
	records, err := loadRecordsFile(fixturePath)
	require.NoError(t, err)
	require.Len(t, records, 26)
	return records
}

func labels(records []elgas.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Label()
	}
	return out
}

func TestFilterRecords(t *testing.T) {
	records := fixtureRecords(t)

	tests := []struct {
		name   string
		types  []int
		label  string
		want   int
		labels []string
	}{
		{name: "no filter", want: 26},
		{name: "analog quantities", types: []int{30}, want: 6},
		{name: "binaries and windows", types: []int{31, 48}, want: 6},
		{name: "label", label: "VOLUME", labels: []string{"Primary volume Vm", "Base volume Vb"}},
		{name: "type and label", types: []int{33}, label: "volume", labels: []string{"Base volume Vb"}},
		{name: "no match", types: []int{77}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterRecords(records, tt.types, tt.label)
			if tt.labels != nil {
				assert.Equal(t, tt.labels, labels(got))
				return
			}
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSummarizeRecords(t *testing.T) {
	summary := summarizeRecords(fixtureRecords(t))

	require.NotEmpty(t, summary)
	assert.Equal(t, typeCount{Type: elgas.ObjectSystemParameters, Count: 1}, summary[0])
	assert.Equal(t, typeCount{Type: elgas.ObjectAnalogQuantity, Count: 6}, summary[1])
	assert.Equal(t, typeCount{Type: elgas.ObjectModem, Count: 1}, summary[len(summary)-1])

	total := 0
	for i, tc := range summary {
		total += tc.Count
		if i > 0 {
			assert.Less(t, uint8(summary[i-1].Type), uint8(tc.Type))
		}
	}
	assert.Equal(t, 26, total)
}

func TestRecordFilesRoundTrip(t *testing.T) {
	records := fixtureRecords(t)
	dir := t.TempDir()

	for _, format := range []string{formatJSON, formatCBOR} {
		t.Run(format, func(t *testing.T) {
			data, err := encodeRecords(records, format)
			require.NoError(t, err)
			path := filepath.Join(dir, "station."+format)
			require.NoError(t, os.WriteFile(path, data, 0o644))

			again, err := loadRecordsFile(path)
			require.NoError(t, err)
			assert.Equal(t, labels(records), labels(again))
		})
	}
}

func TestEncodeRecordsText(t *testing.T) {
	records := fixtureRecords(t)[:2]
	out, err := encodeRecords(records, formatText)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "  0  "))
	assert.True(t, strings.HasPrefix(lines[1], "  1  "))
	assert.Contains(t, lines[1], `"Pressure p"`)

	_, err = encodeRecords(records, "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestArchiveRecordLength(t *testing.T) {
	records := fixtureRecords(t)
	sys, ok := systemParameters(records)
	require.True(t, ok)

	n, err := archiveRecordLength(records, elgas.ArchiveData)
	require.NoError(t, err)
	assert.Equal(t, int(sys.DataArchiveRecordLength), n)

	n, err = archiveRecordLength(records, elgas.ArchiveDaily)
	require.NoError(t, err)
	assert.Equal(t, int(sys.DailyArchiveRecordLength), n)

	_, err = archiveRecordLength(records, elgas.ArchiveSetting)
	assert.ErrorContains(t, err, "--record-length")

	_, err = archiveRecordLength(records[1:], elgas.ArchiveData)
	assert.ErrorContains(t, err, "no system parameters")
}

func TestPrintArchive(t *testing.T) {
	records := fixtureRecords(t)
	length, err := archiveRecordLength(records, elgas.ArchiveData)
	require.NoError(t, err)

	var out bytes.Buffer
	resp := &elgas.ArchiveResponse{Archive: elgas.ArchiveData, Data: make([]byte, 2*length)}
	require.NoError(t, printArchive(&out, resp, records, 0))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	cols := elgas.DataArchiveColumns(records)
	require.NotEmpty(t, cols)
	assert.Contains(t, lines[0], cols[0].Name+"=")

	out.Reset()
	resp = &elgas.ArchiveResponse{Archive: elgas.ArchiveSetting, Data: []byte{1, 2, 3, 4, 5, 6}}
	require.NoError(t, printArchive(&out, resp, nil, 3))
	assert.Equal(t, "   0  010203\n   1  040506\n", out.String())

	resp.Data = []byte{1, 2, 3, 4}
	assert.Error(t, printArchive(&out, resp, nil, 3))

	out.Reset()
	resp.Data = nil
	require.NoError(t, printArchive(&out, resp, nil, 0))
	assert.Equal(t, "No records\n", out.String())
}

func TestArchiveRecordLengthFlagOverridesParameters(t *testing.T) {
	require.NoError(t, archiveCmd.Flags().Set("record-length", "3"))
	t.Cleanup(func() {
		archiveCmd.Flags().Set("record-length", "0")
		archiveCmd.Flags().Lookup("record-length").Changed = false
	})
	assert.Equal(t, 3, archiveRecordLengthFlag)

	var out bytes.Buffer
	resp := &elgas.ArchiveResponse{Archive: elgas.ArchiveData, Data: []byte{1, 2, 3, 4, 5, 6}}
	require.NoError(t, printArchive(&out, resp, nil, archiveRecordLengthFlag))
	assert.Equal(t, "   0  010203\n   1  040506\n", out.String())

	_, err := archiveRecordLength(nil, elgas.ArchiveData)
	assert.ErrorContains(t, err, "no system parameters")
}
