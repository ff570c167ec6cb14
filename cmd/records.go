// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahmetb/go-linq/v3"

	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

// Record file and output formats
const (
	formatText = "text"
	formatJSON = "json"
	formatCBOR = "cbor"
	formatRaw  = "raw"
)

// loadRecordsFile reads parameter records from a JSON or CBOR export, or
// from a raw parameter stream for any other extension
func loadRecordsFile(path string) ([]elgas.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return elgas.UnmarshalRecordsJSON(data)
	case ".cbor":
		return elgas.UnmarshalRecordsCBOR(data)
	}
	return elgas.DecodeParameters(data)
}

// filterRecords keeps records whose type is in types (when any are given)
// and whose label contains name, case-insensitively
func filterRecords(records []elgas.Record, types []int, name string) []elgas.Record {
	query := linq.From(records)
	if len(types) > 0 {
		query = query.Where(func(rec interface{}) bool {
			return linq.From(types).Contains(int(rec.(elgas.Record).ObjectType()))
		})
	}
	if name != "" {
		needle := strings.ToLower(name)
		query = query.Where(func(rec interface{}) bool {
			return strings.Contains(strings.ToLower(rec.(elgas.Record).Label()), needle)
		})
	}

	out := []elgas.Record{}
	query.ToSlice(&out)
	return out
}

// typeCount is one line of a parameter summary
type typeCount struct {
	Type  elgas.ObjectType
	Count int
}

// summarizeRecords counts records per object type, ordered by type
func summarizeRecords(records []elgas.Record) []typeCount {
	var out []typeCount
	linq.From(records).GroupBy(
		func(rec interface{}) interface{} {
			return rec.(elgas.Record).ObjectType()
		}, func(rec interface{}) interface{} {
			return rec
		}).OrderBy(
		func(group interface{}) interface{} {
			return uint8(group.(linq.Group).Key.(elgas.ObjectType))
		}).Select(
		func(group interface{}) interface{} {
			g := group.(linq.Group)
			return typeCount{Type: g.Key.(elgas.ObjectType), Count: len(g.Group)}
		}).ToSlice(&out)
	return out
}

// encodeRecords renders records in one of the export formats
func encodeRecords(records []elgas.Record, format string) ([]byte, error) {
	switch format {
	case formatJSON:
		data, err := elgas.MarshalRecordsJSON(records)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case formatCBOR:
		return elgas.MarshalRecordsCBOR(records)
	case formatText, "":
		var b strings.Builder
		for i, rec := range records {
			fmt.Fprintf(&b, "%3d  %s\n", i, elgas.FormatRecord(rec))
		}
		return []byte(b.String()), nil
	}
	return nil, fmt.Errorf("unknown format %q (use text, json, cbor or raw)", format)
}

// systemParameters returns the stream's SystemParameters record
func systemParameters(records []elgas.Record) (*elgas.SystemParameters, bool) {
	first := linq.From(records).FirstWith(func(rec interface{}) bool {
		_, ok := rec.(*elgas.SystemParameters)
		return ok
	})
	if first == nil {
		return nil, false
	}
	return first.(*elgas.SystemParameters), true
}

// archiveRecordLength looks up the record length the device announces for
// an archive
func archiveRecordLength(records []elgas.Record, archive elgas.Archive) (int, error) {
	sys, ok := systemParameters(records)
	if !ok {
		return 0, fmt.Errorf("no system parameters record")
	}
	var length uint16
	switch archive {
	case elgas.ArchiveData:
		length = sys.DataArchiveRecordLength
	case elgas.ArchiveBinary:
		length = sys.BinaryArchiveRecordLength
	case elgas.ArchiveDaily:
		length = sys.DailyArchiveRecordLength
	case elgas.ArchiveMonthly:
		length = sys.MonthlyArchiveRecordLength
	case elgas.ArchiveStatus:
		length = sys.StatusArchiveRecordLength
	case elgas.ArchiveBilling:
		length = sys.BillingArchiveRecordLength
	default:
		return 0, fmt.Errorf("record length of the %s archive is not announced, use --record-length", archive)
	}
	if length == 0 {
		return 0, fmt.Errorf("device announces no %s archive records", archive)
	}
	return int(length), nil
}
