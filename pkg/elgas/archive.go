// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// ArchiveColumn locates one quantity inside a data archive record
type ArchiveColumn struct {
	Name    string
	Unit    string
	Type    ObjectType
	Address int
	Length  int
	Digit   float64
	Offset  float64
}

// DataArchiveColumns builds the data archive record layout from decoded
// parameters. Only quantities with a fixed value width take part.
func DataArchiveColumns(records []Record) []ArchiveColumn {
	var cols []ArchiveColumn
	for _, rec := range records {
		length := rec.ObjectType().ValueLength()
		if length == 0 {
			continue
		}
		col := ArchiveColumn{Name: rec.Label(), Type: rec.ObjectType(), Length: length, Digit: 1}
		switch v := rec.(type) {
		case *AnalogQuantity:
			col.Address = int(v.AddressInDataArchiveRecord)
			col.Unit = v.Unit
			col.Digit = float64(v.Digit)
			col.Offset = float64(v.Offset)
		case *Counter:
			col.Address = int(v.AddressInDataArchiveRecord)
			col.Unit = v.Unit
		case *StandardCounter:
			col.Address = int(v.AddressInDataArchiveRecord)
			col.Unit = v.Unit
		case *FlowRate:
			col.Address = int(v.AddressInDataArchiveRecord)
			col.Unit = v.Unit
		case *StandardFlowRate:
			col.Address = int(v.AddressInDataArchiveRecord)
			col.Unit = v.Unit
		case *ErrorCounter:
			col.Address = int(v.AddressInDataArchiveRecord)
			col.Unit = v.Unit
		case *ErrorStandardCounter:
			col.Address = int(v.AddressInDataArchiveRecord)
			col.Unit = v.Unit
		case *DifferenceCounter:
			col.Address = int(v.AddressInDataArchiveRecord)
			col.Unit = v.Unit
		case *ConversionCoefficient:
			col.Address = int(v.AddressInDataArchiveRecord)
		case *Compressibility:
			col.Address = int(v.AddressInDataArchiveRecord)
		case *Timer:
			col.Address = int(v.AddressInDataArchiveRecord)
		default:
			continue
		}
		cols = append(cols, col)
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Address < cols[j].Address })
	return cols
}

// Value reads the column out of one archive record. 8-byte values are
// float64 and 4-byte values float32. 2-byte values are raw readings
// scaled by Digit and shifted by Offset.
func (c ArchiveColumn) Value(record []byte) (float64, error) {
	if c.Address+c.Length > len(record) {
		return 0, &StructuralDecodeError{Record: "archive record", Field: c.Name, Need: c.Address + c.Length, Have: len(record)}
	}
	raw := record[c.Address : c.Address+c.Length]
	switch c.Length {
	case 8:
		return math.Float64frombits(binary.LittleEndian.Uint64(raw)), nil
	case 4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw))), nil
	case 2:
		return float64(binary.LittleEndian.Uint16(raw))*c.Digit + c.Offset, nil
	}
	return 0, fmt.Errorf("column %s: unsupported value length %d", c.Name, c.Length)
}

// SplitArchiveRecords cuts archive response data into fixed-length records
func SplitArchiveRecords(data []byte, recordLength int) ([][]byte, error) {
	if recordLength <= 0 {
		return nil, fmt.Errorf("invalid archive record length %d", recordLength)
	}
	if len(data)%recordLength != 0 {
		return nil, &StructuralDecodeError{Record: "archive data", Leftover: len(data) % recordLength}
	}
	out := make([][]byte, 0, len(data)/recordLength)
	for off := 0; off < len(data); off += recordLength {
		out = append(out, data[off:off+recordLength])
	}
	return out, nil
}
