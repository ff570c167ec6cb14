// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// FormatFrame formats a frame header into a human-readable line
func FormatFrame(f *Frame) string {
	kind := "REQUEST"
	if f.IsResponse() {
		kind = "RESPONSE"
	}
	if f.Encrypted() {
		kind = "ENCRYPTED_" + kind
	}
	return fmt.Sprintf("[%s] %s %s (0x%02X) dst=%s src=%s len=%d",
		f.Timestamp().Format("15:04:05.000"), kind, f.Service, uint8(f.Service),
		f.Destination, f.Source, len(f.Data))
}

// FormatDeviceTime renders a device timestamp with its DST flags
func FormatDeviceTime(t DeviceTime) string {
	s := t.Time.Format("2006-01-02 15:04:05")
	switch {
	case t.IsDST:
		s += " DST"
	case t.SupportsDST:
		s += " (DST capable)"
	}
	return s
}

// FormatResponse formats a decoded response
func FormatResponse(resp Response) string {
	var b strings.Builder
	switch r := resp.(type) {
	case *ReadTimeResponse:
		fmt.Fprintf(&b, "Device time: %s\n", FormatDeviceTime(r.Time))
		if len(r.DataAccessResult) > 0 {
			fmt.Fprintf(&b, "  Data access: 0x%02X\n", r.DataAccessResult[0])
		}
		if len(r.Extra) > 0 {
			fmt.Fprintf(&b, "  Extra:       %s\n", hex.EncodeToString(r.Extra))
		}
	case *WriteTimeResponse:
		b.WriteString("Device time written\n")
	case *ReadValuesResponse:
		fmt.Fprintf(&b, "Values at %s\n", FormatDeviceTime(r.Time))
		fmt.Fprintf(&b, "  Data access:    0x%02X\n", r.DataAccess)
		fmt.Fprintf(&b, "  Status:         %s\n", hex.EncodeToString(r.Status))
		fmt.Fprintf(&b, "  Summary status: %s\n", hex.EncodeToString(r.SummaryStatus))
		fmt.Fprintf(&b, "  Parameter CRC:  %s\n", hex.EncodeToString(r.ParameterCRC))
		fmt.Fprintf(&b, "  Values (%d bytes): %s\n", len(r.Values), hex.EncodeToString(r.Values))
	case *ReadParametersResponse:
		fmt.Fprintf(&b, "Parameters page: object %d, %d objects, end=%t, %d bytes\n",
			r.ObjectNumber, r.ObjectAmount, r.IsEnd, len(r.Data))
	case *ArchiveResponse:
		fmt.Fprintf(&b, "Archive %s: oldest record %d, %d bytes\n", r.Archive, r.OldestRecordID, len(r.Data))
	default:
		fmt.Fprintf(&b, "%s\n", resp.Service())
	}
	return b.String()
}

// FormatRecord formats a record into one summary line
func FormatRecord(rec Record) string {
	line := fmt.Sprintf("%-28s (%3d) %q", rec.ObjectType(), uint8(rec.ObjectType()), rec.Label())

	var unit string
	var decimals *uint8
	switch r := rec.(type) {
	case *SystemParameters:
		return line + fmt.Sprintf(" %s serial=%d firmware=%s", r.DeviceType, r.SerialNumber, r.FirmwareVersion)
	case *AnalogQuantity:
		unit, decimals = r.Unit, r.Decimals
	case *Counter:
		unit, decimals = r.Unit, r.Decimals
	case *StandardCounter:
		unit, decimals = r.Unit, r.Decimals
	case *FlowRate:
		unit, decimals = r.Unit, r.Decimals
	case *StandardFlowRate:
		unit, decimals = r.Unit, r.Decimals
	case *ErrorCounter:
		unit, decimals = r.Unit, r.Decimals
	case *ErrorStandardCounter:
		unit, decimals = r.Unit, r.Decimals
	case *TariffCounter:
		unit, decimals = r.Unit, r.Decimals
	case *BaseTariffCounter:
		unit, decimals = r.Unit, r.Decimals
	case *DifferenceCounter:
		unit, decimals = r.Unit, r.Decimals
	case *Energy:
		unit, decimals = r.Unit, r.Decimals
	case *AnalogStatistics:
		unit, decimals = r.Unit, r.Decimals
	case *CounterStatistics:
		unit = r.Unit
	case *Compressibility:
		decimals = r.Decimals
	case *ConversionCoefficient:
		decimals = r.Decimals
	}
	if unit != "" {
		line += " [" + unit + "]"
	}
	if decimals != nil {
		line += fmt.Sprintf(" decimals=%d", *decimals)
	}
	return line
}

// FormatCall formats a device call to dispatching
func FormatCall(c *Call) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Call from station %q (v%d, %s)\n", c.StationID, c.Version, c.Protocol)
	fmt.Fprintf(&b, "  GUID:            %s\n", hex.EncodeToString(c.GUID))
	fmt.Fprintf(&b, "  SIM / modem:     %s / %s\n", c.SIMCardID, c.ModemID)
	fmt.Fprintf(&b, "  Address:         %d/%d\n", c.Address1, c.Address2)
	fmt.Fprintf(&b, "  Signal:          %d\n", c.SignalStrength)
	fmt.Fprintf(&b, "  Connections:     %d (last %s)\n", c.Connections, c.LastConnectionTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "  Errors:          %d (last %s)\n", c.ConnectionErrors, c.LastConnectionErrorTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "  Resets:          %d (last %s)\n", c.Resets, c.LastResetTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "  Serial / IP:     %s / %s\n", c.SerialNumber, c.IPAddress)
	fmt.Fprintf(&b, "  Battery:         capacity %d, voltage %d\n", c.ModemBatteryCapacity, c.ModemBatteryVoltage)
	fmt.Fprintf(&b, "  Firmware:        %s\n", c.FirmwareVersion)
	return b.String()
}
