// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"fmt"
	"strconv"
	"time"
)

// CallProtocol is the protocol a calling device speaks
type CallProtocol uint8

const (
	CallProtocolElgas2 CallProtocol = 0
)

func (p CallProtocol) String() string {
	if p == CallProtocolElgas2 {
		return "ELGAS2"
	}
	return fmt.Sprintf("PROTOCOL_%d", uint8(p))
}

// callEpoch is the origin of the seconds counters in a Call
var callEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Call is the registration a device sends to dispatching when it wakes up.
// Counters of seconds since 2000-01-01 are converted to times.
type Call struct {
	Length                  uint16
	Version                 uint8
	GUID                    []byte
	StationID               string
	SIMCardID               string
	ModemID                 string
	Protocol                CallProtocol
	Address1                uint16
	Address2                uint8
	SignalStrength          uint8
	Connections             uint32
	LastConnectionTime      time.Time
	ConnectionErrors        uint32
	LastConnectionErrorTime time.Time
	Resets                  uint32
	LastResetTime           time.Time
	TCPData                 uint32
	AllData                 uint32
	SerialNumber            string
	IPAddress               string
	LastModemErrorTime      time.Time
	LastModemError          uint8
	ModemBatteryCapacity    uint16
	ModemBatteryVoltage     uint16
	FirmwareVersion         string
}

func (*Call) Service() Service { return ServiceCall }

// DecodeCall decodes the application data of a Call request frame
func DecodeCall(data []byte) (*Call, error) {
	r := newReader("Call", data)
	c := &Call{
		Length:    r.u16("length"),
		Version:   r.u8("version"),
		GUID:      r.bytes("guid", 16),
		StationID: r.name("station_id", 17),
		SIMCardID: DecodeBCDNumber(r.take("sim_card_id", 10)),
		ModemID:   DecodeBCDNumber(r.take("modem_id", 8)),
		Protocol:  CallProtocol(r.u8("protocol")),
		Address1:  r.u16("address_1"),
		Address2:  r.u8("address_2"),
	}
	c.SignalStrength = r.u8("signal_strength")
	c.Connections = r.u32("connections")
	c.LastConnectionTime = callTime(r.u32("last_connection_time"))
	c.ConnectionErrors = r.u32("connection_errors")
	c.LastConnectionErrorTime = callTime(r.u32("last_connection_error_time"))
	c.Resets = r.u32("resets")
	c.LastResetTime = callTime(r.u32("last_reset_time"))
	c.TCPData = r.u32("tcp_data")
	c.AllData = r.u32("all_data")
	c.SerialNumber = strconv.FormatUint(uint64(r.u32("serial_number")), 10)
	c.IPAddress = ipv4(r.take("ip_address", 4))
	c.LastModemErrorTime = callTime(r.u32("last_modem_error_time"))
	c.LastModemError = r.u8("last_modem_error")
	c.ModemBatteryCapacity = r.u16("modem_battery_capacity")
	c.ModemBatteryVoltage = r.u16("modem_battery_voltage")
	c.FirmwareVersion = r.name("firmware_version", 33)
	if err := r.done(); err != nil {
		return nil, err
	}
	return c, nil
}

// DecodeCallFrame decodes a complete unescaped Call frame
func DecodeCallFrame(raw []byte, order AddressOrder) (*Frame, *Call, error) {
	f, err := DecodeRequestFrame(raw, order)
	if err != nil {
		return nil, nil, err
	}
	if f.Service != ServiceCall {
		return nil, nil, fmt.Errorf("frame carries %s, not a call", f.Service)
	}
	c, err := DecodeCall(f.Data)
	if err != nil {
		return nil, nil, err
	}
	return f, c, nil
}

func callTime(seconds uint32) time.Time {
	return callEpoch.Add(time.Duration(seconds) * time.Second)
}
