// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// PDU is one application message, request or response
type PDU interface {
	Service() Service
}

// Request is a PDU the client can encode
type Request interface {
	PDU
	Encode() ([]byte, error)
}

// Response is a PDU decoded from a device frame
type Response interface {
	PDU
	isResponse()
}

const passwordFiller = "abcdefghijklmnopqrstuvxyzABCDEFGHIJKLMNOPQRSTUVXYZ0123456789"

// writeTimeSyncOnly asks the device to only synchronize its clock
const writeTimeSyncOnly = 0b00000100

// EncodePassword packs a password of at most six Latin-1 characters into
// the ten bytes the device expects. Short passwords are NUL padded to six
// and four insignificant filler characters follow.
func EncodePassword(password string) ([]byte, error) {
	out := make([]byte, 0, PaddedPasswordLength)
	for _, r := range password {
		if r > 0xFF {
			return nil, fmt.Errorf("password character %q is not Latin-1", r)
		}
		out = append(out, byte(r))
	}
	if len(out) > PasswordLength {
		return nil, fmt.Errorf("password longer than %d characters", PasswordLength)
	}
	for len(out) < PasswordLength {
		out = append(out, 0x00)
	}
	for len(out) < PaddedPasswordLength {
		out = append(out, passwordFiller[rand.Intn(len(passwordFiller))])
	}
	return out, nil
}

// ============================================================================
// Requests
// ============================================================================

// ReadValuesRequest asks for the instantaneous values
type ReadValuesRequest struct {
	Password string
}

func (*ReadValuesRequest) Service() Service { return ServiceReadValues }

// Encode implements Request
func (r *ReadValuesRequest) Encode() ([]byte, error) {
	return EncodePassword(r.Password)
}

// ReadTimeRequest asks for the device clock. It carries no data.
type ReadTimeRequest struct{}

func (*ReadTimeRequest) Service() Service { return ServiceReadDeviceTime }

// Encode implements Request
func (*ReadTimeRequest) Encode() ([]byte, error) {
	return []byte{}, nil
}

// WriteTimeRequest sets the device clock
type WriteTimeRequest struct {
	Password string
	Time     time.Time
}

func (*WriteTimeRequest) Service() Service { return ServiceWriteDeviceTime }

// Encode implements Request
func (r *WriteTimeRequest) Encode() ([]byte, error) {
	out, err := EncodePassword(r.Password)
	if err != nil {
		return nil, err
	}
	bcd, err := EncodeBCDTime(r.Time)
	if err != nil {
		return nil, err
	}
	out = append(out, bcd...)
	return append(out, writeTimeSyncOnly), nil
}

// ReadParametersRequest asks for one page of the parameter stream starting
// at object ObjectCount
type ReadParametersRequest struct {
	Password     string
	ObjectCount  uint16
	BufferLength uint16
}

func (*ReadParametersRequest) Service() Service { return ServiceReadScadaParameters }

// Encode implements Request
func (r *ReadParametersRequest) Encode() ([]byte, error) {
	out, err := EncodePassword(r.Password)
	if err != nil {
		return nil, err
	}
	out = binary.LittleEndian.AppendUint16(out, r.ObjectCount)
	return binary.LittleEndian.AppendUint16(out, r.BufferLength), nil
}

// ReadArchiveRequest reads Amount records starting at a record id
type ReadArchiveRequest struct {
	Password       string
	Archive        Archive
	OldestRecordID uint32
	Amount         uint16
}

func (*ReadArchiveRequest) Service() Service { return ServiceReadArchives }

// Encode implements Request
func (r *ReadArchiveRequest) Encode() ([]byte, error) {
	out, err := EncodePassword(r.Password)
	if err != nil {
		return nil, err
	}
	out = append(out, byte(r.Archive))
	out = binary.LittleEndian.AppendUint32(out, r.OldestRecordID)
	return binary.LittleEndian.AppendUint16(out, r.Amount), nil
}

// ReadArchiveByTimeRequest reads Amount records starting at a timestamp
type ReadArchiveByTimeRequest struct {
	Password   string
	Archive    Archive
	Amount     uint16
	OldestTime time.Time
}

func (*ReadArchiveByTimeRequest) Service() Service { return ServiceReadArchivesByDate }

// Encode implements Request
func (r *ReadArchiveByTimeRequest) Encode() ([]byte, error) {
	out, err := EncodePassword(r.Password)
	if err != nil {
		return nil, err
	}
	bcd, err := EncodeBCDTime(r.OldestTime)
	if err != nil {
		return nil, err
	}
	out = append(out, byte(r.Archive))
	out = binary.LittleEndian.AppendUint16(out, r.Amount)
	return append(out, bcd...), nil
}

// ============================================================================
// Responses
// ============================================================================

// ReadValuesResponse holds the instantaneous values. Values is the firmware
// dependent block between the timestamp and the trailing status fields.
type ReadValuesResponse struct {
	Time          DeviceTime
	Values        []byte
	DataAccess    uint8
	Status        []byte
	SummaryStatus []byte
	ParameterCRC  []byte
}

func (*ReadValuesResponse) Service() Service { return ServiceReadValues }
func (*ReadValuesResponse) isResponse() {}

// Fixed-size fields at the end of a ReadValues response
const (
	valuesCRCSize     = 2
	valuesStatusSize  = 8
	valuesTrailerSize = 1 + 2*valuesStatusSize + valuesCRCSize
)

func decodeReadValuesResponse(data []byte) (Response, error) {
	if len(data) < 6+valuesTrailerSize {
		return nil, &StructuralDecodeError{Record: "ReadValuesResponse", Field: "trailer", Need: 6 + valuesTrailerSize, Have: len(data)}
	}
	t, err := DecodeBCDTime(data[:6])
	if err != nil {
		return nil, err
	}

	end := len(data)
	crc := data[end-valuesCRCSize:]
	end -= valuesCRCSize
	summary := data[end-valuesStatusSize : end]
	end -= valuesStatusSize
	status := data[end-valuesStatusSize : end]
	end -= valuesStatusSize
	access := data[end-1]
	end--

	return &ReadValuesResponse{
		Time:          t,
		Values:        clone(data[6:end]),
		DataAccess:    access,
		Status:        clone(status),
		SummaryStatus: clone(summary),
		ParameterCRC:  clone(crc),
	}, nil
}

// ReadTimeResponse holds the device clock. Some firmware appends internal
// data after the access byte, kept in Extra. The trailing two bytes are a
// CRC that is not verified.
type ReadTimeResponse struct {
	Time             DeviceTime
	DataAccessResult []byte
	Extra            []byte
}

func (*ReadTimeResponse) Service() Service { return ServiceReadDeviceTime }
func (*ReadTimeResponse) isResponse() {}

func decodeReadTimeResponse(data []byte) (Response, error) {
	if len(data) < 6 {
		return nil, &StructuralDecodeError{Record: "ReadTimeResponse", Field: "time", Need: 6, Have: len(data)}
	}
	t, err := DecodeBCDTime(data[:6])
	if err != nil {
		return nil, err
	}
	resp := &ReadTimeResponse{Time: t, DataAccessResult: []byte{}, Extra: []byte{}}
	if len(data) > 6 {
		resp.DataAccessResult = clone(data[6:7])
	}
	if len(data) > 9 {
		resp.Extra = clone(data[7 : len(data)-2])
	}
	return resp, nil
}

// WriteTimeResponse acknowledges a WriteTimeRequest
type WriteTimeResponse struct{}

func (*WriteTimeResponse) Service() Service { return ServiceWriteDeviceTime }
func (*WriteTimeResponse) isResponse() {}

func decodeWriteTimeResponse([]byte) (Response, error) {
	return &WriteTimeResponse{}, nil
}

// ReadParametersResponse is one page of the parameter stream
type ReadParametersResponse struct {
	ObjectNumber uint16
	ObjectAmount uint16
	IsEnd        bool
	Data         []byte
}

func (*ReadParametersResponse) Service() Service { return ServiceReadScadaParameters }
func (*ReadParametersResponse) isResponse() {}

func decodeReadParametersResponse(data []byte) (Response, error) {
	r := newReader("ReadParametersResponse", data)
	resp := &ReadParametersResponse{
		ObjectNumber: r.u16("object_number"),
		ObjectAmount: r.u16("object_amount"),
		IsEnd:        r.u8("is_end") != 0,
	}
	resp.Data = r.rest()
	if err := r.done(); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []byte{}
	}
	return resp, nil
}

// ArchiveResponse carries raw archive records. Both archive services answer
// with this layout; ByTime tells which one produced it.
type ArchiveResponse struct {
	Archive        Archive
	OldestRecordID uint32
	Data           []byte
	ByTime         bool
}

func (r *ArchiveResponse) Service() Service {
	if r.ByTime {
		return ServiceReadArchivesByDate
	}
	return ServiceReadArchives
}
func (*ArchiveResponse) isResponse() {}

func decodeArchiveResponse(byTime bool) func([]byte) (Response, error) {
	return func(data []byte) (Response, error) {
		r := newReader("ArchiveResponse", data)
		resp := &ArchiveResponse{
			Archive:        Archive(r.u8("archive")),
			OldestRecordID: r.u24("oldest_record_id"),
			ByTime:         byTime,
		}
		// A reply without records may end before the reserved byte
		if r.remaining() > 0 {
			r.take("reserved", 1)
		}
		resp.Data = r.rest()
		if err := r.done(); err != nil {
			return nil, err
		}
		if resp.Data == nil {
			resp.Data = []byte{}
		}
		return resp, nil
	}
}

var responseDecoders = map[Service]func([]byte) (Response, error){
	ServiceReadValues:          decodeReadValuesResponse,
	ServiceReadDeviceTime:      decodeReadTimeResponse,
	ServiceWriteDeviceTime:     decodeWriteTimeResponse,
	ServiceReadScadaParameters: decodeReadParametersResponse,
	ServiceReadArchives:        decodeArchiveResponse(false),
	ServiceReadArchivesByDate:  decodeArchiveResponse(true),
}

// DecodeResponse decodes the application data of a response frame. A
// single byte payload with any bit set is a device rejection and is
// returned as a *DeviceError.
func DecodeResponse(service Service, data []byte) (Response, error) {
	if len(data) == 1 {
		if devErr := ParseDeviceError(data[0]); devErr != nil {
			return nil, devErr
		}
	}
	decode, ok := responseDecoders[service]
	if !ok {
		return nil, &UnsupportedServiceError{Service: service}
	}
	resp, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", service, err)
	}
	return resp, nil
}

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}
