// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package elgas provides a master-side Go implementation of the ELGAS protocol
// spoken by ELCOR gas-volume correctors.
//
// The package covers frame encoding/decoding with character escaping and the
// LRC/checksum/DRC redundancy bytes, the optional AES-128-CBC cipher envelope,
// application PDUs for the supported services, the self-describing SCADA
// parameter record stream, and a half-duplex Connection that ties them
// together behind a request/response session state machine.
package elgas

import (
	"fmt"
	"strings"
)

// Protocol framing bytes
const (
	StartByte = 0x02
	FrameID   = 0xFE
	EndByte   = 0x0D
	EscByte   = 0x1B
)

// Escape sequences (byte following EscByte)
const (
	escEnd      = 0x0E // 0x0D
	escEsc      = 0x1B // 0x1B
	escReserved = 0x0F // 0x8D
)

// ReservedByte is the third byte value the escaping hides on the wire.
const ReservedByte = 0x8D

// Frame type bytes
const (
	TypeRequest           = 0x84
	TypeEncryptedRequest  = 0x85
	TypeResponse          = 0x86
	TypeEncryptedResponse = 0x87
)

// Frame size constants
const (
	// FrameOverhead is what the length field counts besides the data:
	// ID, type, service, length, addresses, LRC, checksum, DRC and END.
	FrameOverhead = 15
	// MinFrameSize is the size of an unescaped frame without data, STX included.
	MinFrameSize = FrameOverhead + 1
)

// Password constants
const (
	PasswordLength       = 6
	PaddedPasswordLength = 10
	MinPasswordID        = 801
	MaxPasswordID        = 849
)

// DefaultParameterBufferLength is the buffer size announced when paging
// through SCADA parameters.
const DefaultParameterBufferLength = 1024

// Service identifies an application service (the frame's fourth byte).
type Service uint8

// Service numbers
const (
	ServiceReadValues               Service = 0x64
	ServiceWriteValues              Service = 0x65
	ServiceSearchArchivePointersOld Service = 0x67
	ServiceReadArchivesOld          Service = 0x68
	ServiceReadDeviceTime           Service = 0x6C
	ServiceReadScadaParameters      Service = 0x70
	ServiceWriteDeviceTime          Service = 0x71
	ServiceGroupWriteValues         Service = 0x77
	ServiceGroupReadValues          Service = 0x79
	ServiceSearchArchivePointers    Service = 0x7B
	ServiceReadArchives             Service = 0x7C
	ServiceReadArchivesByDate       Service = 0x7D
	ServiceCall                     Service = 0x87
	ServiceReadArchivesByDateOld    Service = 0x91
)

var serviceNames = map[Service]string{
	ServiceReadValues:               "READ_VALUES",
	ServiceWriteValues:              "WRITE_VALUES",
	ServiceSearchArchivePointersOld: "SEARCH_ARCHIVE_POINTERS_OLD",
	ServiceReadArchivesOld:          "READ_ARCHIVES_OLD",
	ServiceReadDeviceTime:           "READ_DEVICE_TIME",
	ServiceReadScadaParameters:      "READ_SCADA_PARAMETERS",
	ServiceWriteDeviceTime:          "WRITE_DEVICE_TIME",
	ServiceGroupWriteValues:         "GROUP_WRITE_VALUES",
	ServiceGroupReadValues:          "GROUP_READ_VALUES",
	ServiceSearchArchivePointers:    "SEARCH_ARCHIVE_POINTERS",
	ServiceReadArchives:             "READ_ARCHIVES",
	ServiceReadArchivesByDate:       "READ_ARCHIVES_BY_DATE",
	ServiceCall:                     "CALL",
	ServiceReadArchivesByDateOld:    "READ_ARCHIVES_BY_DATE_OLD",
}

func (s Service) String() string {
	if name, ok := serviceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SERVICE_0x%02X", uint8(s))
}

// Archive selects one of the device's circular logs.
type Archive uint8

// Archive values
const (
	ArchiveExtreme Archive = iota
	ArchiveData
	ArchiveBinary
	ArchiveDaily
	ArchiveMonthly
	ArchiveSetting
	ArchiveFast1
	ArchiveFast2
	ArchiveStatus
	ArchiveBilling
	ArchiveGasComposition
)

var archiveNames = []string{
	"EXTREME", "DATA", "BINARY", "DAILY", "MONTHLY", "SETTING",
	"FAST_1", "FAST_2", "STATUS", "BILLING", "GAS_COMPOSITION",
}

func (a Archive) String() string {
	if int(a) < len(archiveNames) {
		return archiveNames[a]
	}
	return fmt.Sprintf("ARCHIVE_%d", uint8(a))
}

// ParseArchive returns the archive for a name such as "daily" or "FAST_1".
func ParseArchive(name string) (Archive, error) {
	upper := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	for i, n := range archiveNames {
		if n == upper {
			return Archive(i), nil
		}
	}
	return 0, fmt.Errorf("unknown archive %q", name)
}

// KeyID selects which provisioned AES key encrypted a payload.
type KeyID uint8

// Key id values
const (
	KeyFactory       KeyID = 1
	KeyTemporary     KeyID = 2
	KeyAdministrator KeyID = 3
	KeyMaintenance   KeyID = 4
	KeyUser1         KeyID = 5
	KeyUser2         KeyID = 6
	KeyUser3         KeyID = 7
)

var keyNames = map[KeyID]string{
	KeyFactory:       "FACTORY",
	KeyTemporary:     "TEMPORARY",
	KeyAdministrator: "ADMINISTRATOR",
	KeyMaintenance:   "MAINTENANCE",
	KeyUser1:         "USER_1",
	KeyUser2:         "USER_2",
	KeyUser3:         "USER_3",
}

// Valid reports whether k is one of the known key ids.
func (k KeyID) Valid() bool {
	_, ok := keyNames[k]
	return ok
}

func (k KeyID) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KEY_%d", uint8(k))
}

// ParseKeyID accepts a key name ("administrator", "USER_1") or its number.
func ParseKeyID(s string) (KeyID, error) {
	upper := strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
	for id, name := range keyNames {
		if name == upper {
			return id, nil
		}
	}
	var n uint8
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && KeyID(n).Valid() {
		return KeyID(n), nil
	}
	return 0, fmt.Errorf("unknown key id %q", s)
}
