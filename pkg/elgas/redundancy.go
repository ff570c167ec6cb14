// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

// Every frame carries three single-byte redundancy checks computed over the
// unescaped bytes between STX and the LRC byte.

// CalculateLRC returns the XOR of all bytes.
func CalculateLRC(data []byte) byte {
	var lrc byte
	for _, b := range data {
		lrc ^= b
	}
	return lrc
}

// CalculateChecksum returns the sum of all bytes modulo 256.
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// CalculateDRC rotates the accumulator left by one bit, folding the carry
// back into bit 0, then XORs in the next byte.
func CalculateDRC(data []byte) byte {
	var drc uint16
	for _, b := range data {
		drc <<= 1
		if drc&0x100 != 0 {
			drc++
		}
		drc &= 0xFF
		drc ^= uint16(b)
	}
	return byte(drc)
}

// crc16Table is the reflected 0xA001 table used by the cipher envelope.
var crc16Table = makeCRC16Table(0xA001)

func makeCRC16Table(poly uint16) [256]uint16 {
	var table [256]uint16
	for i := range table {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

// CalculateCRC16 computes the cipher envelope CRC: reflected poly 0xA001,
// init 0xFFFF, with the result bytes swapped so that writing it big-endian
// puts the low byte first.
func CalculateCRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = (crc >> 8) ^ crc16Table[byte(crc)^b]
	}
	return crc<<8 | crc>>8
}
