// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import "fmt"

// Escape hides END, ESC and 0x8D inside a frame that ends with END.
// The terminating END byte is left as is.
func Escape(frame []byte) ([]byte, error) {
	if len(frame) == 0 || frame[len(frame)-1] != EndByte {
		return nil, fmt.Errorf("frame does not end with 0x%02X", EndByte)
	}

	body := frame[:len(frame)-1]
	result := make([]byte, 0, len(frame)+len(frame)/8)
	for _, b := range body {
		switch b {
		case EscByte:
			result = append(result, EscByte, escEsc)
		case EndByte:
			result = append(result, EscByte, escEnd)
		case ReservedByte:
			result = append(result, EscByte, escReserved)
		default:
			result = append(result, b)
		}
	}
	return append(result, EndByte), nil
}

// Unescape reverses Escape in a single left-to-right pass, so a byte produced
// by one escape pair is never read as the start of another. An ESC followed by
// an unknown byte is passed through untouched.
func Unescape(wire []byte) ([]byte, error) {
	if len(wire) == 0 || wire[len(wire)-1] != EndByte {
		return nil, fmt.Errorf("data does not end with 0x%02X", EndByte)
	}

	body := wire[:len(wire)-1]
	result := make([]byte, 0, len(wire))
	for i := 0; i < len(body); i++ {
		b := body[i]
		if b != EscByte || i+1 >= len(body) {
			result = append(result, b)
			continue
		}

		next := body[i+1]
		i++
		switch next {
		case escEnd:
			result = append(result, EndByte)
		case escEsc:
			result = append(result, EscByte)
		case escReserved:
			result = append(result, ReservedByte)
		default:
			result = append(result, b, next)
		}
	}
	return append(result, EndByte), nil
}
