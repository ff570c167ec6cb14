// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

// decodedFrame is a frame seen on the wire, decoded as far as possible
type decodedFrame struct {
	Frame    *elgas.Frame
	Response elgas.Response
	Call     *elgas.Call
}

// String renders the frame header followed by its decoded content
func (d *decodedFrame) String() string {
	var b strings.Builder
	b.WriteString(elgas.FormatFrame(d.Frame))
	b.WriteByte('\n')
	switch {
	case d.Call != nil:
		b.WriteString(elgas.FormatCall(d.Call))
	case d.Response != nil:
		b.WriteString(elgas.FormatResponse(d.Response))
	case len(d.Frame.Data) > 0:
		fmt.Fprintf(&b, "  Data: %s\n", hex.EncodeToString(d.Frame.Data))
	}
	return b.String()
}

// parseHexFrame accepts hex with optional spaces, colons or a 0x prefix
func parseHexFrame(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex frame: %w", err)
	}
	return data, nil
}

// decodeWireFrame decodes one escaped frame in either direction. Request
// frames are passive captures of a master, or a Call from a device; their
// data is shown as hex unless it is a Call. Encrypted data is opened with
// cipher when one is given.
func decodeWireFrame(wire []byte, order elgas.AddressOrder, cipher *elgas.Cipher) (*decodedFrame, error) {
	raw, err := elgas.Unescape(wire)
	if err != nil {
		return nil, err
	}
	if len(raw) > 2 && (raw[2] == elgas.TypeRequest || raw[2] == elgas.TypeEncryptedRequest) {
		return decodeRequest(raw, order, cipher)
	}

	f, err := elgas.DecodeFrame(raw, order)
	if err != nil {
		return nil, err
	}
	d := &decodedFrame{Frame: f}
	data, err := openData(f, cipher)
	if err != nil {
		return d, err
	}
	if d.Response, err = elgas.DecodeResponse(f.Service, data); err != nil {
		return d, err
	}
	return d, nil
}

func decodeRequest(raw []byte, order elgas.AddressOrder, cipher *elgas.Cipher) (*decodedFrame, error) {
	f, err := elgas.DecodeRequestFrame(raw, order)
	if err != nil {
		return nil, err
	}
	d := &decodedFrame{Frame: f}
	data, err := openData(f, cipher)
	if err != nil {
		return d, err
	}
	if f.Service == elgas.ServiceCall {
		if d.Call, err = elgas.DecodeCall(data); err != nil {
			return d, err
		}
	}
	return d, nil
}

// openData decrypts the frame data in place when it is a cipher envelope
func openData(f *elgas.Frame, cipher *elgas.Cipher) ([]byte, error) {
	if !f.Encrypted() {
		return f.Data, nil
	}
	if cipher == nil {
		return nil, &elgas.CipherError{Message: "encrypted frame but no key is configured"}
	}
	data, err := cipher.Decrypt(f.Data)
	if err != nil {
		return nil, err
	}
	f.Data = data
	return data, nil
}
