// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// Cipher envelope layout:
//
//	len:u16 LE | key_id:u8 | AES-CBC( plaintext | padding | crc16:u16 BE )
//
// The padding brings plaintext+padding+crc to a multiple of the AES block
// size. The CRC covers the unencrypted header, the plaintext and the padding.
const (
	envelopeHeaderSize = 3
	envelopeCRCSize    = 2
	KeySize            = 16
)

// Cipher holds the key material for one connection
type Cipher struct {
	Key   []byte
	KeyID KeyID

	// Padding source, crypto/rand when nil
	Rand io.Reader
}

// NewCipher validates the key and key id
func NewCipher(key []byte, keyID KeyID) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, &CipherError{Message: fmt.Sprintf("key must be %d bytes, got %d", KeySize, len(key))}
	}
	if !keyID.Valid() {
		return nil, &CipherError{Message: fmt.Sprintf("unknown key id %d", uint8(keyID))}
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &Cipher{Key: k, KeyID: keyID}, nil
}

// Encrypt wraps plaintext in an envelope
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	r := c.Rand
	if r == nil {
		r = rand.Reader
	}
	return encryptEnvelope(plaintext, c.Key, c.KeyID, r)
}

// Decrypt opens an envelope produced with the same key
func (c *Cipher) Decrypt(envelope []byte) ([]byte, error) {
	return DecryptEnvelope(envelope, c.Key, c.KeyID)
}

// EncryptEnvelope builds an envelope around plaintext with random padding.
// The device expects the key to double as the CBC IV.
func EncryptEnvelope(plaintext, key []byte, keyID KeyID) ([]byte, error) {
	return encryptEnvelope(plaintext, key, keyID, rand.Reader)
}

func encryptEnvelope(plaintext, key []byte, keyID KeyID, padding io.Reader) ([]byte, error) {
	if len(plaintext) > 0xFFFF {
		return nil, &CipherError{Message: fmt.Sprintf("plaintext too long: %d bytes", len(plaintext))}
	}
	if !keyID.Valid() {
		return nil, &CipherError{Message: fmt.Sprintf("unknown key id %d", uint8(keyID))}
	}
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}

	padLen := (aes.BlockSize - (len(plaintext)+envelopeCRCSize)%aes.BlockSize) % aes.BlockSize

	buf := make([]byte, 0, envelopeHeaderSize+len(plaintext)+padLen+envelopeCRCSize)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(plaintext)))
	buf = append(buf, byte(keyID))
	buf = append(buf, plaintext...)

	pad := make([]byte, padLen)
	if _, err := io.ReadFull(padding, pad); err != nil {
		return nil, &CipherError{Message: fmt.Sprintf("read padding: %v", err)}
	}
	buf = append(buf, pad...)
	buf = binary.BigEndian.AppendUint16(buf, CalculateCRC16(buf))

	body := buf[envelopeHeaderSize:]
	cipher.NewCBCEncrypter(block, key).CryptBlocks(body, body)
	return buf, nil
}

// DecryptEnvelope opens an envelope, checks its key id and CRC, and returns
// the original plaintext with the padding removed.
func DecryptEnvelope(envelope, key []byte, keyID KeyID) ([]byte, error) {
	if len(envelope) < envelopeHeaderSize+aes.BlockSize {
		return nil, &CipherError{Message: fmt.Sprintf("envelope too short: %d bytes", len(envelope))}
	}
	body := envelope[envelopeHeaderSize:]
	if len(body)%aes.BlockSize != 0 {
		return nil, &CipherError{Message: fmt.Sprintf("ciphertext length %d is not a multiple of %d", len(body), aes.BlockSize)}
	}

	gotKey := KeyID(envelope[2])
	if !gotKey.Valid() {
		return nil, &CipherError{Message: fmt.Sprintf("unknown key id %d", uint8(gotKey))}
	}
	if gotKey != keyID {
		return nil, &CipherError{Message: fmt.Sprintf("envelope uses key %s, connection has %s", gotKey, keyID)}
	}

	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}

	plain := make([]byte, len(envelope))
	copy(plain, envelope[:envelopeHeaderSize])
	cipher.NewCBCDecrypter(block, key).CryptBlocks(plain[envelopeHeaderSize:], body)

	crcAt := len(plain) - envelopeCRCSize
	want := CalculateCRC16(plain[:crcAt])
	got := binary.BigEndian.Uint16(plain[crcAt:])
	if got != want {
		return nil, &CipherError{Message: fmt.Sprintf("CRC mismatch: expected 0x%04X, got 0x%04X", want, got)}
	}

	length := int(binary.LittleEndian.Uint16(plain[:2]))
	if length > crcAt-envelopeHeaderSize {
		return nil, &CipherError{Message: fmt.Sprintf("length %d exceeds payload of %d bytes", length, crcAt-envelopeHeaderSize)}
	}
	return plain[envelopeHeaderSize : envelopeHeaderSize+length], nil
}

func newBlock(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, &CipherError{Message: fmt.Sprintf("key must be %d bytes, got %d", KeySize, len(key))}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &CipherError{Message: err.Error()}
	}
	return block, nil
}
