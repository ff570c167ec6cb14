// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

const (
	readTimeReply   = "02FE866C17000000000200021033123005060C2D20D49B0D"
	readTimeRequest = "02FE846C0F0000000000000019FD190D"
	corruptReply    = "02FE866C17000000000200021133123005060C2D20D49B0D"
	callWire        = "02fe84879c000000000100001b0f000240a494dd96ce1b1bb7194164d56a6f80a4" +
		"3030303030303030303030303030303100238208701063437800000359077320670651" +
		"000100001f060000009e2b622d00000000000000000100000091caaf2c980000000000" +
		"00002c408c8c0a474a4b1d2a622d017afecd0130312e30303000000000000000000000" +
		"00000000000000000000000000000000007d432b0d"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// encryptedReply wraps plain response data in an encrypted response frame
func encryptedReply(t *testing.T, c *elgas.Cipher, data []byte) []byte {
	t.Helper()
	env, err := c.Encrypt(data)
	require.NoError(t, err)
	raw := elgas.EncodeFrame(&elgas.Frame{
		Type:    elgas.TypeEncryptedResponse,
		Service: elgas.ServiceReadDeviceTime,
		Data:    env,
	}, elgas.LittleEndian)
	wire, err := elgas.Escape(raw)
	require.NoError(t, err)
	return wire
}

func TestParseHexFrame(t *testing.T) {
	want := mustHex(t, readTimeRequest)
	for _, in := range []string{
		readTimeRequest,
		"0x" + readTimeRequest,
		"02 FE 84 6C 0F 00 00 00 00 00 00 00 19 FD 19 0D",
		"02:fe:84:6c:0f:00:00:00:00:00:00:00:19:fd:19:0d\n",
	} {
		got, err := parseHexFrame(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseHexFrame("02FE8")
	assert.Error(t, err)
}

func TestDecodeWireFrameResponse(t *testing.T) {
	d, err := decodeWireFrame(mustHex(t, readTimeReply), elgas.LittleEndian, nil)
	require.NoError(t, err)

	rt, ok := d.Response.(*elgas.ReadTimeResponse)
	require.True(t, ok, "response is %T", d.Response)
	assert.Equal(t, time.Date(2006, 5, 30, 12, 33, 10, 0, time.UTC), rt.Time.Time)
	assert.Nil(t, d.Call)

	out := d.String()
	assert.Contains(t, out, "RESPONSE READ_DEVICE_TIME")
	assert.Contains(t, out, "Device time: 2006-05-30 12:33:10")
}

func TestDecodeWireFrameRequest(t *testing.T) {
	d, err := decodeWireFrame(mustHex(t, readTimeRequest), elgas.LittleEndian, nil)
	require.NoError(t, err)

	assert.False(t, d.Frame.IsResponse())
	assert.Equal(t, elgas.ServiceReadDeviceTime, d.Frame.Service)
	assert.Nil(t, d.Response)
	assert.Nil(t, d.Call)
	assert.Contains(t, d.String(), "REQUEST READ_DEVICE_TIME")
}

func TestDecodeWireFrameCall(t *testing.T) {
	d, err := decodeWireFrame(mustHex(t, callWire), elgas.LittleEndian, nil)
	require.NoError(t, err)

	require.NotNil(t, d.Call)
	assert.Equal(t, "0000000000000001", d.Call.StationID)
	assert.Equal(t, elgas.Address{Address1: 1}, d.Frame.Source)
	assert.Contains(t, d.String(), `Call from station "0000000000000001"`)
}

func TestDecodeWireFrameErrors(t *testing.T) {
	d, err := decodeWireFrame(mustHex(t, corruptReply), elgas.LittleEndian, nil)
	var frameErr *elgas.FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, elgas.FrameLRCMismatch, frameErr.Kind)
	assert.Nil(t, d)

	_, err = decodeWireFrame([]byte{0x02, 0xFE}, elgas.LittleEndian, nil)
	assert.Error(t, err, "missing terminator")
}

func TestDecodeWireFrameEncrypted(t *testing.T) {
	c, err := elgas.NewCipher([]byte("0123456789ABCDEF"), elgas.KeyAdministrator)
	require.NoError(t, err)
	wire := encryptedReply(t, c, mustHex(t, "1033123005060C2D"))

	d, err := decodeWireFrame(wire, elgas.LittleEndian, nil)
	var cipherErr *elgas.CipherError
	require.ErrorAs(t, err, &cipherErr)
	require.NotNil(t, d, "header is still reported")
	assert.True(t, d.Frame.Encrypted())

	d, err = decodeWireFrame(wire, elgas.LittleEndian, c)
	require.NoError(t, err)
	rt, ok := d.Response.(*elgas.ReadTimeResponse)
	require.True(t, ok)
	assert.Equal(t, 2006, rt.Time.Time.Year())
}

// ============================================================================
// Raw log
// ============================================================================

func TestFrameLogSynchronizes(t *testing.T) {
	var out bytes.Buffer
	log := &frameLog{
		w:     &out,
		order: elgas.LittleEndian,
		stats: elgas.NewStatistics(),
	}

	// Tail of a frame cut off by connecting mid-stream
	log.handle(mustHex(t, "0C2D20D49B0D"))
	assert.False(t, log.synchronized)
	assert.Zero(t, log.stats.FramesReceived.Load())

	log.handle(mustHex(t, readTimeRequest))
	log.handle(mustHex(t, readTimeReply))
	log.handle(mustHex(t, corruptReply))

	assert.True(t, log.synchronized)
	assert.Equal(t, 6, log.skipped)
	assert.Equal(t, uint64(3), log.stats.FramesReceived.Load())
	assert.Equal(t, uint64(1), log.stats.FrameErrors.Load())

	text := out.String()
	assert.Contains(t, text, "Synchronized after skipping 6 bytes")
	assert.Contains(t, text, "Device time: 2006-05-30 12:33:10")
	assert.Contains(t, text, "DECODE ERROR")
}

func TestFrameLogErrorsOnly(t *testing.T) {
	var out bytes.Buffer
	log := &frameLog{
		w:          &out,
		order:      elgas.LittleEndian,
		stats:      elgas.NewStatistics(),
		errorsOnly: true,
	}

	log.handle(mustHex(t, readTimeReply))
	assert.NotContains(t, out.String(), "Device time")

	log.handle(mustHex(t, corruptReply))
	assert.Contains(t, out.String(), "DECODE ERROR")
	assert.Contains(t, out.String(), "Wire: 02 FE 86")
}
