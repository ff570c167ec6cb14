// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, out string) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestDefaultLevelIsWarn(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewZapLogger(Options{Writer: &buf})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("frame in rejected", "error", "LRC mismatch", "bytes", "02FE")

	entries := decodeLines(t, buf.String())
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "frame in rejected", entries[0]["msg"])
	assert.Equal(t, "LRC mismatch", entries[0]["error"])
	assert.Contains(t, entries[0]["ts"], "T")
}

func TestDebugOverridesLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewZapLogger(Options{Level: "error", Debug: true, Writer: &buf})
	require.NoError(t, err)

	l.Named("client").Debug("frame out", "service", "READ_DEVICE_TIME")

	entries := decodeLines(t, buf.String())
	require.Len(t, entries, 1)
	assert.Equal(t, "debug", entries[0]["level"])
	assert.Equal(t, "client", entries[0]["logger"])
	assert.Equal(t, "READ_DEVICE_TIME", entries[0]["service"])
}

func TestInvalidLevel(t *testing.T) {
	_, err := NewZapLogger(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestLogFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "elcorstat.log")

	l, err := NewZapLogger(Options{Level: "info", LogFile: path, MaxSize: 1, Writer: &buf, Quiet: true})
	require.NoError(t, err)

	l.Info("requesting device parameters", "object_count", 10)
	l.Error("exchange failed")
	require.NoError(t, l.Close())

	assert.Empty(t, buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entries := decodeLines(t, string(data))
	require.Len(t, entries, 2)
	assert.Equal(t, float64(10), entries[0]["object_count"])
	assert.Equal(t, "error", entries[1]["level"])
}

func TestLogFileAndWriter(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "elcorstat.log")

	l, err := NewZapLogger(Options{LogFile: path, Writer: &buf})
	require.NoError(t, err)
	l.Warn("both")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"both"`)
	assert.Contains(t, buf.String(), `"msg":"both"`)
}
