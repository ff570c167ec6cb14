// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/elcorstat/internal/config"
)

// parsedCommand parses args against the root persistent flags
func parsedCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	c.Flags().AddFlagSet(rootCmd.PersistentFlags())
	require.NoError(t, c.ParseFlags(args))
	t.Cleanup(func() {
		rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
	return c
}

func TestFlagOverrides(t *testing.T) {
	c := parsedCommand(t, "--host", "10.0.0.5", "--tcp-port", "10001", "--timeout", "3s", "--dst1", "7", "--address-order", "big")

	var cfg config.Config
	require.NoError(t, flagOverrides(c)(&cfg))
	assert.Equal(t, config.KindTCP, cfg.Transport.Kind)
	assert.Equal(t, "10.0.0.5", cfg.Transport.Host)
	assert.Equal(t, 10001, cfg.Transport.TCPPort)
	assert.Equal(t, 3*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, uint16(7), cfg.Link.Destination.Address1)
	assert.Equal(t, "big", cfg.Link.AddressOrder)
	assert.Empty(t, cfg.Transport.Port)
}

func TestFlagOverridesUnchanged(t *testing.T) {
	c := parsedCommand(t)

	cfg := config.Config{}
	cfg.Transport.Kind = config.KindSerial
	cfg.Transport.Port = "/dev/ttyUSB0"
	require.NoError(t, flagOverrides(c)(&cfg))
	assert.Equal(t, config.KindSerial, cfg.Transport.Kind)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Transport.Port)
}

func TestFlagOverridesConflict(t *testing.T) {
	c := parsedCommand(t, "--port", "/dev/ttyUSB0", "--url", "ws://bridge/elgas")

	var cfg config.Config
	assert.ErrorContains(t, flagOverrides(c)(&cfg), "only one of")
}

func TestConfigInit(t *testing.T) {
	c := parsedCommand(t, "--host", "10.0.0.5", "--tcp-port", "10001", "--dst1", "2")
	configOut = filepath.Join(t.TempDir(), "station.yaml")
	t.Cleanup(func() { configOut, configForce = config.DefaultPath, false })

	require.NoError(t, runConfigInit(c, nil))
	cfg, err := config.Load(configOut)
	require.NoError(t, err)
	assert.Equal(t, config.KindTCP, cfg.Transport.Kind)
	assert.Equal(t, "10.0.0.5:10001", cfg.Target())
	assert.Equal(t, uint16(2), cfg.Link.Destination.Address1)

	assert.ErrorContains(t, runConfigInit(c, nil), "--force")
	configForce = true
	assert.NoError(t, runConfigInit(c, nil))
}
