// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/elcorstat/internal/config"
	"github.com/Thermoquad/elcorstat/internal/logging"
)

var (
	configPath string

	// Serial connection flags
	portName string
	baudRate int

	// TCP connection flags
	tcpHost string
	tcpPort int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	timeout time.Duration
	retries int

	// Link flags
	src1, dst1   uint16
	src2, dst2   uint8
	addressOrder string

	// Cipher flags
	encryptionKey string
	keyID         string

	// Logging flags
	logFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "elcorstat",
	Short: "ELCOR gas volume corrector client",
	Long: `elcorstat - A CLI tool for reading ELCOR gas volume correctors over the ELGAS protocol.

Reads the device clock, instantaneous values, the SCADA parameter
configuration and archives, decodes captured frames offline, and monitors a
link passively or through a polling terminal UI.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  TCP:       --host 10.0.0.5 --tcp-port 5000
  WebSocket: --url ws://host/path [--username user]

Settings are read from elcorstat.yaml (or --config), then ELCORSTAT_*
environment variables, then flags.

The device password is read from the ELGAS_PASSWORD environment variable, or
prompted interactively if not set. The WebSocket bridge password is read
from ELCORSTAT_WS_PASSWORD the same way. There are no password flags so
credentials stay out of shell history.`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Configuration file (default elcorstat.yaml if present)")

	// Serial connection flags
	pf.StringVarP(&portName, "port", "p", "", "Serial port device")
	pf.IntVarP(&baudRate, "baud", "b", 0, "Baud rate (serial only, default 9600)")

	// TCP connection flags
	pf.StringVar(&tcpHost, "host", "", "Modem or terminal server host")
	pf.IntVar(&tcpPort, "tcp-port", 0, "TCP port")

	// WebSocket connection flags
	pf.StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	pf.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	pf.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	pf.DurationVar(&timeout, "timeout", 0, "Response timeout (default 10s)")
	pf.IntVar(&retries, "retries", 0, "Retries after a corrupted frame or timeout")

	// Link flags
	pf.Uint16Var(&src1, "src1", 0, "Source address 1")
	pf.Uint8Var(&src2, "src2", 0, "Source address 2")
	pf.Uint16Var(&dst1, "dst1", 0, "Destination address 1 (0 lets any device answer)")
	pf.Uint8Var(&dst2, "dst2", 0, "Destination address 2")
	pf.StringVar(&addressOrder, "address-order", "", "Address byte order: little or big")

	// Cipher flags
	pf.StringVar(&encryptionKey, "key", "", "AES-128 key as 32 hex digits")
	pf.StringVar(&keyID, "key-id", "", "Key id: factory, temporary, administrator, maintenance, user_1..user_3")

	// Logging flags
	pf.StringVar(&logFile, "log-file", "", "Write JSON logs to a rotated file")
	pf.BoolVar(&debug, "debug", false, "Log every frame at debug level")
}

// Execute runs the root command. Ctrl+C cancels the running exchange.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// flagOverrides copies explicitly set flags over the loaded configuration
func flagOverrides(cmd *cobra.Command) config.Override {
	return func(c *config.Config) error {
		flags := cmd.Flags()
		chosen := 0
		for _, name := range []string{"port", "host", "url"} {
			if flags.Changed(name) {
				chosen++
			}
		}
		if chosen > 1 {
			return fmt.Errorf("only one of --port, --host and --url may be given")
		}

		t := &c.Transport
		if flags.Changed("port") {
			t.Kind, t.Port = config.KindSerial, portName
		}
		if flags.Changed("host") {
			t.Kind, t.Host = config.KindTCP, tcpHost
		}
		if flags.Changed("url") {
			t.Kind, t.URL = config.KindWebSocket, wsURL
		}
		if flags.Changed("baud") {
			t.Baud = baudRate
		}
		if flags.Changed("tcp-port") {
			t.TCPPort = tcpPort
		}
		if flags.Changed("username") {
			t.Username = wsUsername
		}
		if flags.Changed("no-ssl-verify") {
			t.NoSSLVerify = wsNoSSLVerify
		}
		if flags.Changed("timeout") {
			t.Timeout = timeout
		}
		if flags.Changed("retries") {
			t.Retries = retries
		}

		l := &c.Link
		if flags.Changed("src1") {
			l.Source.Address1 = src1
		}
		if flags.Changed("src2") {
			l.Source.Address2 = src2
		}
		if flags.Changed("dst1") {
			l.Destination.Address1 = dst1
		}
		if flags.Changed("dst2") {
			l.Destination.Address2 = dst2
		}
		if flags.Changed("address-order") {
			l.AddressOrder = addressOrder
		}

		if flags.Changed("key") {
			c.Security.Key = encryptionKey
		}
		if flags.Changed("key-id") {
			c.Security.KeyID = keyID
		}
		if flags.Changed("log-file") {
			c.Logging.File = logFile
		}
		return nil
	}
}

// loadConfig reads the configuration file, environment and flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(settingsPath(), flagOverrides(cmd))
}

// loadOfflineConfig is loadConfig for commands that open no connection
func loadOfflineConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.LoadOffline(settingsPath(), flagOverrides(cmd))
}

func settingsPath() string {
	if configPath != "" {
		return configPath
	}
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.DefaultPath
	}
	return ""
}

// newLogger builds the zap logger from the logging section and --debug
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.NewZapLogger(logging.Options{
		Level:      cfg.Logging.Level,
		Debug:      debug,
		LogFile:    cfg.Logging.File,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Quiet:      cfg.Logging.File != "",
	})
}
