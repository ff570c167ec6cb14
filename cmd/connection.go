// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Thermoquad/elcorstat/internal/client"
	"github.com/Thermoquad/elcorstat/internal/config"
	"github.com/Thermoquad/elcorstat/internal/errors"
	"github.com/Thermoquad/elcorstat/internal/logging"
	"github.com/Thermoquad/elcorstat/internal/transport"
)

// Environment variables holding secrets
const (
	passwordEnv   = "ELGAS_PASSWORD"
	wsPasswordEnv = "ELCORSTAT_WS_PASSWORD"
)

// GetSecret retrieves a secret from environment or prompts user
func GetSecret(envVar, prompt string) (string, error) {
	// First check environment variable
	if pw := os.Getenv(envVar); pw != "" {
		return pw, nil
	}

	fmt.Fprintf(os.Stderr, "%s: ", prompt)

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %v", strings.ToLower(prompt), err)
		}
		fmt.Fprintln(os.Stderr) // newline after password
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr) // newline after password
	return string(passwordBytes), nil
}

// GetPassword retrieves the device password
func GetPassword() (string, error) {
	return GetSecret(passwordEnv, "Device password")
}

// GetBridgePassword retrieves the WebSocket bridge password when the
// configured link needs one
func GetBridgePassword(cfg *config.Config) (string, error) {
	if cfg.Transport.Kind != config.KindWebSocket || cfg.Transport.Username == "" {
		return "", nil
	}
	return GetSecret(wsPasswordEnv, "Bridge password")
}

// OpenTransport opens the link described by cfg
func OpenTransport(cfg *config.Config, bridgePassword string) (*transport.Transport, error) {
	t := cfg.Transport
	var (
		tr  *transport.Transport
		err error
	)
	switch t.Kind {
	case config.KindTCP:
		tr, err = transport.NewTCP(t.Host, t.TCPPort, t.Timeout)
	case config.KindWebSocket:
		tr, err = transport.NewWebSocket(t.URL, t.Username, bridgePassword, t.NoSSLVerify, t.Timeout)
	default:
		tr, err = transport.NewSerial(t.Port, t.Baud, t.Timeout)
	}
	if err != nil {
		return nil, errors.WrapConnectionError(err, cfg.Target())
	}
	return tr, nil
}

// session bundles what a device command needs
type session struct {
	cfg       *config.Config
	logger    *logging.Logger
	transport *transport.Transport
	client    *client.Client
}

// openSession loads settings, opens the link and builds a client. The
// password is only asked for when the command's requests carry one.
func openSession(cmd *cobra.Command, needPassword bool) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	password := ""
	if needPassword {
		if password, err = GetPassword(); err != nil {
			logger.Close()
			return nil, err
		}
	}

	bridgePassword, err := GetBridgePassword(cfg)
	if err != nil {
		logger.Close()
		return nil, err
	}

	link, err := cfg.ConnectionConfig()
	if err != nil {
		logger.Close()
		return nil, errors.WrapConfigError(err, "link settings")
	}
	link.Logger = logger.Named("connection")

	tr, err := OpenTransport(cfg, bridgePassword)
	if err != nil {
		logger.Close()
		return nil, err
	}
	tr.SetLogger(logger.Named("transport"))
	logger.Info("connected", "link", tr.Info())

	return &session{
		cfg:       cfg,
		logger:    logger,
		transport: tr,
		client: client.New(tr, client.Options{
			Link:     link,
			Password: password,
			Retries:  cfg.Transport.Retries,
			Logger:   logger.Named("client"),
		}),
	}, nil
}

func (s *session) Close() {
	s.transport.Close()
	s.logger.Close()
}
