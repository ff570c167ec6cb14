// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

// Configuration loading and validation for elcorstat

import (
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/elcorstat/internal/errors"
	"github.com/Thermoquad/elcorstat/internal/transport"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

// DefaultPath is read when no --config is given and the file exists
const DefaultPath = "elcorstat.yaml"

// EnvPrefix prefixes every environment override
const EnvPrefix = "ELCORSTAT_"

// Transport kinds
const (
	KindSerial    = "serial"
	KindTCP       = "tcp"
	KindWebSocket = "websocket"
)

// TransportConfig selects and parameterizes the link
type TransportConfig struct {
	Kind        string        `yaml:"kind,omitempty"` // "serial", "tcp" or "websocket"; inferred when empty
	Port        string        `yaml:"port,omitempty"` // serial device
	Baud        int           `yaml:"baud,omitempty"`
	Host        string        `yaml:"host,omitempty"`
	TCPPort     int           `yaml:"tcp_port,omitempty"`
	URL         string        `yaml:"url,omitempty"`
	Username    string        `yaml:"username,omitempty"`
	NoSSLVerify bool          `yaml:"no_ssl_verify,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"` // e.g. "10s"
	Retries     int           `yaml:"retries,omitempty"`
}

// AddressConfig is one end of the link
type AddressConfig struct {
	Address1 uint16 `yaml:"address1"`
	Address2 uint8  `yaml:"address2"`
}

// LinkConfig holds the frame header settings
type LinkConfig struct {
	Source       AddressConfig `yaml:"source"`
	Destination  AddressConfig `yaml:"destination"`
	AddressOrder string        `yaml:"address_order,omitempty"` // "little" or "big"
	PasswordID   int           `yaml:"password_id,omitempty"`
}

// SecurityConfig enables the cipher envelope
type SecurityConfig struct {
	Key   string `yaml:"key,omitempty"`    // 32 hex digits
	KeyID string `yaml:"key_id,omitempty"` // name such as "administrator", or 1..7
}

// LoggingConfig mirrors logging.Options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSize    int    `yaml:"max_size,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAge     int    `yaml:"max_age,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
}

// Config is the whole elcorstat configuration
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Link      LinkConfig      `yaml:"link"`
	Security  SecurityConfig  `yaml:"security,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Transport.Baud == 0 {
		c.Transport.Baud = transport.DefaultBaudRate
	}
	if c.Transport.Timeout == 0 {
		c.Transport.Timeout = transport.DefaultTimeout
	}
	if c.Link.AddressOrder == "" {
		c.Link.AddressOrder = elgas.LittleEndian.String()
	}
	if c.Link.PasswordID == 0 {
		c.Link.PasswordID = elgas.MinPasswordID
	}
}

// Override adjusts a loaded configuration before it is validated
type Override func(*Config) error

// Load reads path, applies ELCORSTAT_* variables, then overrides, then
// defaults, and validates the result. An empty path skips the file.
func Load(path string, overrides ...Override) (*Config, error) {
	return load(path, (*Config).Validate, overrides)
}

// LoadOffline is Load for commands that open no connection: the transport
// section is not validated.
func LoadOffline(path string, overrides ...Override) (*Config, error) {
	return load(path, (*Config).ValidateLink, overrides)
}

func load(path string, validate func(*Config) error, overrides []Override) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapConfigError(fmt.Errorf("config file not found: %s", path), path)
			}
			return nil, errors.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapConfigError(fmt.Errorf("parse YAML: %w", err), path)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, errors.WrapConfigError(err, "environment")
	}
	for _, o := range overrides {
		if err := o(cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

type envBinding struct {
	name string
	set  func(string) error
}

func setWith[T any](dst *T, conv func(interface{}) (T, error)) func(string) error {
	return func(v string) error {
		x, err := conv(v)
		if err != nil {
			return err
		}
		*dst = x
		return nil
	}
}

// setAddress parses an address field that must fit in limit
func setAddress[T uint8 | uint16](dst *T, limit int) func(string) error {
	return func(v string) error {
		n, err := cast.ToIntE(v)
		if err != nil {
			return err
		}
		if n < 0 || n > limit {
			return fmt.Errorf("address %d out of range 0..%d", n, limit)
		}
		*dst = T(n)
		return nil
	}
}

func (c *Config) envBindings() []envBinding {
	return []envBinding{
		{"TRANSPORT", setWith(&c.Transport.Kind, cast.ToStringE)},
		{"PORT", setWith(&c.Transport.Port, cast.ToStringE)},
		{"BAUD", setWith(&c.Transport.Baud, cast.ToIntE)},
		{"HOST", setWith(&c.Transport.Host, cast.ToStringE)},
		{"TCP_PORT", setWith(&c.Transport.TCPPort, cast.ToIntE)},
		{"URL", setWith(&c.Transport.URL, cast.ToStringE)},
		{"USERNAME", setWith(&c.Transport.Username, cast.ToStringE)},
		{"NO_SSL_VERIFY", setWith(&c.Transport.NoSSLVerify, cast.ToBoolE)},
		{"TIMEOUT", setWith(&c.Transport.Timeout, cast.ToDurationE)},
		{"RETRIES", setWith(&c.Transport.Retries, cast.ToIntE)},
		{"SRC1", setAddress(&c.Link.Source.Address1, math.MaxUint16)},
		{"SRC2", setAddress(&c.Link.Source.Address2, math.MaxUint8)},
		{"DST1", setAddress(&c.Link.Destination.Address1, math.MaxUint16)},
		{"DST2", setAddress(&c.Link.Destination.Address2, math.MaxUint8)},
		{"ADDRESS_ORDER", setWith(&c.Link.AddressOrder, cast.ToStringE)},
		{"PASSWORD_ID", setWith(&c.Link.PasswordID, cast.ToIntE)},
		{"KEY", setWith(&c.Security.Key, cast.ToStringE)},
		{"KEY_ID", setWith(&c.Security.KeyID, cast.ToStringE)},
		{"LOG_LEVEL", setWith(&c.Logging.Level, cast.ToStringE)},
		{"LOG_FILE", setWith(&c.Logging.File, cast.ToStringE)},
	}
}

// ApplyEnv overrides fields from ELCORSTAT_* variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, b := range c.envBindings() {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok {
			continue
		}
		if err := b.set(strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, b.name, err)
		}
	}
	return nil
}

// Validate checks cfg and infers the transport kind when it is empty
func (c *Config) Validate() error {
	t := &c.Transport
	if t.Kind == "" {
		switch {
		case t.URL != "":
			t.Kind = KindWebSocket
		case t.Host != "":
			t.Kind = KindTCP
		case t.Port != "":
			t.Kind = KindSerial
		default:
			return fmt.Errorf("no transport configured: set transport.port, transport.host or transport.url")
		}
	}

	switch t.Kind {
	case KindSerial:
		if t.Port == "" {
			return fmt.Errorf("transport.port is required for serial")
		}
		if t.Baud <= 0 {
			return fmt.Errorf("transport.baud must be > 0")
		}
	case KindTCP:
		if t.Host == "" {
			return fmt.Errorf("transport.host is required for tcp")
		}
		if t.TCPPort <= 0 || t.TCPPort > 65535 {
			return fmt.Errorf("transport.tcp_port %d out of range 1..65535", t.TCPPort)
		}
	case KindWebSocket:
		if !strings.HasPrefix(t.URL, "ws://") && !strings.HasPrefix(t.URL, "wss://") {
			return fmt.Errorf("transport.url %q must start with ws:// or wss://", t.URL)
		}
	default:
		return fmt.Errorf("transport.kind %q is not one of serial, tcp, websocket", t.Kind)
	}
	if t.Timeout <= 0 {
		return fmt.Errorf("transport.timeout must be > 0")
	}
	if t.Retries < 0 {
		return fmt.Errorf("transport.retries must be >= 0")
	}
	return c.ValidateLink()
}

// ValidateLink checks the link, security and logging sections
func (c *Config) ValidateLink() error {
	if _, err := elgas.ParseAddressOrder(c.Link.AddressOrder); err != nil {
		return fmt.Errorf("link.address_order: %w", err)
	}
	if c.Link.PasswordID < elgas.MinPasswordID || c.Link.PasswordID > elgas.MaxPasswordID {
		return fmt.Errorf("link.password_id %d out of range %d..%d", c.Link.PasswordID, elgas.MinPasswordID, elgas.MaxPasswordID)
	}

	if _, err := c.Cipher(); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// Cipher builds the configured cipher, or nil when no key is set
func (c *Config) Cipher() (*elgas.Cipher, error) {
	if c.Security.Key == "" {
		if c.Security.KeyID != "" {
			return nil, fmt.Errorf("security.key_id is set but security.key is empty")
		}
		return nil, nil
	}
	key, err := hex.DecodeString(c.Security.Key)
	if err != nil {
		return nil, fmt.Errorf("security.key: %w", err)
	}
	if c.Security.KeyID == "" {
		return nil, fmt.Errorf("security.key_id is required with security.key")
	}
	keyID, err := elgas.ParseKeyID(c.Security.KeyID)
	if err != nil {
		return nil, fmt.Errorf("security.key_id: %w", err)
	}
	ciph, err := elgas.NewCipher(key, keyID)
	if err != nil {
		return nil, fmt.Errorf("security.key: %w", err)
	}
	return ciph, nil
}

// ConnectionConfig converts the link and security sections
func (c *Config) ConnectionConfig() (elgas.ConnectionConfig, error) {
	order, err := c.AddressOrder()
	if err != nil {
		return elgas.ConnectionConfig{}, err
	}
	ciph, err := c.Cipher()
	if err != nil {
		return elgas.ConnectionConfig{}, err
	}
	return elgas.ConnectionConfig{
		Source:       elgas.Address{Address1: c.Link.Source.Address1, Address2: c.Link.Source.Address2},
		Destination:  elgas.Address{Address1: c.Link.Destination.Address1, Address2: c.Link.Destination.Address2},
		AddressOrder: order,
		Cipher:       ciph,
	}, nil
}

// AddressOrder parses link.address_order
func (c *Config) AddressOrder() (elgas.AddressOrder, error) {
	return elgas.ParseAddressOrder(c.Link.AddressOrder)
}

// Target describes the configured link for messages
func (c *Config) Target() string {
	switch c.Transport.Kind {
	case KindTCP:
		return fmt.Sprintf("%s:%d", c.Transport.Host, c.Transport.TCPPort)
	case KindWebSocket:
		return c.Transport.URL
	default:
		return c.Transport.Port
	}
}
