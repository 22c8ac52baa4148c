// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable Load reads.
const EnvConfig = "NETBRIDGE_CONFIG"

// DefaultPort is the port both listeners bind when none is configured.
const DefaultPort = 7070

// Config is the complete netbridge configuration.
type Config struct {
	// TCPPort is the inbound TCP listener port. 0 picks an ephemeral port.
	TCPPort int `yaml:"tcp_port" json:"tcp_port" toml:"tcp_port"`

	// UDPPort is the inbound UDP socket port. 0 picks an ephemeral port.
	UDPPort int `yaml:"udp_port" json:"udp_port" toml:"udp_port"`

	// BindAddress is the host part of both listen addresses. Empty
	// binds all interfaces.
	BindAddress string `yaml:"bind_address" json:"bind_address" toml:"bind_address"`

	// ReadBufferSize is the largest TCP chunk delivered as one event.
	// 0 means 64 KiB.
	ReadBufferSize int `yaml:"read_buffer_size" json:"read_buffer_size" toml:"read_buffer_size"`

	// ReceiveBufferBytes sets SO_RCVBUF on the UDP socket. 0 keeps the
	// kernel default.
	ReceiveBufferBytes int `yaml:"receive_buffer_bytes" json:"receive_buffer_bytes" toml:"receive_buffer_bytes"`

	// ReusePort sets SO_REUSEPORT on both listeners.
	ReusePort bool `yaml:"reuse_port" json:"reuse_port" toml:"reuse_port"`

	// InboundErrors is "silent" or "log".
	InboundErrors string `yaml:"inbound_errors" json:"inbound_errors" toml:"inbound_errors"`

	// ConnectFailure is "surface" or "hang".
	ConnectFailure string `yaml:"connect_failure" json:"connect_failure" toml:"connect_failure"`

	// ConnectTimeout bounds outbound TCP connects, as a Go duration
	// ("5s"). Empty means the operating system default.
	ConnectTimeout string `yaml:"connect_timeout" json:"connect_timeout" toml:"connect_timeout"`

	// StructuredEncoding is "json" or "cbor".
	StructuredEncoding string `yaml:"structured_encoding" json:"structured_encoding" toml:"structured_encoding"`

	// Routes forward inbound events to outbound senders.
	Routes []RouteConfig `yaml:"routes" json:"routes" toml:"routes"`

	// Capture records inbound events to a file.
	Capture CaptureConfig `yaml:"capture" json:"capture" toml:"capture"`

	// Metrics exposes Prometheus counters over HTTP.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" toml:"metrics"`
}

// RouteConfig sends every inbound event of one protocol to a
// destination.
type RouteConfig struct {
	// Input is the inbound protocol: "tcp" or "udp".
	Input string `yaml:"input" json:"input" toml:"input"`

	// Output is the destination.
	Output OutputConfig `yaml:"output" json:"output" toml:"output"`
}

// OutputConfig names an outbound destination.
type OutputConfig struct {
	Protocol string `yaml:"protocol" json:"protocol" toml:"protocol"`
	Host     string `yaml:"host" json:"host" toml:"host"`
	Port     int    `yaml:"port" json:"port" toml:"port"`
}

// CaptureConfig configures the capture file.
type CaptureConfig struct {
	// Path is the capture file. Empty disables capture.
	Path string `yaml:"path" json:"path" toml:"path"`

	// Compression is "none", "lz4" or "zstd".
	Compression string `yaml:"compression" json:"compression" toml:"compression"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Listen is the HTTP address serving /metrics. Empty disables it.
	Listen string `yaml:"listen" json:"listen" toml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		TCPPort:            DefaultPort,
		UDPPort:            DefaultPort,
		ReadBufferSize:     64 * 1024,
		InboundErrors:      "silent",
		ConnectFailure:     "surface",
		StructuredEncoding: "json",
		Capture: CaptureConfig{
			Compression: "zstd",
		},
	}
}

// Load loads the file named by NETBRIDGE_CONFIG. It fails if the
// variable is unset; callers that want defaults use Default.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvConfig)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your netbridge config file, or use --config", EnvConfig)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path on top of Default.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := cfg.decode(path, data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// decode merges data into c using the format implied by path.
func (c *Config) decode(path string, data []byte) error {
	switch extension := strings.ToLower(filepath.Ext(path)); extension {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// An empty document decodes as io.EOF and leaves the defaults.
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		return decoder.Decode(c)
	case ".toml":
		meta, err := toml.Decode(string(data), c)
		if err != nil {
			return err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys: %v", undecoded)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q (want .yaml, .yml, .json, .jsonc or .toml)", extension)
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in address and
// path fields.
func (c *Config) expandVariables() {
	c.BindAddress = expandVars(c.BindAddress)
	c.Capture.Path = expandVars(c.Capture.Path)
	c.Metrics.Listen = expandVars(c.Metrics.Listen)
	for i := range c.Routes {
		c.Routes[i].Output.Host = expandVars(c.Routes[i].Output.Host)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// ConnectTimeoutDuration parses ConnectTimeout. Empty is zero.
func (c *Config) ConnectTimeoutDuration() (time.Duration, error) {
	if c.ConnectTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ConnectTimeout)
	if err != nil {
		return 0, fmt.Errorf("connect_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("connect_timeout: must not be negative, got %s", d)
	}
	return d, nil
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if !validPort(c.TCPPort) {
		errs = append(errs, fmt.Errorf("tcp_port: %d out of range 0-65535", c.TCPPort))
	}
	if !validPort(c.UDPPort) {
		errs = append(errs, fmt.Errorf("udp_port: %d out of range 0-65535", c.UDPPort))
	}
	if c.ReadBufferSize < 0 {
		errs = append(errs, fmt.Errorf("read_buffer_size: must not be negative, got %d", c.ReadBufferSize))
	}
	if c.ReceiveBufferBytes < 0 {
		errs = append(errs, fmt.Errorf("receive_buffer_bytes: must not be negative, got %d", c.ReceiveBufferBytes))
	}
	errs = append(errs,
		oneOf("inbound_errors", c.InboundErrors, "silent", "log"),
		oneOf("connect_failure", c.ConnectFailure, "surface", "hang"),
		oneOf("structured_encoding", c.StructuredEncoding, "json", "cbor"),
	)
	if _, err := c.ConnectTimeoutDuration(); err != nil {
		errs = append(errs, err)
	}

	for i, route := range c.Routes {
		errs = append(errs, route.validate(fmt.Sprintf("routes[%d]", i)))
	}

	if c.Capture.Path != "" {
		errs = append(errs, oneOf("capture.compression", c.Capture.Compression, "none", "lz4", "zstd"))
	}

	return errors.Join(errs...)
}

func (r RouteConfig) validate(prefix string) error {
	var errs []error
	if !isProtocol(r.Input) {
		errs = append(errs, fmt.Errorf("%s.input: unknown protocol %q", prefix, r.Input))
	}
	if !isProtocol(r.Output.Protocol) {
		errs = append(errs, fmt.Errorf("%s.output.protocol: unknown protocol %q", prefix, r.Output.Protocol))
	}
	if r.Output.Port < 1 || r.Output.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s.output.port: %d out of range 1-65535", prefix, r.Output.Port))
	}
	return errors.Join(errs...)
}

func validPort(port int) bool {
	return port >= 0 && port <= 65535
}

func isProtocol(name string) bool {
	switch strings.ToUpper(name) {
	case "TCP", "UDP":
		return true
	default:
		return false
	}
}

func oneOf(key, value string, allowed ...string) error {
	if slices.Contains(allowed, strings.ToLower(value)) {
		return nil
	}
	return fmt.Errorf("%s: %q is not one of %s", key, value, strings.Join(allowed, ", "))
}
