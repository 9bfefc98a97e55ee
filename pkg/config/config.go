// Package config loads the YAML or TOML configuration of the cloudcmd tool.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/transport"
)

// Config is the complete tool configuration.
type Config struct {
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Log       LogConfig       `yaml:"log" toml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Client    ClientConfig    `yaml:"client" toml:"client"`
}

// TransportConfig configures framing.
type TransportConfig struct {
	MaxFrameSize uint32 `yaml:"max_frame_size" toml:"max_frame_size"`
}

// LogConfig configures operational and protocol logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level" toml:"level"`

	// ProtocolFile receives a CBOR capture of every protocol event when set.
	ProtocolFile string `yaml:"protocol_file" toml:"protocol_file"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Listen
// disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" toml:"listen"`
}

// ServerConfig configures `cloudcmd serve`.
type ServerConfig struct {
	Listen string `yaml:"listen" toml:"listen"`
}

// ClientConfig configures `cloudcmd send`.
type ClientConfig struct {
	Address        string        `yaml:"address" toml:"address"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" toml:"connect_timeout"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{MaxFrameSize: transport.DefaultMaxFrameSize},
		Log:       LogConfig{Level: "info"},
		Server:    ServerConfig{Listen: fmt.Sprintf(":%d", transport.DefaultPort)},
		Client: ClientConfig{
			Address:        fmt.Sprintf("localhost:%d", transport.DefaultPort),
			ConnectTimeout: 10 * time.Second,
		},
	}
}

// Load reads path over the defaults and validates the result. Files
// ending in .toml are parsed as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the tool cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.Transport.MaxFrameSize == 0 {
		errs = append(errs, errors.New("transport.max_frame_size must be positive"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen is required"))
	}
	if c.Client.Address == "" {
		errs = append(errs, errors.New("client.address is required"))
	}
	if c.Client.ConnectTimeout < 0 {
		errs = append(errs, errors.New("client.connect_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to an slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
}
