// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"mixengine/pkg/bitint"
)

// Boundaries for the engine configuration.
const (
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)

	DefaultSampleRate     = 44100
	DefaultAnalysisWindow = 1024
	DefaultAddr           = ":8080"
	DefaultDriftInterval  = 5 * time.Second
	DefaultSendQueueSize  = 64
)

// Config is the root application configuration, loaded from YAML with
// environment overrides applied afterwards.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`

	Engine    EngineConfig    `yaml:"engine"`
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
}

// EngineConfig holds the analysis settings shared by the track analyzer
// and the stem separator.
type EngineConfig struct {
	SampleRate     float64 `yaml:"sample_rate"`     // Sample rate of inbound buffers (Hz).
	AnalysisWindow int     `yaml:"analysis_window"` // Spectrum window size in samples (power of 2).
	FFTWindow      string  `yaml:"fft_window"`      // Window function name (e.g. "Hann", "Hamming").
}

// ServerConfig holds the session server settings.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`            // Listen address for the websocket server.
	DriftInterval time.Duration `yaml:"drift_interval"`  // Crowd drift tick interval.
	SendQueueSize int           `yaml:"send_queue_size"` // Per-client outbound queue; slow clients drop beyond this.
}

// TransportConfig gates the optional broadcast mirrors.
type TransportConfig struct {
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Mirror crowd-metric broadcasts over UDP.
	UDPTargetAddress string `yaml:"udp_target_address"` // Target for UDP datagrams, e.g. "127.0.0.1:9090".
	LogBroadcasts    bool   `yaml:"log_broadcasts"`     // Mirror broadcasts to the debug log.
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order. An empty path searches the working
// directory for config.yaml; a missing file is not an error. A .env file,
// when present, is loaded first so overrides work in development too.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // No .env is fine; existing env vars win.

	cfg := Config{
		LogLevel: "info",
		Engine: EngineConfig{
			SampleRate:     DefaultSampleRate,
			AnalysisWindow: DefaultAnalysisWindow,
			FFTWindow:      "Hann",
		},
		Server: ServerConfig{
			Addr:          DefaultAddr,
			DriftInterval: DefaultDriftInterval,
			SendQueueSize: DefaultSendQueueSize,
		},
		Transport: TransportConfig{
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
		},
	}

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration invariants the engine relies on.
func (c *Config) Validate() error {
	if c.Engine.SampleRate < MinSampleRate || c.Engine.SampleRate > MaxSampleRate {
		return fmt.Errorf("engine.sample_rate %.0f outside [%d, %d]",
			c.Engine.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(c.Engine.AnalysisWindow) {
		return fmt.Errorf("engine.analysis_window must be a power of 2, got %d", c.Engine.AnalysisWindow)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	if c.Server.DriftInterval <= 0 {
		return fmt.Errorf("server.drift_interval must be positive")
	}
	if c.Server.SendQueueSize <= 0 {
		return fmt.Errorf("server.send_queue_size must be positive")
	}
	if c.Transport.UDPEnabled && c.Transport.UDPTargetAddress == "" {
		return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
	}
	return nil
}

// MIX_* environment variables override file values. Applied after the
// file load so deployments can tweak a shared config.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("MIX_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
	if val, ok := os.LookupEnv("MIX_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("MIX_ADDR"); ok {
		c.Server.Addr = val
	}
	if val, ok := os.LookupEnv("MIX_SAMPLE_RATE"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Engine.SampleRate = f
		}
	}
	if val, ok := os.LookupEnv("MIX_DRIFT_INTERVAL"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			c.Server.DriftInterval = d
		}
	}
	if val, ok := os.LookupEnv("MIX_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = b
		}
	}
	if val, ok := os.LookupEnv("MIX_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
}
