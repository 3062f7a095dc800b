// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"spectrum/internal/analysis"
	applog "spectrum/internal/log"
	"spectrum/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when no path is given.
const DefaultPath = "config.yaml"

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it looks for DefaultPath in the working directory and falls back
// to the built-in defaults when that does not exist. Environment variable
// overrides are applied last, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against the analyzer and transport
// limits. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	a := c.Analysis
	if !bitint.IsPowerOfTwo(a.Size) || a.Size < 2 {
		errs = append(errs, fmt.Errorf("analysis.size %d must be a power of 2 >= 2 (nearest: %d)",
			a.Size, bitint.NextPowerOfTwo(a.Size)))
	}
	if a.Bins < 1 || a.Bins > a.Size/2 {
		errs = append(errs, fmt.Errorf("analysis.bins %d must be between 1 and analysis.size/2 (%d)", a.Bins, a.Size/2))
	}
	if a.SampleRate != 0 && (a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate) {
		errs = append(errs, fmt.Errorf("analysis.sample_rate %.0f must be 0 or between %d and %d",
			a.SampleRate, MinSampleRate, MaxSampleRate))
	}
	if !bitint.IsPowerOfTwo(a.MaxBlockSize) || a.MaxBlockSize < a.Size || a.MaxBlockSize > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("analysis.max_block_size %d must be a power of 2 between analysis.size and %d",
			a.MaxBlockSize, MaxBufferFrames))
	}
	if _, err := analysis.ParseWindowFunc(a.Window); err != nil {
		errs = append(errs, fmt.Errorf("analysis.window: %w", err))
	}

	if c.Playback.OutputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("playback.output_device %d must be >= %d", c.Playback.OutputDevice, MinDeviceID))
	}

	t := c.Transport
	if t.PublishInterval <= 0 {
		errs = append(errs, errors.New("transport.publish_interval must be positive"))
	}
	if t.WebSocketEnabled && t.WebSocketAddress == "" {
		errs = append(errs, errors.New("transport.websocket_address must be set when WebSocket is enabled"))
	}
	if t.MetricsEnabled && !t.WebSocketEnabled {
		errs = append(errs, errors.New("transport.metrics_enabled requires transport.websocket_enabled (metrics share its HTTP server)"))
	}
	if t.UDPEnabled && !strings.Contains(t.UDPTargetAddress, ":") {
		errs = append(errs, fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", t.UDPTargetAddress))
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Values that fail to parse are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			applog.Infof("Config: Overriding debug from env: %v", bVal)
		} else {
			applog.Warnf("Config: Ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
		applog.Infof("Config: Overriding log_level from env: %s", val)
	}
	// ENV_TRACK
	if val, ok := os.LookupEnv("ENV_TRACK"); ok {
		c.Playback.Track = val
		applog.Infof("Config: Overriding playback.track from env: %s", val)
	}
	// ENV_HEADLESS
	if val, ok := os.LookupEnv("ENV_HEADLESS"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Playback.Headless = bVal
			applog.Infof("Config: Overriding playback.headless from env: %v", bVal)
		} else {
			applog.Warnf("Config: Ignoring ENV_HEADLESS=%q: %v", val, err)
		}
	}
	// ENV_PUBLISH_INTERVAL
	if val, ok := os.LookupEnv("ENV_PUBLISH_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.PublishInterval = dur
			applog.Infof("Config: Overriding transport.publish_interval from env: %s", dur)
		} else {
			applog.Warnf("Config: Ignoring ENV_PUBLISH_INTERVAL=%q: %v", val, err)
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WebSocketAddress = val
		applog.Infof("Config: Overriding transport.websocket_address from env: %s", val)
	}
	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
			applog.Infof("Config: Overriding transport.udp_enabled from env: %v", bVal)
		} else {
			applog.Warnf("Config: Ignoring ENV_UDP_ENABLED=%q: %v", val, err)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		applog.Infof("Config: Overriding transport.udp_target_address from env: %s", val)
	}
}
