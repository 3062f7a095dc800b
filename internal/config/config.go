// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the spectrum pipeline.
const (
	DefaultLogLevel = "info"

	// Analysis defaults: a 1024-point FFT at
	// 48 kHz published as 512 bins.
	DefaultAnalysisSize = 1024
	DefaultBins         = 512
	DefaultSampleRate   = 48000
	DefaultWindow       = "rectangular" // No window; the raw transform
	DefaultMaxBlockSize = MaxBufferFrames

	// Playback defaults
	DefaultAssetDir     = "."
	DefaultOutputDevice = MinDeviceID // System default output device
	DefaultLowLatency   = false
	DefaultHeadless     = false
	DefaultLoop         = false

	// Transport defaults
	DefaultPublishInterval  = 33 * time.Millisecond // ~30Hz
	DefaultWebSocketEnabled = true
	DefaultWebSocketAddress = ":8080"
	DefaultUDPEnabled       = false
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultMetricsEnabled   = false

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
)

// Config represents the application configuration, loaded from YAML and
// overridden by environment variables and command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Enable debug logging.
	LogLevel  string          `yaml:"log_level"`         // Logging level ("debug", "info", "warn", "error").
	Command   string          `yaml:"command,omitempty"` // One-off command instead of playback (e.g. "list").
	Analysis  AnalysisConfig  `yaml:"analysis"`          // Spectrum analysis settings.
	Playback  PlaybackConfig  `yaml:"playback"`          // Track and output device settings.
	Transport TransportConfig `yaml:"transport"`         // Visualization transport settings.
}

// AnalysisConfig holds the fixed parameters of the spectrum analyzer.
type AnalysisConfig struct {
	Size         int     `yaml:"size"`           // FFT size in frames (power of 2); also the render buffer size.
	Bins         int     `yaml:"bins"`           // Published bin count (<= size/2).
	SampleRate   float64 `yaml:"sample_rate"`    // Sample rate in Hz; 0 uses the loaded track's rate.
	Window       string  `yaml:"window"`         // Window function name ("rectangular", "hann", ...).
	MaxBlockSize int     `yaml:"max_block_size"` // Largest block the analyzer accepts (power of 2).
}

// PlaybackConfig holds settings for the playback session feeding the analyzer.
type PlaybackConfig struct {
	AssetDir     string `yaml:"asset_dir"`     // Directory tracks are resolved against.
	Track        string `yaml:"track"`         // Track name or path; ".wav" is implied.
	OutputDevice int    `yaml:"output_device"` // PortAudio output device index (-1 for default).
	LowLatency   bool   `yaml:"low_latency"`   // Request low latency from the output device.
	Headless     bool   `yaml:"headless"`      // Render without an audio device.
	Loop         bool   `yaml:"loop"`          // Restart the track when it ends.
}

// TransportConfig holds settings for pushing spectra to visualization clients.
type TransportConfig struct {
	PublishInterval  time.Duration `yaml:"publish_interval"`   // Minimum time between published frames.
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve frames over WebSocket on /ws.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address for the HTTP server.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary frames over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target host:port for UDP frames.
	MetricsEnabled   bool          `yaml:"metrics_enabled"`    // Expose Prometheus metrics on /metrics.
}

// NewConfig returns a Config populated with the built-in defaults. It is the
// base that configuration files and overrides are applied on top of.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Analysis: AnalysisConfig{
			Size:         DefaultAnalysisSize,
			Bins:         DefaultBins,
			SampleRate:   DefaultSampleRate,
			Window:       DefaultWindow,
			MaxBlockSize: DefaultMaxBlockSize,
		},
		Playback: PlaybackConfig{
			AssetDir:     DefaultAssetDir,
			OutputDevice: DefaultOutputDevice,
			LowLatency:   DefaultLowLatency,
			Headless:     DefaultHeadless,
			Loop:         DefaultLoop,
		},
		Transport: TransportConfig{
			PublishInterval:  DefaultPublishInterval,
			WebSocketEnabled: DefaultWebSocketEnabled,
			WebSocketAddress: DefaultWebSocketAddress,
			UDPEnabled:       DefaultUDPEnabled,
			UDPTargetAddress: DefaultUDPTargetAddress,
			MetricsEnabled:   DefaultMetricsEnabled,
		},
	}
}
