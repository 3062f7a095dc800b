// SPDX-License-Identifier: MIT
package config

import (
	"fmt"

	"spectrum/internal/analysis"
)

// SpectralConfig derives the analyzer configuration. A zero
// analysis.sample_rate means "use the rate of the loaded track", which is
// passed in as trackRate.
func (c *Config) SpectralConfig(trackRate float64) (analysis.Config, error) {
	window, err := analysis.ParseWindowFunc(c.Analysis.Window)
	if err != nil {
		return analysis.Config{}, err
	}

	rate := c.Analysis.SampleRate
	if rate == 0 {
		rate = trackRate
	}
	if rate <= 0 {
		return analysis.Config{}, fmt.Errorf("no sample rate configured and none provided by the track")
	}

	cfg := analysis.Config{
		Size:         c.Analysis.Size,
		Bins:         c.Analysis.Bins,
		SampleRate:   rate,
		Window:       window,
		MaxBlockSize: c.Analysis.MaxBlockSize,
	}
	return cfg, cfg.Validate()
}

// LogLevelName resolves the effective log level; debug forces "debug".
func (c *Config) LogLevelName() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}
