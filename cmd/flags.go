// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"time"

	"spectrum/internal/config"

	"github.com/spf13/cobra"
)

// applyFlags copies every explicitly set flag into cfg and revalidates.
func applyFlags(cmd *cobra.Command, f *flagValues, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("asset-dir") {
		cfg.Playback.AssetDir = f.assetDir
	}
	if changed("device") {
		cfg.Playback.OutputDevice = f.device
	}
	if changed("low-latency") {
		cfg.Playback.LowLatency = f.lowLatency
	}
	if changed("headless") {
		cfg.Playback.Headless = f.headless
	}
	if changed("loop") {
		cfg.Playback.Loop = f.loop
	}

	if changed("window") {
		cfg.Analysis.Window = f.window
	}
	if changed("size") {
		cfg.Analysis.Size = f.size
		if cfg.Analysis.MaxBlockSize < f.size {
			cfg.Analysis.MaxBlockSize = f.size
		}
	}
	if changed("bins") {
		cfg.Analysis.Bins = f.bins
	}

	if changed("interval") {
		d, err := time.ParseDuration(f.interval)
		if err != nil {
			return fmt.Errorf("invalid --interval: %w", err)
		}
		cfg.Transport.PublishInterval = d
	}
	if changed("ws") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddress = f.wsAddress
	}
	if changed("no-ws") && f.noWS {
		cfg.Transport.WebSocketEnabled = false
	}
	if changed("udp") {
		cfg.Transport.UDPEnabled = f.udpTarget != ""
		cfg.Transport.UDPTargetAddress = f.udpTarget
	}
	if changed("metrics") {
		cfg.Transport.MetricsEnabled = f.metrics
	}

	if changed("verbose") && f.verbose {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
