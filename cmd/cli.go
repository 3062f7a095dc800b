// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"io"

	"spectrum/internal/config"
	"spectrum/pkg/build"

	"github.com/spf13/cobra"
)

// Commands returned in Config.Command.
const (
	CommandPlay = "play"
	CommandList = "list"
	CommandPick = "pick" // list --interactive
)

// flagValues holds raw flag values; they only override the configuration
// when the flag was set explicitly.
type flagValues struct {
	configPath string
	assetDir   string
	device     int
	lowLatency bool
	headless   bool
	loop       bool
	window     string
	size       int
	bins       int
	interval   string
	wsAddress  string
	noWS       bool
	udpTarget  string
	metrics    bool
	verbose    bool
}

// ParseArgs parses the command line, loads the configuration file and
// applies flag overrides. It returns nil, nil when cobra handled the
// invocation itself (--help, --version).
func ParseArgs(args []string, out io.Writer) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		flags  flagValues
		result *config.Config
	)

	load := func(cmd *cobra.Command, command string) error {
		cfg, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd, &flags, cfg); err != nil {
			return err
		}
		cfg.Command = command
		result = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [track]",
		Short:         "Play a track and stream its live spectrum",
		Version:       buildInfo.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd, CommandPlay); err != nil {
				return err
			}
			if len(args) == 1 {
				result.Playback.Track = args[0]
			}
			if result.Playback.Track == "" {
				result = nil
				return errors.New("no track given: pass a track name or set playback.track")
			}
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	var interactive bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio output devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return load(cmd, CommandPick)
			}
			return load(cmd, CommandList)
		},
	}
	listCmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"Pick an output device interactively")
	rootCmd.AddCommand(listCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "f", "",
		"Path to a YAML configuration file (default ./"+config.DefaultPath+" if present)")

	// Playback
	pf.StringVarP(&flags.assetDir, "asset-dir", "a", config.DefaultAssetDir,
		"Directory track names are resolved against")
	pf.IntVarP(&flags.device, "device", "d", config.DefaultOutputDevice,
		"Output device ID. Use 'list' command to see available devices.")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use the output device's low latency setting")
	pf.BoolVar(&flags.headless, "headless", config.DefaultHeadless,
		"Render without an audio device")
	pf.BoolVar(&flags.loop, "loop", config.DefaultLoop,
		"Restart the track when it ends")

	// Analysis
	pf.StringVarP(&flags.window, "window", "w", config.DefaultWindow,
		"FFT window function (rectangular, hann, hamming, blackman, ...)")
	pf.IntVarP(&flags.size, "size", "n", config.DefaultAnalysisSize,
		"Frames per rendered block and FFT size (power of 2)")
	pf.IntVar(&flags.bins, "bins", config.DefaultBins,
		"Number of spectrum bins published (<= size/2)")

	// Transport
	pf.StringVar(&flags.interval, "interval", config.DefaultPublishInterval.String(),
		"Time between published frames")
	pf.StringVar(&flags.wsAddress, "ws", config.DefaultWebSocketAddress,
		"WebSocket listen address")
	pf.BoolVar(&flags.noWS, "no-ws", false,
		"Disable the WebSocket server")
	pf.StringVar(&flags.udpTarget, "udp", "",
		"Send binary frames to this host:port over UDP")
	pf.BoolVar(&flags.metrics, "metrics", config.DefaultMetricsEnabled,
		"Expose Prometheus metrics on /metrics")

	// Debug Configuration
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return result, nil
}
