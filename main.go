// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"spectrum/cmd"
	"spectrum/internal/analysis"
	"spectrum/internal/audio"
	"spectrum/internal/audio/pa"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/mailbox"
	"spectrum/internal/metrics"
	"spectrum/internal/tap"
	"spectrum/internal/transport"
	"spectrum/internal/transport/udp"
	"spectrum/internal/tui"
	"spectrum/pkg/build"

	"golang.org/x/sync/errgroup"
)

// statsInterval is how often tap drops are reported.
const statsInterval = 5 * time.Second

// main is the entry point for the spectrum player.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information and runtime settings
//   - Parse command line arguments and configuration
//   - Load the track and build the analysis pipeline
//
// 2. Concurrent Phase (Hot Path):
//   - Render the track; the tap analyzes every block on the render thread
//   - Publish spectra to transports at the configured interval
//
// 3. Shutdown Phase (Cold Path):
//   - Stop on signal or at the end of the track
//   - Detach the tap, stop the stream, close transports
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		applog.Warnf("Build: Incomplete build information: %v", err)
	}

	// One thread for the render callback, one for everything else.
	runtime.GOMAXPROCS(2)

	cfg, err := cmd.ParseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg == nil {
		return
	}

	applog.Configure(cfg.LogLevelName())
	applog.Debugf("Build: %s", build.GetBuildFlags())

	switch cfg.Command {
	case cmd.CommandList:
		err = listDevices()
	case cmd.CommandPick:
		err = pickDevice()
	default:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = play(ctx, cfg)
		stop()
	}
	if err != nil {
		applog.Fatalf("%v", err)
	}
}

// listDevices prints the available output devices.
func listDevices() error {
	if err := pa.Initialize(); err != nil {
		return err
	}
	defer pa.Terminate()
	return pa.ListDevices(os.Stdout)
}

// pickDevice runs the interactive device picker and prints the flags that
// select the chosen device.
func pickDevice() error {
	if err := pa.Initialize(); err != nil {
		return err
	}
	defer pa.Terminate()

	sel, ok, err := tui.PickDevice(pa.OutputDevices)
	if err != nil || !ok {
		return err
	}
	fmt.Printf("Selected %s. Play with:\n\n    %s %s <track>\n\n",
		sel.Name, build.GetBuildFlags().Name, sel.Flags())
	return nil
}

// play runs one playback session until ctx is cancelled or the track ends.
func play(ctx context.Context, cfg *config.Config) error {
	var output audio.Output = audio.HeadlessOutput{}
	if !cfg.Playback.Headless {
		if err := pa.Initialize(); err != nil {
			return err
		}
		defer pa.Terminate()
		output = &pa.Output{DeviceID: cfg.Playback.OutputDevice, LowLatency: cfg.Playback.LowLatency}
	}

	session, err := audio.NewSession(audio.SessionConfig{
		AssetDir:        cfg.Playback.AssetDir,
		FramesPerBuffer: cfg.Analysis.Size,
		Loop:            cfg.Playback.Loop,
	}, output)
	if err != nil {
		return err
	}
	if err := session.Load(cfg.Playback.Track); err != nil {
		return err
	}

	spectral, err := cfg.SpectralConfig(session.Track().SampleRate)
	if err != nil {
		return err
	}
	analyzer, err := analysis.NewAnalyzer(spectral)
	if err != nil {
		return err
	}
	applog.Infof("Analysis: %d-point FFT, %d bins, %s window, %.3f Hz per bin",
		spectral.Size, spectral.Bins, spectral.Window, spectral.BinWidth())

	mbox := mailbox.New(spectral.Bins)
	tp, err := tap.New(analyzer, mbox)
	if err != nil {
		return err
	}
	if err := session.AttachTap(tp); err != nil {
		return err
	}

	publisher, err := newPublisher(cfg, mbox, tp, session)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			applog.Warnf("Publisher: Close error: %v", err)
		}
	}()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if err := session.Start(); err != nil {
		return err
	}
	publisher.Start()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-session.Done():
			applog.Infof("Session: Reached end of %q", session.Track().Name)
			cancel()
		case <-ctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		reportDrops(ctx, tp, statsInterval)
		return nil
	})

	err = g.Wait()

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if stopErr := session.Stop(); stopErr != nil {
		applog.Warnf("Session: Stop error: %v", stopErr)
	}
	stats := tp.Stats()
	applog.Infof("Tap: %d blocks delivered, %d dropped, %d overwritten before publish",
		stats.Delivered, stats.Dropped, mbox.Overwritten())
	return err
}

// newPublisher wires the configured transports, and metrics when enabled,
// to a publisher reading from mbox.
func newPublisher(cfg *config.Config, mbox *mailbox.Mailbox, tp *tap.Tap, session *audio.Session) (*transport.Publisher, error) {
	publisher, err := transport.NewPublisher(cfg.Transport.PublishInterval, mbox)
	if err != nil {
		return nil, err
	}

	if cfg.Debug {
		publisher.AddTransport(transport.NewLoggingTransport())
	}

	if cfg.Transport.UDPEnabled {
		ut, err := udp.NewTransport(cfg.Transport.UDPTargetAddress)
		if err != nil {
			publisher.Close()
			return nil, err
		}
		publisher.AddTransport(ut)
	}

	if cfg.Transport.WebSocketEnabled {
		handlers := map[string]http.Handler{}
		if cfg.Transport.MetricsEnabled {
			m, err := metrics.New(metrics.Sources{
				Tap:       tp,
				Mailbox:   mbox,
				Publisher: publisher,
				Session:   session,
			}, true)
			if err != nil {
				publisher.Close()
				return nil, err
			}
			handlers[metrics.Path] = m.Handler()
		}

		ws, err := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress, handlers)
		if err != nil {
			publisher.Close()
			return nil, err
		}
		publisher.AddTransport(ws)
	}

	return publisher, nil
}

// reportDrops logs new analyzer rejections until ctx is done.
func reportDrops(ctx context.Context, tp *tap.Tap, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-ticker.C:
			s := tp.Stats()
			if s.Dropped > last {
				applog.Warnf("Tap: Dropped %d blocks (last error: %v)", s.Dropped-last, s.LastError)
				last = s.Dropped
			}
		case <-ctx.Done():
			return
		}
	}
}
