// SPDX-License-Identifier: MIT
/*
Package audio owns playback: decoding tracks, driving an output stream and
feeding every rendered block to an attached Tap.

Lifecycle:

	Idle ──Load──▶ Loaded ──Start──▶ Playing ──Stop──▶ Stopped ──Start──▶ Playing

Thread Safety:
- Control methods (Load, Start, Stop, AttachTap) are serialised by a mutex
- The render callback never takes that mutex; it only touches state owned
  by the current playback run
- Stop detaches the tap and waits for in-flight callbacks before tearing
  the stream down
*/
package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	applog "spectrum/internal/log"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	AssetDir        string // Directory track names are resolved against
	FramesPerBuffer int    // Frames per rendered block
	Loop            bool   // Restart the track when it ends
}

// Session is a playback session. Sessions are independent; any number may
// exist at once.
type Session struct {
	cfg    SessionConfig
	output Output

	mu     sync.Mutex
	state  State
	track  *Track
	tap    Tap
	stream Stream
	run    *renderer
}

// NewSession creates an idle session rendering through out.
func NewSession(cfg SessionConfig, out Output) (*Session, error) {
	if out == nil {
		return nil, errors.New("session: output cannot be nil")
	}
	if cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("session: frames per buffer must be positive, got %d", cfg.FramesPerBuffer)
	}
	return &Session{cfg: cfg, output: out}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Track returns the loaded track, or nil.
func (s *Session) Track() *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// Load resolves name under the asset directory and decodes it. It fails
// with ErrResourceNotFound or ErrDecode, leaving any previously loaded track
// in place, and with an *EngineStateError while playing.
func (s *Session) Load(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Playing {
		return &EngineStateError{Op: "load", State: s.state}
	}

	path := ResolveAsset(s.cfg.AssetDir, name)
	track, err := DecodeFile(path)
	if err != nil {
		return err
	}

	s.setTrack(track)
	applog.Infof("Session: Loaded track %q (%d ch, %.0f Hz, %.1fs)",
		track.Name, track.Channels, track.SampleRate, track.Duration())
	return nil
}

// LoadTrack installs an already decoded track.
func (s *Session) LoadTrack(track *Track) error {
	if track == nil || track.Frames <= 0 || track.Channels <= 0 || track.SampleRate <= 0 ||
		len(track.Samples) < track.Frames*track.Channels {
		return fmt.Errorf("%w: track is empty or inconsistent", ErrDecode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Playing {
		return &EngineStateError{Op: "load", State: s.state}
	}
	s.setTrack(track)
	return nil
}

func (s *Session) setTrack(track *Track) {
	s.track = track
	s.state = Loaded
}

// AttachTap registers the tap that receives rendered blocks. Only one tap
// is attached at a time; the tap cannot change while playing.
func (s *Session) AttachTap(t Tap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Playing {
		return &EngineStateError{Op: "attach tap", State: s.state}
	}
	s.tap = t
	return nil
}

// DetachTap removes the attached tap.
func (s *Session) DetachTap() error {
	return s.AttachTap(nil)
}

// Start begins playback from the start of the loaded track. Starting
// without a track or while already playing fails with an *EngineStateError.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle || s.state == Playing {
		return &EngineStateError{Op: "start", State: s.state}
	}

	run := newRenderer(s.track, s.tap, s.cfg.Loop)
	params := StreamParams{
		Channels:        s.track.Channels,
		SampleRate:      s.track.SampleRate,
		FramesPerBuffer: s.cfg.FramesPerBuffer,
	}

	if s.tap != nil {
		s.tap.OnStart()
	}

	stream, err := s.output.Open(params, run.render)
	if err != nil {
		s.stopTap()
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		s.stopTap()
		stream.Close()
		return fmt.Errorf("failed to start output stream: %w", err)
	}

	s.stream = stream
	s.run = run
	s.state = Playing
	applog.Infof("Session: Playing %q (%d frames per buffer)", s.track.Name, s.cfg.FramesPerBuffer)
	return nil
}

// Stop ends playback. The tap is detached and drained first, so no block
// reaches it once Stop returns. Stopping a session that is not playing is
// a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Playing {
		applog.Debugf("Session: Stop called while %s", s.state)
		return nil
	}

	s.stopTap()

	var errs []error
	if err := s.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop output stream: %w", err))
	}
	if err := s.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close output stream: %w", err))
	}
	s.stream = nil
	s.state = Stopped
	applog.Infof("Session: Stopped %q", s.track.Name)

	return errors.Join(errs...)
}

func (s *Session) stopTap() {
	if s.tap != nil {
		s.tap.OnStop()
	}
}

// Done returns a channel closed when the current run reaches the end of a
// non-looping track. Before the first Start it returns nil.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	return s.run.done
}

// Close stops playback if needed.
func (s *Session) Close() error {
	return s.Stop()
}

// renderer holds the state of one playback run. Everything except done is
// owned by the render thread.
type renderer struct {
	samples    []float32
	channels   int
	frames     int
	sampleRate float64
	tap        Tap
	loop       bool

	pos      int
	finished atomic.Bool
	done     chan struct{}
}

func newRenderer(track *Track, tap Tap, loop bool) *renderer {
	return &renderer{
		samples:    track.Samples,
		channels:   track.Channels,
		frames:     track.Frames,
		sampleRate: track.SampleRate,
		tap:        tap,
		loop:       loop,
		done:       make(chan struct{}),
	}
}

// render copies the next block of the track into out, pads with silence
// after the end, and passes the mixed block to the tap.
func (r *renderer) render(out []float32) {
	ch := r.channels
	frames := len(out) / ch

	n := 0
	for n < frames {
		if r.pos >= r.frames {
			if !r.loop {
				break
			}
			r.pos = 0
		}
		k := min(frames-n, r.frames-r.pos)
		copy(out[n*ch:(n+k)*ch], r.samples[r.pos*ch:(r.pos+k)*ch])
		n += k
		r.pos += k
	}
	clear(out[n*ch:])

	if !r.loop && r.pos >= r.frames && r.finished.CompareAndSwap(false, true) {
		close(r.done)
	}

	if r.tap != nil {
		r.tap.Render(RenderBuffer{
			Data:       out[:frames*ch],
			Channels:   ch,
			Frames:     frames,
			SampleRate: r.sampleRate,
		})
	}
}
