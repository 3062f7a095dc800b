// SPDX-License-Identifier: MIT
/*
Package tap connects a playback session's render thread to spectrum
analysis.

For every rendered block the Tap extracts channel 0, runs the analyzer and
publishes the result into a mailbox. Blocks the analyzer rejects are counted
and dropped. Render never locks, allocates or logs.

Attach/detach protocol:
- Render increments an in-flight counter before checking the attached flag
- OnStop clears the flag, then waits for the counter to drain
- Once OnStop returns no Render can reach the analyzer or the mailbox
*/
package tap

import (
	"errors"
	"runtime"
	"sync/atomic"

	"spectrum/internal/analysis"
	"spectrum/internal/audio"
	"spectrum/internal/mailbox"
)

// Tap is an audio.Tap that feeds a mailbox with spectra.
type Tap struct {
	analyzer *analysis.Analyzer
	mailbox  *mailbox.Mailbox
	mono     []float32 // Channel 0 scratch, MaxBlockSize long

	attached atomic.Bool
	inflight atomic.Int32

	delivered atomic.Uint64
	dropped   atomic.Uint64
	lastErr   atomic.Pointer[analysis.AnalysisError]
}

var _ audio.Tap = (*Tap)(nil)

// Stats is a snapshot of tap counters.
type Stats struct {
	Delivered uint64 // Spectra published to the mailbox
	Dropped   uint64 // Blocks rejected by the analyzer
	LastError error  // Most recent rejection, nil if none
}

// New creates a detached tap. The analyzer and mailbox are owned by the tap
// from here on: the analyzer must not be used elsewhere and the tap is the
// mailbox's only producer.
func New(a *analysis.Analyzer, m *mailbox.Mailbox) (*Tap, error) {
	if a == nil || m == nil {
		return nil, errors.New("tap: analyzer and mailbox are required")
	}
	return &Tap{
		analyzer: a,
		mailbox:  m,
		mono:     make([]float32, a.Config().MaxBlockSize),
	}, nil
}

// Render analyzes one block. It is called on the render thread.
func (t *Tap) Render(buf audio.RenderBuffer) {
	t.inflight.Add(1)
	defer t.inflight.Add(-1)

	if !t.attached.Load() {
		return
	}

	channels := buf.Channels
	if channels <= 0 {
		t.drop(analysis.ErrEmptyBlock)
		return
	}
	if buf.Frames < 0 {
		t.drop(analysis.ErrInvalidBlockSize)
		return
	}
	if buf.Frames > len(t.mono) {
		t.drop(analysis.ErrBlockTooLarge)
		return
	}

	n := min(buf.Frames, len(buf.Data)/channels)
	mono := t.mono[:n]
	for i := range mono {
		mono[i] = buf.Data[i*channels]
	}

	spectrum, err := t.analyzer.Analyze(analysis.Block{
		Samples:    mono,
		Frames:     buf.Frames,
		SampleRate: buf.SampleRate,
	})
	if err != nil {
		ae, _ := err.(*analysis.AnalysisError)
		t.drop(ae)
		return
	}

	t.mailbox.Publish(spectrum)
	t.delivered.Add(1)
}

func (t *Tap) drop(err *analysis.AnalysisError) {
	t.dropped.Add(1)
	if err != nil {
		t.lastErr.Store(err)
	}
}

// OnStart attaches the tap.
func (t *Tap) OnStart() {
	t.attached.Store(true)
}

// OnStop detaches the tap, waits for in-flight Render calls, then resets
// the analyzer and discards any spectrum not yet taken.
func (t *Tap) OnStop() {
	t.attached.Store(false)
	for t.inflight.Load() != 0 {
		runtime.Gosched()
	}
	t.analyzer.Reset()
	t.mailbox.Clear()
}

// Attached reports whether the tap is currently attached.
func (t *Tap) Attached() bool {
	return t.attached.Load()
}

// Stats returns the current counters. Safe to call from any goroutine.
func (t *Tap) Stats() Stats {
	s := Stats{
		Delivered: t.delivered.Load(),
		Dropped:   t.dropped.Load(),
	}
	if err := t.lastErr.Load(); err != nil {
		s.LastError = err
	}
	return s
}
