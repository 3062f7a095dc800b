// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"sync"
	"time"

	applog "spectrum/internal/log"
)

// StreamParams describes the output stream a Session needs.
type StreamParams struct {
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
}

// RenderFunc fills out with the next interleaved block. It is called on the
// output's render thread.
type RenderFunc func(out []float32)

// Output opens render streams. Implementations exist for PortAudio devices
// (package audio/pa) and for headless rendering.
type Output interface {
	Open(params StreamParams, render RenderFunc) (Stream, error)
}

// Stream is an opened output stream. Stop must not return while the render
// function is still executing.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// HeadlessOutput renders at the real-time block cadence without an audio
// device. Blocks are produced by a goroutine paced by a ticker, so the
// analysis pipeline behaves as it would during real playback.
type HeadlessOutput struct{}

// Open prepares a headless stream; rendering begins on Start.
func (HeadlessOutput) Open(params StreamParams, render RenderFunc) (Stream, error) {
	if params.Channels <= 0 || params.FramesPerBuffer <= 0 || params.SampleRate <= 0 {
		return nil, errors.New("headless output: channels, frames per buffer and sample rate must be positive")
	}
	period := time.Duration(float64(params.FramesPerBuffer) / params.SampleRate * float64(time.Second))
	return &headlessStream{
		render: render,
		buf:    make([]float32, params.FramesPerBuffer*params.Channels),
		period: period,
	}, nil
}

type headlessStream struct {
	render RenderFunc
	buf    []float32
	period time.Duration

	mu       sync.Mutex // Protects doneChan during Start/Stop
	doneChan chan struct{}
	wg       sync.WaitGroup
}

func (s *headlessStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doneChan != nil {
		return errors.New("headless output: stream already started")
	}

	s.doneChan = make(chan struct{})
	done := s.doneChan
	ticker := time.NewTicker(s.period)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		applog.Debugf("HeadlessOutput: Render loop started (period %s)", s.period)
		for {
			select {
			case <-ticker.C:
				s.render(s.buf)
			case <-done:
				return
			}
		}
	}()
	return nil
}

func (s *headlessStream) Stop() error {
	s.mu.Lock()
	done := s.doneChan
	s.doneChan = nil
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	close(done)
	s.wg.Wait()
	applog.Debugf("HeadlessOutput: Render loop stopped")
	return nil
}

func (s *headlessStream) Close() error {
	return s.Stop()
}
