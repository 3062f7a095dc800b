// SPDX-License-Identifier: MIT
package audio

import "fmt"

// RenderBuffer is one block of already-mixed interleaved output audio, as
// handed to an attached Tap on the render thread. Data is only valid for the
// duration of the call.
type RenderBuffer struct {
	Data       []float32 // Interleaved samples, Frames*Channels long
	Channels   int
	Frames     int
	SampleRate float64
}

// Tap receives rendered blocks from a Session. Render runs on the real-time
// render thread and must not block or allocate. OnStart is called before
// the first Render of a playback run; OnStop is called when playback stops
// and must not return while a Render call is still executing.
type Tap interface {
	Render(buf RenderBuffer)
	OnStart()
	OnStop()
}

// State is the lifecycle state of a Session.
type State int32

const (
	Idle State = iota
	Loaded
	Playing
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Track is a fully decoded audio asset.
type Track struct {
	Name       string
	Samples    []float32 // Interleaved, normalised to [-1, 1]
	Channels   int
	SampleRate float64
	Frames     int
}

// Duration returns the playback length in seconds.
func (t *Track) Duration() float64 {
	if t.SampleRate == 0 {
		return 0
	}
	return float64(t.Frames) / t.SampleRate
}
