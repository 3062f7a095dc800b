// SPDX-License-Identifier: MIT
package pa

import (
	"errors"
	"fmt"

	"spectrum/internal/audio"
	applog "spectrum/internal/log"

	"github.com/gordonklaus/portaudio"
)

// Output opens PortAudio output streams. Initialize must have been called.
type Output struct {
	DeviceID   int  // config.MinDeviceID selects the default output device
	LowLatency bool // Use the device's low output latency
}

var _ audio.Output = (*Output)(nil)

// Open opens an interleaved float32 output stream on the configured device.
// The render function is called from PortAudio's callback thread.
func (o *Output) Open(params audio.StreamParams, render audio.RenderFunc) (audio.Stream, error) {
	if render == nil {
		return nil, errors.New("portaudio output: render function cannot be nil")
	}

	device, err := OutputDevice(o.DeviceID)
	if err != nil {
		return nil, err
	}
	if params.Channels > device.MaxOutputChannels {
		return nil, fmt.Errorf("device %s supports %d output channels, track needs %d",
			device.Name, device.MaxOutputChannels, params.Channels)
	}

	latency := device.DefaultHighOutputLatency
	if o.LowLatency {
		latency = device.DefaultLowOutputLatency
	}

	sp := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Channels: params.Channels,
			Device:   device,
			Latency:  latency,
		},
		FramesPerBuffer: params.FramesPerBuffer,
		SampleRate:      params.SampleRate,
	}

	stream, err := portaudio.OpenStream(sp, func(out []float32) {
		render(out)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open stream on %s: %w", device.Name, err)
	}

	applog.Debugf("PortAudio: Opened %s (%d ch, %.0f Hz, %d frames, latency %s)",
		device.Name, params.Channels, params.SampleRate, params.FramesPerBuffer, latency)
	return stream, nil
}
