// SPDX-License-Identifier: MIT
package transport

import (
	"time"

	"spectrum/internal/analysis"
)

// FrameTypeSpectrum tags spectrum frames on the wire.
const FrameTypeSpectrum = "spectrum"

// Frame is the consumer-facing form of a spectrum. Frames own their data and
// are never modified after construction, so transports may queue them.
type Frame struct {
	Type       string       `json:"type"`
	Sequence   uint64       `json:"seq"`
	Timestamp  int64        `json:"timestamp"` // Unix nanoseconds
	SampleRate float64      `json:"sampleRate"`
	BlockSize  int          `json:"blockSize"`
	BinWidth   float64      `json:"binWidth"` // Hz between adjacent bins
	Power      []float32    `json:"power"`    // Squared magnitude per bin
	Bands      []BandEnergy `json:"bands,omitempty"`
}

// NewFrame copies spec into a new frame stamped with ts. Band energies are
// computed when bands is non-empty.
func NewFrame(spec analysis.Spectrum, ts time.Time, bands []FrequencyBand) Frame {
	power := make([]float32, len(spec.Magnitudes))
	for i, v := range spec.Magnitudes {
		power[i] = float32(v)
	}

	f := Frame{
		Type:       FrameTypeSpectrum,
		Sequence:   spec.Sequence,
		Timestamp:  ts.UnixNano(),
		SampleRate: spec.SampleRate,
		BlockSize:  spec.BlockSize,
		BinWidth:   spec.BinWidth(),
		Power:      power,
	}
	if len(bands) > 0 {
		f.Bands = ComputeBands(spec, bands)
	}
	return f
}

// BinFrequency returns the frequency in Hz of bin i.
func (f Frame) BinFrequency(i int) float64 {
	return float64(i) * f.BinWidth
}

// Peak returns the strongest bin above DC and its power.
func (f Frame) Peak() (bin int, power float32) {
	for i := 1; i < len(f.Power); i++ {
		if f.Power[i] > power {
			bin, power = i, f.Power[i]
		}
	}
	return bin, power
}
