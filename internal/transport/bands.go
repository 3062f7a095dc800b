// SPDX-License-Identifier: MIT
package transport

import "spectrum/internal/analysis"

// FrequencyBand defines the name and frequency range for an energy band.
// A HighHz of zero extends the band to the Nyquist frequency.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// BandEnergy is the mean power of the bins inside a band.
type BandEnergy struct {
	Name   string  `json:"name"`
	Energy float64 `json:"energy"`
}

// DefaultBands splits the audible range the way mixing engineers usually do.
var DefaultBands = []FrequencyBand{
	{Name: "sub", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 250},
	{Name: "lowMid", LowHz: 250, HighHz: 500},
	{Name: "mid", LowHz: 500, HighHz: 2000},
	{Name: "highMid", LowHz: 2000, HighHz: 4000},
	{Name: "treble", LowHz: 4000},
}

// ComputeBands averages the power of spec's bins per band, using the
// spectrum's own bin to frequency mapping. Bands with no bins report zero.
func ComputeBands(spec analysis.Spectrum, bands []FrequencyBand) []BandEnergy {
	out := make([]BandEnergy, len(bands))
	counts := make([]int, len(bands))
	nyquist := spec.SampleRate / 2

	for i := range out {
		out[i].Name = bands[i].Name
	}

	for i, power := range spec.Magnitudes {
		freq := spec.BinFrequency(i)
		for b, band := range bands {
			high := band.HighHz
			if high <= 0 {
				high = nyquist
			}
			if freq >= band.LowHz && freq < high {
				out[b].Energy += power
				counts[b]++
				break
			}
		}
	}

	for b := range out {
		if counts[b] > 0 {
			out[b].Energy /= float64(counts[b])
		}
	}
	return out
}
