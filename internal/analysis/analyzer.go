// SPDX-License-Identifier: MIT
/*
Package analysis turns blocks of rendered audio into power spectra.

The Analyzer is built for the audio render thread:
- Every FFT plan and scratch buffer is allocated by NewAnalyzer
- Analyze performs no allocation, locking or I/O
- Failures are pre-allocated *AnalysisError values

An Analyzer is not safe for concurrent use; each render path owns one.
*/
package analysis

import (
	"spectrum/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Analyzer computes fixed-length power spectra with a real radix-2 FFT.
type Analyzer struct {
	cfg Config

	// Indexed by FFT order (log2 of the block size).
	plans   []*fourier.FFT
	windows [][]float64

	input  []float64    // Windowed samples
	coeffs []complex128 // FFT output, N/2+1 values
	power  []float64    // Published bins
}

// NewAnalyzer validates cfg and pre-allocates a plan for every power-of-2
// block size up to cfg.MaxBlockSize, so blocks that differ from cfg.Size are
// still transformed without allocating.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxBlockSize == 0 {
		cfg.MaxBlockSize = cfg.Size
	}

	maxBlock := cfg.maxBlockSize()
	maxOrder := bitint.Log2(maxBlock)

	a := &Analyzer{
		cfg:     cfg,
		plans:   make([]*fourier.FFT, maxOrder+1),
		windows: make([][]float64, maxOrder+1),
		input:   make([]float64, maxBlock),
		coeffs:  make([]complex128, maxBlock/2+1),
		power:   make([]float64, cfg.Bins),
	}
	for order := 1; order <= maxOrder; order++ {
		n := 1 << order
		a.plans[order] = fourier.NewFFT(n)
		a.windows[order] = windowCoefficients(cfg.Window, n)
	}

	return a, nil
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze transforms block into a power spectrum of exactly Config.Bins
// values. For a block of N frames the first N/2 FFT outputs are used:
// when N/2 exceeds the bin count the highest frequencies are dropped, when
// it is smaller the remaining bins are zero.
//
// The returned Magnitudes alias analyzer scratch and are overwritten by the
// next call. On error the scratch is left untouched.
func (a *Analyzer) Analyze(block Block) (Spectrum, error) {
	n := block.Frames
	switch {
	case len(block.Samples) == 0:
		return Spectrum{}, ErrEmptyBlock
	case n < 2 || !bitint.IsPowerOfTwo(n):
		return Spectrum{}, ErrInvalidBlockSize
	case n > a.cfg.MaxBlockSize:
		return Spectrum{}, ErrBlockTooLarge
	case len(block.Samples) < n:
		return Spectrum{}, ErrShortBlock
	}

	order := bitint.Log2(n)
	input := a.input[:n]
	if w := a.windows[order]; w != nil {
		for i := range input {
			input[i] = float64(block.Samples[i]) * w[i]
		}
	} else {
		for i := range input {
			input[i] = float64(block.Samples[i])
		}
	}

	coeffs := a.plans[order].Coefficients(a.coeffs[:n/2+1], input)

	half := n / 2
	for i := range a.power {
		if i >= half {
			a.power[i] = 0
			continue
		}
		re, im := real(coeffs[i]), imag(coeffs[i])
		a.power[i] = re*re + im*im
	}

	rate := block.SampleRate
	if rate <= 0 {
		rate = a.cfg.SampleRate
	}

	return Spectrum{
		Magnitudes: a.power,
		BlockSize:  n,
		SampleRate: rate,
		Config:     a.cfg,
	}, nil
}

// Reset zeroes all scratch buffers. It must not run concurrently with Analyze.
func (a *Analyzer) Reset() {
	clear(a.input)
	clear(a.coeffs)
	clear(a.power)
}
