// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"spectrum/pkg/bitint"
)

// Config is the immutable configuration of an Analyzer.
type Config struct {
	Size         int        // Analysis size in frames, a power of 2.
	Bins         int        // Number of published bins, <= Size/2.
	SampleRate   float64    // Sample rate in Hz.
	Window       WindowFunc // Window applied before the FFT.
	MaxBlockSize int        // Largest accepted block; 0 means Size.
}

// Validate checks the invariants the analyzer relies on.
func (c Config) Validate() error {
	if c.Size < 2 || !bitint.IsPowerOfTwo(c.Size) {
		return fmt.Errorf("analysis size must be a power of 2 >= 2, got %d", c.Size)
	}
	if c.Bins < 1 || c.Bins > c.Size/2 {
		return fmt.Errorf("bin count must be between 1 and %d, got %d", c.Size/2, c.Bins)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %f", c.SampleRate)
	}
	if c.MaxBlockSize != 0 && (!bitint.IsPowerOfTwo(c.MaxBlockSize) || c.MaxBlockSize < c.Size) {
		return fmt.Errorf("max block size must be a power of 2 >= %d, got %d", c.Size, c.MaxBlockSize)
	}
	return nil
}

func (c Config) maxBlockSize() int {
	if c.MaxBlockSize == 0 {
		return c.Size
	}
	return c.MaxBlockSize
}

// BinWidth returns the frequency spacing of bins in Hz for blocks of Size frames.
func (c Config) BinWidth() float64 {
	return c.SampleRate / float64(c.Size)
}

// BinFrequency returns the frequency in Hz of bin i for blocks of Size
// frames, for axis labelling.
func (c Config) BinFrequency(i int) float64 {
	return float64(i) * c.BinWidth()
}

// Block is one channel of real-valued samples handed to the analyzer.
type Block struct {
	Samples    []float32
	Frames     int
	SampleRate float64 // Rate in effect when the block was rendered; 0 uses Config.SampleRate.
}

// Spectrum is the power spectrum of one block: Magnitudes[i] is the squared
// magnitude re²+im² of FFT bin i, not its amplitude. Values are unscaled and
// bin 0 holds the DC term only; Nyquist is not folded into it. The slice
// always holds exactly Config.Bins values.
//
// A Spectrum returned by Analyzer.Analyze or Mailbox.TryTake aliases a
// buffer owned by its producer; use Clone to keep it.
type Spectrum struct {
	Magnitudes []float64
	BlockSize  int     // Frame count the spectrum was computed from.
	SampleRate float64 // Sample rate of the analysed block.
	Config     Config
	Sequence   uint64 // Assigned by the mailbox on publish.
}

// Len returns the number of bins.
func (s Spectrum) Len() int {
	return len(s.Magnitudes)
}

// BinWidth returns the spacing of bins in Hz.
func (s Spectrum) BinWidth() float64 {
	if s.BlockSize == 0 {
		return 0
	}
	return s.SampleRate / float64(s.BlockSize)
}

// BinFrequency returns the frequency in Hz of bin i.
func (s Spectrum) BinFrequency(i int) float64 {
	return float64(i) * s.BinWidth()
}

// Peak returns the bin with the largest power, ignoring DC.
func (s Spectrum) Peak() (bin int, power float64) {
	for i := 1; i < len(s.Magnitudes); i++ {
		if s.Magnitudes[i] > power {
			bin, power = i, s.Magnitudes[i]
		}
	}
	return bin, power
}

// CopyInto copies s into dst, reusing dst's magnitude buffer when it is
// large enough.
func (s Spectrum) CopyInto(dst *Spectrum) {
	mags := dst.Magnitudes
	if cap(mags) < len(s.Magnitudes) {
		mags = make([]float64, len(s.Magnitudes))
	}
	mags = mags[:len(s.Magnitudes)]
	copy(mags, s.Magnitudes)
	*dst = s
	dst.Magnitudes = mags
}

// Clone returns a copy of s that owns its magnitudes.
func (s Spectrum) Clone() Spectrum {
	var out Spectrum
	s.CopyInto(&out)
	return out
}
