// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
const wavFormatPCM = 1

// ResolveAsset maps a track name to a file under dir. Names without an
// extension get ".wav", matching how assets are bundled.
func ResolveAsset(dir, name string) string {
	if filepath.Ext(name) == "" {
		name += ".wav"
	}
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// DecodeFile opens and decodes the WAV file at path.
func DecodeFile(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Decode(f, name)
}

// Decode reads an integer PCM WAV stream into a Track with samples
// normalised to [-1, 1].
func Decode(r io.ReadSeeker, name string) (*Track, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s: not a valid WAV file", ErrDecode, name)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: %s: unsupported WAV format %d (only integer PCM)", ErrDecode, name, dec.WavAudioFormat)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %s: missing channel count or sample rate", ErrDecode, name)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}

	channels := int(dec.NumChans)
	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, fmt.Errorf("%w: %s: no audio frames", ErrDecode, name)
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %s: unsupported bit depth %d", ErrDecode, name, bitDepth)
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))

	samples := make([]float32, frames*channels)
	for i := range samples {
		samples[i] = float32(float64(buf.Data[i]) * scale)
	}

	return &Track{
		Name:       name,
		Samples:    samples,
		Channels:   channels,
		SampleRate: float64(dec.SampleRate),
		Frames:     frames,
	}, nil
}
