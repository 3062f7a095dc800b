// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"testing"

	"spectrum/pkg/utils"

	dspfft "github.com/mjibson/go-dsp/fft"
)

const (
	testSize       = 1024
	testBins       = 512
	testSampleRate = 48000
)

func newTestAnalyzer(t testing.TB, cfg Config) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer(%+v) error = %v", cfg, err)
	}
	return a
}

func defaultConfig() Config {
	return Config{Size: testSize, Bins: testBins, SampleRate: testSampleRate, MaxBlockSize: 4096}
}

func sineBlock(frames int, sampleRate, freq float64) Block {
	return Block{
		Samples:    utils.GenerateSineWave(frames, sampleRate, freq),
		Frames:     frames,
		SampleRate: sampleRate,
	}
}

func TestNewAnalyzerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"size not power of two", Config{Size: 1000, Bins: 100, SampleRate: 48000}},
		{"size one", Config{Size: 1, Bins: 1, SampleRate: 48000}},
		{"bins above half", Config{Size: 1024, Bins: 513, SampleRate: 48000}},
		{"zero bins", Config{Size: 1024, Bins: 0, SampleRate: 48000}},
		{"zero sample rate", Config{Size: 1024, Bins: 512}},
		{"max block below size", Config{Size: 1024, Bins: 512, SampleRate: 48000, MaxBlockSize: 512}},
		{"max block not power of two", Config{Size: 1024, Bins: 512, SampleRate: 48000, MaxBlockSize: 3000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAnalyzer(tt.cfg); err == nil {
				t.Errorf("NewAnalyzer(%+v) expected error", tt.cfg)
			}
		})
	}

	a := newTestAnalyzer(t, Config{Size: 256, Bins: 128, SampleRate: 8000})
	if a.Config().MaxBlockSize != 256 {
		t.Errorf("MaxBlockSize should default to Size, got %d", a.Config().MaxBlockSize)
	}
}

func TestAnalyzeSinePeak(t *testing.T) {
	tests := []struct {
		name       string
		frames     int
		sampleRate float64
		frequency  float64
	}{
		{"1kHz at 48kHz", 1024, 48000, 1000},
		{"440Hz at 44.1kHz", 1024, 44100, 440},
		{"5kHz at 48kHz", 1024, 48000, 5000},
		{"200Hz with 4096 frames", 4096, 48000, 200},
	}

	a := newTestAnalyzer(t, defaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := a.Analyze(sineBlock(tt.frames, tt.sampleRate, tt.frequency))
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}

			want := int(math.Round(tt.frequency * float64(tt.frames) / tt.sampleRate))
			got := utils.FindPeakBin(spec.Magnitudes, 1, len(spec.Magnitudes)-1)
			if got < want-1 || got > want+1 {
				t.Errorf("peak bin = %d, want %d±1", got, want)
			}

			if bin, _ := spec.Peak(); bin != got {
				t.Errorf("Spectrum.Peak() = %d, FindPeakBin = %d", bin, got)
			}
		})
	}
}

func TestAnalyzeExample1kHz(t *testing.T) {
	a := newTestAnalyzer(t, defaultConfig())

	spec, err := a.Analyze(sineBlock(1024, 48000, 1000))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	peak := utils.FindPeakBin(spec.Magnitudes, 1, len(spec.Magnitudes)-1)
	if peak < 20 || peak > 22 {
		t.Errorf("peak bin = %d, want 21±1", peak)
	}
	if f := spec.BinFrequency(peak); math.Abs(f-1000) > spec.BinWidth() {
		t.Errorf("peak frequency = %.1f Hz, want within one bin of 1000 Hz", f)
	}
	if spec.BinWidth() != 46.875 {
		t.Errorf("BinWidth() = %f, want 46.875", spec.BinWidth())
	}
}

func TestAnalyzeOutputLength(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		frames int
	}{
		{"half size above bins", Config{Size: 1024, Bins: 100, SampleRate: 48000}, 1024},
		{"half size equals bins", Config{Size: 1024, Bins: 512, SampleRate: 48000}, 1024},
		{"half size below bins", Config{Size: 1024, Bins: 512, SampleRate: 48000}, 256},
		{"smallest block", Config{Size: 1024, Bins: 512, SampleRate: 48000}, 2},
		{"larger block", Config{Size: 1024, Bins: 300, SampleRate: 48000, MaxBlockSize: 2048}, 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(t, tt.cfg)
			spec, err := a.Analyze(Block{
				Samples: utils.GenerateComplexWave(tt.frames, tt.cfg.SampleRate),
				Frames:  tt.frames,
			})
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if spec.Len() != tt.cfg.Bins {
				t.Fatalf("len = %d, want %d", spec.Len(), tt.cfg.Bins)
			}

			for i := tt.frames / 2; i < tt.cfg.Bins; i++ {
				if spec.Magnitudes[i] != 0 {
					t.Fatalf("bin %d = %g, want zero padding beyond N/2=%d", i, spec.Magnitudes[i], tt.frames/2)
				}
			}
			if spec.BlockSize != tt.frames {
				t.Errorf("BlockSize = %d, want %d", spec.BlockSize, tt.frames)
			}
			if spec.SampleRate != tt.cfg.SampleRate {
				t.Errorf("SampleRate = %f, want config rate %f", spec.SampleRate, tt.cfg.SampleRate)
			}
		})
	}
}

func TestAnalyzeSmallBlockPeak(t *testing.T) {
	a := newTestAnalyzer(t, defaultConfig())

	// 256 frames: 128 computed bins, the rest padded.
	spec, err := a.Analyze(sineBlock(256, 48000, 3000))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	want := int(math.Round(3000 * 256.0 / 48000))
	got := utils.FindPeakBin(spec.Magnitudes, 1, 127)
	if got < want-1 || got > want+1 {
		t.Errorf("peak bin = %d, want %d±1", got, want)
	}
}

func TestAnalyzeSilence(t *testing.T) {
	for _, w := range []WindowFunc{Rectangular, Hann} {
		t.Run(w.String(), func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Window = w
			a := newTestAnalyzer(t, cfg)

			// Dirty the scratch first so zeros come from the transform.
			if _, err := a.Analyze(sineBlock(1024, 48000, 1000)); err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}

			spec, err := a.Analyze(Block{Samples: make([]float32, 1024), Frames: 1024})
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			for i, v := range spec.Magnitudes {
				if v != 0 {
					t.Fatalf("bin %d = %g, want 0 for silence", i, v)
				}
			}
		})
	}
}

func TestAnalyzeBinZeroIsDCOnly(t *testing.T) {
	a := newTestAnalyzer(t, defaultConfig())

	dc := make([]float32, testSize)
	nyquist := make([]float32, testSize)
	for i := range testSize {
		dc[i] = 0.5
		nyquist[i] = 0.5
		if i%2 == 1 {
			nyquist[i] = -0.5
		}
	}

	spec, err := a.Analyze(Block{Samples: dc, Frames: testSize})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// Unscaled power: (N * 0.5)^2.
	want := math.Pow(testSize*0.5, 2)
	if got := spec.Magnitudes[0]; math.Abs(got-want) > 1e-6*want {
		t.Errorf("DC power = %g, want %g", got, want)
	}

	spec, err = a.Analyze(Block{Samples: nyquist, Frames: testSize})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for i, v := range spec.Magnitudes {
		if v > 1e-9 {
			t.Fatalf("bin %d = %g, want 0 for a Nyquist-only signal", i, v)
		}
	}
}

func TestAnalyzeRejectsInvalidBlocks(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  error
	}{
		{"nil samples", Block{Frames: 1024}, ErrEmptyBlock},
		{"zero frames", Block{Samples: make([]float32, 1024)}, ErrInvalidBlockSize},
		{"negative frames", Block{Samples: make([]float32, 1024), Frames: -1024}, ErrInvalidBlockSize},
		{"single frame", Block{Samples: make([]float32, 1), Frames: 1}, ErrInvalidBlockSize},
		{"irregular size", Block{Samples: make([]float32, 1000), Frames: 1000}, ErrInvalidBlockSize},
		{"odd size", Block{Samples: make([]float32, 1023), Frames: 1023}, ErrInvalidBlockSize},
		{"above max", Block{Samples: make([]float32, 8192), Frames: 8192}, ErrBlockTooLarge},
		{"short samples", Block{Samples: make([]float32, 512), Frames: 1024}, ErrShortBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(t, defaultConfig())

			before, err := a.Analyze(sineBlock(1024, 48000, 1000))
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			before = before.Clone()

			// Failure must be repeatable and leave scratch untouched.
			for range 3 {
				spec, err := a.Analyze(tt.block)
				if !errors.Is(err, tt.want) {
					t.Fatalf("Analyze() error = %v, want %v", err, tt.want)
				}
				if !IsAnalysisError(err) {
					t.Errorf("error %v is not an AnalysisError", err)
				}
				if spec.Magnitudes != nil {
					t.Errorf("failed analysis returned magnitudes")
				}
			}

			for i := range before.Magnitudes {
				if a.power[i] != before.Magnitudes[i] {
					t.Fatalf("scratch bin %d changed after failure: %g != %g", i, a.power[i], before.Magnitudes[i])
				}
			}
		})
	}
}

// The output must be the unscaled squared magnitude of the DFT.
func TestAnalyzeMatchesReferenceFFT(t *testing.T) {
	cfg := Config{Size: 1024, Bins: 512, SampleRate: 44100}
	a := newTestAnalyzer(t, cfg)

	samples := utils.GenerateComplexWave(cfg.Size, cfg.SampleRate)
	spec, err := a.Analyze(Block{Samples: samples, Frames: cfg.Size})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s)
	}
	ref := dspfft.FFTReal(input)

	for i := range cfg.Bins {
		re, im := real(ref[i]), imag(ref[i])
		want := re*re + im*im
		got := spec.Magnitudes[i]
		if math.Abs(got-want) > 1e-6*math.Max(1, want) {
			t.Fatalf("bin %d: got %g, reference %g", i, got, want)
		}
	}
}

func TestAnalyzeWindowedPeak(t *testing.T) {
	cfg := defaultConfig()
	cfg.Window = Hann
	a := newTestAnalyzer(t, cfg)

	spec, err := a.Analyze(sineBlock(1024, 48000, 1000))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	peak := utils.FindPeakBin(spec.Magnitudes, 1, len(spec.Magnitudes)-1)
	if peak < 20 || peak > 22 {
		t.Errorf("windowed peak bin = %d, want 21±1", peak)
	}
}

func TestAnalyzerReset(t *testing.T) {
	a := newTestAnalyzer(t, defaultConfig())
	if _, err := a.Analyze(sineBlock(1024, 48000, 1000)); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	a.Reset()
	for i, v := range a.power {
		if v != 0 {
			t.Fatalf("power[%d] = %g after Reset", i, v)
		}
	}
	for i, v := range a.input {
		if v != 0 {
			t.Fatalf("input[%d] = %g after Reset", i, v)
		}
	}
}

func TestAnalyzeHotPathZeroAllocs(t *testing.T) {
	cfg := defaultConfig()
	cfg.Window = Hann
	a := newTestAnalyzer(t, cfg)

	full := sineBlock(1024, 48000, 1000)
	small := sineBlock(256, 48000, 1000)
	bad := Block{Samples: make([]float32, 1000), Frames: 1000}

	allocs := testing.AllocsPerRun(100, func() {
		_, _ = a.Analyze(full)
		_, _ = a.Analyze(small)
		_, _ = a.Analyze(bad)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Analyze hot path, got %.1f", allocs)
	}
}

func TestSpectrumClone(t *testing.T) {
	a := newTestAnalyzer(t, defaultConfig())
	spec, err := a.Analyze(sineBlock(1024, 48000, 1000))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	kept := spec.Clone()
	if _, err := a.Analyze(Block{Samples: make([]float32, 1024), Frames: 1024}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if bin, power := kept.Peak(); power == 0 || bin == 0 {
		t.Error("clone was overwritten by the next analysis")
	}
	if kept.Config != spec.Config || kept.BlockSize != spec.BlockSize {
		t.Errorf("clone metadata = %+v, want %+v", kept, spec)
	}
}

func TestConfigBinFrequency(t *testing.T) {
	cfg := Config{Size: 1024, Bins: 512, SampleRate: 48000}
	tests := []struct {
		bin  int
		want float64
	}{
		{0, 0},
		{1, 46.875},
		{21, 984.375},
		{511, 23953.125},
	}
	for _, tt := range tests {
		if got := cfg.BinFrequency(tt.bin); got != tt.want {
			t.Errorf("BinFrequency(%d) = %f, want %f", tt.bin, got, tt.want)
		}
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"", Rectangular, false},
		{"none", Rectangular, false},
		{"Rectangular", Rectangular, false},
		{"HANN", Hann, false},
		{"hanning", Hann, false},
		{"hamming", Hamming, false},
		{"blackmannuttall", BlackmanNuttall, false},
		{"triangle", Rectangular, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWindowFunc(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseWindowFunc(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if Hann.String() != "hann" || WindowFunc(99).String() != "WindowFunc(99)" {
		t.Errorf("unexpected String() output: %s, %s", Hann, WindowFunc(99))
	}
}

func BenchmarkAnalyze(b *testing.B) {
	a := newTestAnalyzer(b, defaultConfig())
	block := Block{Samples: utils.GenerateComplexWave(testSize, testSampleRate), Frames: testSize}

	b.ReportAllocs()
	for b.Loop() {
		_, _ = a.Analyze(block)
	}
}
