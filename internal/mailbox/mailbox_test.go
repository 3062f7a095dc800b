// SPDX-License-Identifier: MIT
package mailbox

import (
	"sync"
	"testing"

	"spectrum/internal/analysis"
)

const testBins = 8

func spectrumOf(v float64) analysis.Spectrum {
	mags := make([]float64, testBins)
	for i := range mags {
		mags[i] = v
	}
	return analysis.Spectrum{Magnitudes: mags, BlockSize: 16, SampleRate: 48000}
}

func TestTryTakeEmpty(t *testing.T) {
	m := New(testBins)
	if _, ok := m.TryTake(); ok {
		t.Error("TryTake() on a new mailbox returned a value")
	}
	if m.Pending() {
		t.Error("Pending() on a new mailbox")
	}
}

func TestPublishThenTake(t *testing.T) {
	m := New(testBins)
	src := spectrumOf(3)
	seq := m.Publish(src)

	// The mailbox keeps its own copy.
	src.Magnitudes[0] = 99

	got, ok := m.TryTake()
	if !ok {
		t.Fatal("TryTake() returned nothing after Publish")
	}
	if got.Magnitudes[0] != 3 || got.Len() != testBins {
		t.Errorf("took %v, want %d values of 3", got.Magnitudes, testBins)
	}
	if got.Sequence != seq || seq != 1 {
		t.Errorf("Sequence = %d, Publish returned %d, want 1", got.Sequence, seq)
	}
	if got.BlockSize != 16 || got.SampleRate != 48000 {
		t.Errorf("metadata not carried over: %+v", got)
	}
}

func TestTryTakeIsDestructive(t *testing.T) {
	m := New(testBins)
	m.Publish(spectrumOf(1))

	if _, ok := m.TryTake(); !ok {
		t.Fatal("first TryTake() returned nothing")
	}
	if _, ok := m.TryTake(); ok {
		t.Error("second TryTake() returned a value; take must be destructive")
	}
}

func TestLatestWins(t *testing.T) {
	m := New(testBins)
	m.Publish(spectrumOf(1))
	m.Publish(spectrumOf(2))

	got, ok := m.TryTake()
	if !ok {
		t.Fatal("TryTake() returned nothing")
	}
	if got.Magnitudes[0] != 2 || got.Sequence != 2 {
		t.Errorf("took value %v seq %d, want the latest (2, 2)", got.Magnitudes[0], got.Sequence)
	}
	if m.Overwritten() != 1 {
		t.Errorf("Overwritten() = %d, want 1", m.Overwritten())
	}
	if _, ok := m.TryTake(); ok {
		t.Error("the overwritten value must be lost")
	}
}

func TestTakenValueSurvivesPublishes(t *testing.T) {
	m := New(testBins)
	m.Publish(spectrumOf(1))
	got, _ := m.TryTake()

	// The producer may cycle through the other two slots.
	for i := range 10 {
		m.Publish(spectrumOf(float64(10 + i)))
	}
	if got.Magnitudes[0] != 1 {
		t.Errorf("taken spectrum changed to %v before the next TryTake", got.Magnitudes[0])
	}
}

func TestClear(t *testing.T) {
	m := New(testBins)
	m.Publish(spectrumOf(1))
	m.Clear()

	if _, ok := m.TryTake(); ok {
		t.Error("TryTake() returned a value after Clear")
	}

	m.Clear() // No-op when empty.

	m.Publish(spectrumOf(5))
	got, ok := m.TryTake()
	if !ok || got.Magnitudes[0] != 5 {
		t.Errorf("publish after Clear: got (%v, %v), want 5", got.Magnitudes, ok)
	}
	if got.Sequence != 2 {
		t.Errorf("Sequence = %d, want 2 (monotonic across Clear)", got.Sequence)
	}
}

func TestPublishZeroAllocs(t *testing.T) {
	m := New(testBins)
	s := spectrumOf(1)
	m.Publish(s)

	allocs := testing.AllocsPerRun(100, func() {
		m.Publish(s)
		m.TryTake()
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Publish/TryTake, got %.1f", allocs)
	}
}

// One producer, one consumer: the consumer must see strictly increasing
// sequence numbers and never a torn spectrum.
func TestConcurrentProducerConsumer(t *testing.T) {
	const publishes = 20000

	m := New(testBins)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := spectrumOf(0)
		for i := 1; i <= publishes; i++ {
			for j := range s.Magnitudes {
				s.Magnitudes[j] = float64(i)
			}
			m.Publish(s)
		}
	}()

	var last uint64
	taken := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		got, ok := m.TryTake()
		if !ok {
			continue
		}
		taken++
		if got.Sequence <= last {
			t.Fatalf("sequence went from %d to %d", last, got.Sequence)
		}
		last = got.Sequence
		want := got.Magnitudes[0]
		for j, v := range got.Magnitudes {
			if v != want {
				t.Fatalf("torn spectrum: bin %d = %v, bin 0 = %v", j, v, want)
			}
		}
		if uint64(want) != got.Sequence {
			t.Fatalf("spectrum value %v does not match sequence %d", want, got.Sequence)
		}
	}

	if taken == 0 {
		t.Fatal("consumer never observed a value")
	}
	if last != publishes {
		if got, ok := m.TryTake(); !ok || got.Sequence != publishes {
			t.Errorf("final value not delivered: last seen %d", last)
		}
	}
}

func BenchmarkPublish(b *testing.B) {
	m := New(512)
	s := analysis.Spectrum{Magnitudes: make([]float64, 512)}
	b.ReportAllocs()
	for b.Loop() {
		m.Publish(s)
	}
}
