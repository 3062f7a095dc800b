// SPDX-License-Identifier: MIT
/*
Package mailbox hands spectra from the audio render thread to a consumer.

Mailbox is a single-slot, latest-wins handoff implemented as a lock-free
triple buffer:

	producer ──Publish──▶ [back] ⇄ [middle] ⇄ [front] ◀──TryTake── consumer

The producer fills its private back slot and swaps it with the shared middle
slot. The consumer swaps its private front slot with the middle slot when a
fresh value is pending. Both swaps happen on a single atomic word holding the
middle slot index and a "fresh" flag, so a reader never sees a partially
written spectrum and a writer never waits.

Exactly one goroutine may call Publish and exactly one may call TryTake.
*/
package mailbox

import (
	"sync/atomic"

	"spectrum/internal/analysis"
)

const (
	indexMask uint32 = 0b011
	freshBit  uint32 = 0b100
)

// Mailbox is a single-producer/single-consumer latest-wins spectrum slot.
type Mailbox struct {
	slots [3]analysis.Spectrum

	// Middle slot index and fresh flag, shared by both sides.
	state atomic.Uint32

	// Owned by the producer.
	back int
	seq  uint64

	// Owned by the consumer.
	front int

	overwritten atomic.Uint64
}

// New creates a mailbox whose slots hold spectra of up to bins values.
func New(bins int) *Mailbox {
	m := &Mailbox{back: 0, front: 2}
	for i := range m.slots {
		m.slots[i].Magnitudes = make([]float64, 0, bins)
	}
	m.state.Store(1)
	return m
}

// Publish copies s into the mailbox, replacing any value that has not been
// taken yet. It never blocks and does not allocate as long as s fits the
// capacity given to New.
func (m *Mailbox) Publish(s analysis.Spectrum) uint64 {
	m.seq++
	slot := &m.slots[m.back]
	s.CopyInto(slot)
	slot.Sequence = m.seq

	prev := m.state.Swap(uint32(m.back) | freshBit)
	m.back = int(prev & indexMask)
	if prev&freshBit != 0 {
		m.overwritten.Add(1)
	}
	return m.seq
}

// TryTake removes and returns the pending spectrum, or reports false when
// nothing new was published since the last take. The returned magnitudes
// stay valid until the next TryTake.
func (m *Mailbox) TryTake() (analysis.Spectrum, bool) {
	for {
		s := m.state.Load()
		if s&freshBit == 0 {
			return analysis.Spectrum{}, false
		}
		// CAS rather than Swap so a concurrent Clear wins over a stale take.
		if m.state.CompareAndSwap(s, uint32(m.front)) {
			m.front = int(s & indexMask)
			return m.slots[m.front], true
		}
	}
}

// Pending reports whether a value is waiting to be taken.
func (m *Mailbox) Pending() bool {
	return m.state.Load()&freshBit != 0
}

// Clear discards a pending value without taking it. It is used when the
// producer has been detached so nothing published before a stop can be
// observed afterwards.
func (m *Mailbox) Clear() {
	for {
		s := m.state.Load()
		if s&freshBit == 0 {
			return
		}
		if m.state.CompareAndSwap(s, s&^freshBit) {
			return
		}
	}
}

// Overwritten returns how many published values were replaced before the
// consumer took them.
func (m *Mailbox) Overwritten() uint64 {
	return m.overwritten.Load()
}
