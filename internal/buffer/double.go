// Package buffer provides the two-slot producer/consumer buffer that
// pipelines reading a source against writing a destination.
package buffer

import (
	"errors"
	"sync"
)

// ErrInterrupted is returned by blocked or subsequent acquires after
// Interrupt has been called.
var ErrInterrupted = errors.New("buffer: interrupted")

// DoubleBuffer hands two Slots back and forth between one producer and one
// consumer. The producer fills the slot at cursor while the consumer drains
// the oldest committed slot. Each side blocks until the other makes
// progress, which is the only backpressure in the pipeline.
type DoubleBuffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	slots [2]*Slot
	// cursor is the index of the next slot handed to a writer.
	cursor int
	// available counts committed slots not yet released by a reader.
	available int

	writerActive bool
	readerActive bool
	interrupted  bool
}

// New allocates a DoubleBuffer whose slots each hold capacity bytes.
func New(capacity int) *DoubleBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	b := &DoubleBuffer{
		slots: [2]*Slot{newSlot(capacity), newSlot(capacity)},
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// SlotSize returns the capacity of each slot.
func (b *DoubleBuffer) SlotSize() int { return b.slots[0].Cap() }

// AcquireWrite blocks until no other writer is active and at least one slot
// is free, then returns the slot at cursor with its length and end flag
// cleared.
func (b *DoubleBuffer) AcquireWrite() (*Slot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.interrupted && (b.writerActive || b.available == len(b.slots)) {
		b.cond.Wait()
	}
	if b.interrupted {
		return nil, ErrInterrupted
	}

	b.writerActive = true
	s := b.slots[b.cursor]
	s.Reset()
	return s, nil
}

// ReleaseWrite commits the slot obtained from AcquireWrite and advances the
// cursor. It is a no-op when no writer is active.
func (b *DoubleBuffer) ReleaseWrite() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.writerActive {
		return
	}
	b.available++
	b.cursor = (b.cursor + 1) % len(b.slots)
	b.writerActive = false
	b.cond.Broadcast()
}

// AbandonWrite gives the slot obtained from AcquireWrite back without
// committing it. It is a no-op when no writer is active.
func (b *DoubleBuffer) AbandonWrite() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.writerActive {
		return
	}
	b.slots[b.cursor].Reset()
	b.writerActive = false
	b.cond.Broadcast()
}

// AcquireRead blocks until no other reader is active and a committed slot
// exists, then returns the oldest committed slot.
func (b *DoubleBuffer) AcquireRead() (*Slot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.interrupted && (b.readerActive || b.available == 0) {
		b.cond.Wait()
	}
	if b.interrupted {
		return nil, ErrInterrupted
	}

	b.readerActive = true
	return b.slots[b.oldest()], nil
}

// ReleaseRead frees the slot obtained from AcquireRead. It is a no-op when
// no reader is active.
func (b *DoubleBuffer) ReleaseRead() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.readerActive {
		return
	}
	b.available--
	b.readerActive = false
	b.cond.Broadcast()
}

// Interrupt wakes every waiter. Blocked and future acquires return
// ErrInterrupted. Safe to call more than once and from any goroutine.
func (b *DoubleBuffer) Interrupt() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.interrupted = true
	b.cond.Broadcast()
}

// oldest returns the index of the committed slot written first. Slots are
// committed in cursor order, so it sits `available` steps behind cursor.
// Must hold b.mu with available > 0.
func (b *DoubleBuffer) oldest() int {
	n := len(b.slots)
	return (b.cursor - b.available + n) % n
}
