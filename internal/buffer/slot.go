package buffer

import (
	"errors"
	"io"
)

// Slot is a fixed-capacity byte buffer with a valid length and an
// end-of-stream flag. It has no locking of its own; DoubleBuffer admission
// guarantees a single holder at a time.
type Slot struct {
	data []byte
	n    int
	end  bool
}

func newSlot(capacity int) *Slot {
	return &Slot{data: make([]byte, capacity)}
}

// Write stores up to Cap() bytes of p and records the valid length.
// It returns the number of bytes stored.
func (s *Slot) Write(p []byte) int {
	s.n = copy(s.data, p)
	return s.n
}

// Fill reads from r until the slot is full or r is exhausted. It returns
// io.EOF once r has no more data, possibly together with n > 0.
func (s *Slot) Fill(r io.Reader) (int, error) {
	n, err := io.ReadFull(r, s.data)
	s.n = n
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}

// MarkEnd flags this slot as the last one of the stream.
func (s *Slot) MarkEnd() { s.end = true }

// Reset clears the valid length and the end flag.
func (s *Slot) Reset() {
	s.n = 0
	s.end = false
}

// Bytes returns the valid portion of the slot.
func (s *Slot) Bytes() []byte { return s.data[:s.n] }

// Len returns the valid length.
func (s *Slot) Len() int { return s.n }

// Cap returns the fixed capacity.
func (s *Slot) Cap() int { return len(s.data) }

// IsEnd reports whether MarkEnd was called since the last Reset.
func (s *Slot) IsEnd() bool { return s.end }
