package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bamsammich/splinter/internal/buffer"
	"github.com/bamsammich/splinter/internal/event"
	"github.com/bamsammich/splinter/internal/naming"
	"github.com/bamsammich/splinter/internal/platform"
)

// source is what a reader drains into the buffer.
type source interface {
	io.ReadCloser
	// Path names the file currently being read.
	Path() string
}

// reader fills write slots from src until expected bytes have been read or
// src is exhausted.
type reader struct {
	op       *operation
	buf      *buffer.DoubleBuffer
	src      source
	expected int64
}

func (r *reader) run(ctx context.Context) error {
	defer r.src.Close()

	var in io.Reader = r.src
	if r.op.limiter != nil {
		in = newRateLimitedReader(ctx, in, r.op.limiter)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		slot, err := r.buf.AcquireWrite()
		if err != nil {
			return err
		}

		n, err := slot.Fill(in)
		total := r.op.read.Add(int64(n))
		r.op.stats.AddBytesRead(int64(n))

		if err != nil && !errors.Is(err, io.EOF) {
			r.buf.AbandonWrite()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return newError(event.ReadFailed, r.src.Path(), err)
		}

		end := err != nil || total >= r.expected
		if end {
			slot.MarkEnd()
		}
		r.op.emit(event.Event{
			Type: event.ReadProgress,
			Path: r.src.Path(),
			Size: total,
			Done: end,
		})
		r.buf.ReleaseWrite()

		if end {
			return nil
		}
	}
}

// fileSource reads at most limit bytes of a single open file.
type fileSource struct {
	f    *os.File
	r    io.Reader
	path string
}

func newFileSource(f *os.File, limit int64) *fileSource {
	platform.AdviseSequential(f)
	return &fileSource{f: f, r: io.LimitReader(f, limit), path: f.Name()}
}

func (s *fileSource) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *fileSource) Close() error               { return s.f.Close() }
func (s *fileSource) Path() string               { return s.path }

// chunkSource reads the payload of every chunk in a plan back to back.
// Chunk 1 is opened during validation and handed in; the rest are opened
// on demand.
type chunkSource struct {
	plan naming.Plan
	seq  int
	cur  *os.File
	r    io.Reader
}

func newChunkSource(plan naming.Plan, first *os.File) (*chunkSource, error) {
	c := &chunkSource{plan: plan, seq: 1}
	if err := c.attach(first); err != nil {
		_ = first.Close()
		return nil, err
	}
	return c, nil
}

func (c *chunkSource) attach(f *os.File) error {
	if c.seq == 1 && c.plan.HeaderLen > 0 {
		if _, err := f.Seek(c.plan.HeaderLen, io.SeekStart); err != nil {
			return fmt.Errorf("skip header: %w", err)
		}
	}
	platform.AdviseSequential(f)
	c.cur = f
	c.r = io.LimitReader(f, c.plan.ChunkLen(c.seq))
	return nil
}

func (c *chunkSource) next() error {
	if err := c.cur.Close(); err != nil {
		return err
	}
	c.cur = nil
	c.seq++
	f, err := os.Open(c.plan.ChunkPath(c.seq))
	if err != nil {
		return err
	}
	if err := c.attach(f); err != nil {
		_ = f.Close()
		return err
	}
	return nil
}

func (c *chunkSource) Read(p []byte) (int, error) {
	for {
		if c.cur == nil {
			return 0, io.EOF
		}
		n, err := c.r.Read(p)
		if !errors.Is(err, io.EOF) {
			return n, err
		}
		if c.seq >= c.plan.Chunks {
			return n, io.EOF
		}
		if nextErr := c.next(); nextErr != nil {
			return n, nextErr
		}
		if n > 0 {
			return n, nil
		}
	}
}

func (c *chunkSource) Close() error {
	if c.cur == nil {
		return nil
	}
	err := c.cur.Close()
	c.cur = nil
	return err
}

func (c *chunkSource) Path() string { return c.plan.ChunkPath(c.seq) }
