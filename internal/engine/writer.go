package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/bamsammich/splinter/internal/buffer"
	"github.com/bamsammich/splinter/internal/event"
	"github.com/bamsammich/splinter/internal/naming"
	"github.com/bamsammich/splinter/internal/platform"
)

// drain feeds every committed slot to handle until a slot carrying the end
// flag has been handled. handle runs while the slot is held.
func drain(
	ctx context.Context,
	buf *buffer.DoubleBuffer,
	handle func(p []byte, end bool) error,
) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		slot, err := buf.AcquireRead()
		if err != nil {
			return err
		}
		end := slot.IsEnd()
		err = handle(slot.Bytes(), end)
		buf.ReleaseRead()
		if err != nil || end {
			return err
		}
	}
}

// checkTotals compares what the writer wrote against the reader's counter
// and the planned size.
func checkTotals(o *operation, written, planned int64, path string) error {
	read := o.read.Load()
	switch {
	case read > written:
		return inconsistent(event.MoreReadThanWritten, path,
			fmt.Errorf("read %d bytes, wrote %d", read, written))
	case read < written:
		return inconsistent(event.LessReadThanWritten, path,
			fmt.Errorf("read %d bytes, wrote %d", read, written))
	case written != planned:
		return newError(event.SizeMismatch, path,
			fmt.Errorf("expected %d bytes, got %d", planned, written))
	}
	return nil
}

// splitWriter cuts the stream into the chunk files of a plan.
type splitWriter struct {
	op   *operation
	buf  *buffer.DoubleBuffer
	plan naming.Plan

	seq     int // chunk being written, 1-based
	cur     *stagedFile
	inChunk int64
	total   int64
	created []string
}

func (w *splitWriter) run(ctx context.Context) (err error) {
	w.seq = 1
	defer func() {
		if err != nil {
			w.abort()
		}
	}()
	return drain(ctx, w.buf, w.handle)
}

func (w *splitWriter) handle(p []byte, end bool) error {
	for len(p) > 0 {
		if w.cur == nil {
			if err := w.open(); err != nil {
				return err
			}
		}
		room := w.plan.ChunkLen(w.seq) - w.inChunk
		n := min(int64(len(p)), room)
		if _, err := w.cur.Write(p[:n]); err != nil {
			return newError(event.WriteFailed, w.plan.ChunkPath(w.seq), err)
		}
		w.inChunk += n
		w.total += n
		w.op.stats.AddBytesWritten(n)
		w.op.emit(event.Event{
			Type: event.WriteProgress,
			Path: w.plan.ChunkPath(w.seq),
			Seq:  w.seq,
			Size: w.inChunk,
		})
		p = p[n:]

		if w.inChunk == w.plan.ChunkLen(w.seq) {
			if err := w.commit(); err != nil {
				return err
			}
		}
	}
	if !end {
		return nil
	}
	return w.finish()
}

func (w *splitWriter) open() error {
	if w.seq > w.plan.Chunks {
		return inconsistent(event.MoreReadThanWritten, w.plan.Source,
			fmt.Errorf("data beyond the last of %d chunks", w.plan.Chunks))
	}
	final := w.plan.ChunkPath(w.seq)
	sf, err := createStaged(final)
	if err != nil {
		return newError(event.WriteFailed, final, err)
	}
	platform.PreallocateFile(sf.f, w.plan.FileLen(w.seq))

	if w.seq == 1 && w.plan.HeaderLen > 0 {
		if _, err := sf.Write(naming.AppendHeader(nil, w.plan.Header())); err != nil {
			sf.discard()
			return newError(event.WriteFailed, final, fmt.Errorf("write header: %w", err))
		}
	}
	w.cur = sf
	w.inChunk = 0
	return nil
}

func (w *splitWriter) commit() error {
	sf := w.cur
	w.cur = nil
	if err := sf.commit(); err != nil {
		return newError(event.WriteFailed, sf.final, err)
	}
	w.created = append(w.created, sf.final)
	w.op.stats.AddChunksCreated(1)
	w.op.emit(event.Event{
		Type: event.ChunkCreated,
		Path: sf.final,
		Seq:  w.seq,
		Size: w.inChunk,
	})
	w.seq++
	return nil
}

func (w *splitWriter) finish() error {
	if err := checkTotals(w.op, w.total, w.plan.TotalSize, w.plan.Source); err != nil {
		return err
	}
	w.op.emit(event.Event{
		Type: event.WriteProgress,
		Path: w.plan.Source,
		Seq:  w.seq - 1,
		Size: w.inChunk,
		Done: true,
	})
	return nil
}

// abort removes the partial chunk and every chunk this run created, so a
// failed split never leaves a set that looks complete.
func (w *splitWriter) abort() {
	if w.cur != nil {
		w.cur.discard()
		w.cur = nil
	}
	for _, path := range w.created {
		_ = os.Remove(path)
	}
	w.created = nil
}

// mergeWriter concatenates the stream into a single output file.
type mergeWriter struct {
	op   *operation
	buf  *buffer.DoubleBuffer
	plan naming.Plan
	dest string

	out   *stagedFile
	total int64
}

func (w *mergeWriter) run(ctx context.Context) (err error) {
	out, err := createStaged(w.dest)
	if err != nil {
		return newError(event.WriteFailed, w.dest, err)
	}
	platform.PreallocateFile(out.f, w.plan.TotalSize)
	w.out = out
	defer func() {
		if err != nil {
			w.out.discard()
		}
	}()
	return drain(ctx, w.buf, w.handle)
}

func (w *mergeWriter) handle(p []byte, end bool) error {
	if len(p) > 0 {
		if _, err := w.out.Write(p); err != nil {
			return newError(event.WriteFailed, w.dest, err)
		}
		w.total += int64(len(p))
		w.op.stats.AddBytesWritten(int64(len(p)))
		w.op.emit(event.Event{
			Type: event.WriteProgress,
			Path: w.dest,
			Size: w.total,
		})
	}
	if !end {
		return nil
	}

	if err := checkTotals(w.op, w.total, w.plan.TotalSize, w.plan.Source); err != nil {
		return err
	}
	if err := w.out.commit(); err != nil {
		return newError(event.WriteFailed, w.dest, err)
	}
	w.op.emit(event.Event{
		Type: event.WriteProgress,
		Path: w.dest,
		Size: w.total,
		Done: true,
	})
	return nil
}
