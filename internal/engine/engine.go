// Package engine runs split and merge operations as a reader goroutine and
// a writer goroutine joined by a buffer.DoubleBuffer.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bamsammich/splinter/internal/buffer"
	"github.com/bamsammich/splinter/internal/event"
	"github.com/bamsammich/splinter/internal/stats"
)

// DefaultBlockSize is the slot capacity used when none is configured.
const DefaultBlockSize = 64 * 1024

// State is the lifecycle position of a Splitter or Merger.
type State int32

const (
	Idle State = iota
	Initializing
	Running
	Completed
	Failed
	Cancelled
)

var stateNames = [...]string{
	Idle:         "idle",
	Initializing: "initializing",
	Running:      "running",
	Completed:    "completed",
	Failed:       "failed",
	Cancelled:    "cancelled",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether s is final.
func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// operation holds the lifecycle shared by Splitter and Merger.
type operation struct {
	sink    event.Sink
	stats   stats.Writer
	limiter *rate.Limiter

	state atomic.Int32
	// read is the reader's running byte count, checked by the writer at
	// end of stream.
	read atomic.Int64

	mu              sync.Mutex
	cancel          context.CancelFunc
	cancelRequested bool
}

func newOperation(sink event.Sink, st stats.Writer, limiter *rate.Limiter) *operation {
	if sink == nil {
		sink = event.Discard
	}
	if st == nil {
		st = discardStats{}
	}
	return &operation{sink: sink, stats: st, limiter: limiter}
}

func (o *operation) State() State { return State(o.state.Load()) }

func (o *operation) begin() error {
	if !o.state.CompareAndSwap(int32(Idle), int32(Initializing)) {
		return ErrAlreadyRun
	}
	return nil
}

func (o *operation) setState(s State) { o.state.Store(int32(s)) }

func (o *operation) emit(e event.Event) {
	e.Timestamp = time.Now()
	o.sink.Emit(e)
}

// requestCancel stops a running operation. A request made before Running
// takes effect as soon as the goroutines start.
func (o *operation) requestCancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelRequested = true
	if o.cancel != nil {
		o.cancel()
	}
}

func (o *operation) wasCancelled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelRequested
}

// fail moves to Failed and reports err. Chunk size errors go to the caller
// only.
func (o *operation) fail(err *Error) error {
	o.setState(Failed)
	if err.Reason != event.InvalidChunkSize {
		o.emit(event.Event{
			Type:   event.Failed,
			Reason: err.Reason,
			Detail: err.Detail,
			Path:   err.Path,
			Error:  err,
		})
	}
	return err
}

// execute runs read and write concurrently over buf until both return,
// then settles the terminal state.
func (o *operation) execute(
	ctx context.Context,
	buf *buffer.DoubleBuffer,
	read, write func(context.Context) error,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	o.cancel = cancel
	if o.cancelRequested {
		cancel()
	}
	o.mu.Unlock()
	o.setState(Running)

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, buf.Interrupt)
	defer stop()

	g.Go(func() error { return read(gctx) })
	g.Go(func() error { return write(gctx) })
	err := g.Wait()

	o.mu.Lock()
	o.cancel = nil
	o.mu.Unlock()

	return o.settle(ctx, err)
}

func (o *operation) settle(ctx context.Context, err error) error {
	if err == nil {
		o.setState(Completed)
		o.emit(event.Event{Type: event.Stopped})
		return nil
	}

	var engineErr *Error
	switch {
	case errors.As(err, &engineErr):
		return o.fail(engineErr)
	case o.wasCancelled() || ctx.Err() != nil:
		cause := context.Cause(ctx)
		if cause == nil {
			cause = context.Canceled
		}
		cancelErr := newError(event.Cancelled, "", cause)
		o.setState(Cancelled)
		o.emit(event.Event{Type: event.Failed, Reason: event.Cancelled, Error: cancelErr})
		return cancelErr
	default:
		// A unit stopped without a peer failure or a cancel request.
		return o.fail(inconsistent(event.Interrupted, "", err))
	}
}

func slotCapacity(blockSize int, total int64) int {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if total < int64(blockSize) {
		return int(total)
	}
	return blockSize
}

type discardStats struct{}

func (discardStats) SetTotals(int64, int64)  {}
func (discardStats) AddBytesRead(int64)      {}
func (discardStats) AddBytesWritten(int64)   {}
func (discardStats) AddChunksCreated(int64)  {}
func (discardStats) AddChunksVerified(int64) {}
func (discardStats) AddVerifyFailed(int64)   {}
