package engine

import (
	"context"
	"errors"
	"os"

	"golang.org/x/time/rate"

	"github.com/bamsammich/splinter/internal/buffer"
	"github.com/bamsammich/splinter/internal/event"
	"github.com/bamsammich/splinter/internal/naming"
	"github.com/bamsammich/splinter/internal/stats"
)

// SplitConfig describes a split operation.
type SplitConfig struct {
	Sink    event.Sink
	Stats   stats.Writer
	Scheme  naming.Scheme
	Limiter *rate.Limiter
	Source  string
	// DestDir receives the chunks. It defaults to the source's directory
	// and must already exist.
	DestDir   string
	ChunkSize int64
	BlockSize int
}

// Splitter cuts one file into a chunk set. It runs once.
type Splitter struct {
	op   *operation
	cfg  SplitConfig
	plan naming.Plan
}

// NewSplitter creates an Idle Splitter.
func NewSplitter(cfg SplitConfig) *Splitter {
	return &Splitter{cfg: cfg, op: newOperation(cfg.Sink, cfg.Stats, cfg.Limiter)}
}

// Split runs a single split operation.
func Split(ctx context.Context, cfg SplitConfig) error {
	return NewSplitter(cfg).Run(ctx)
}

// State returns the current lifecycle state.
func (s *Splitter) State() State { return s.op.State() }

// Cancel stops a running split. The pending Run returns an Error with
// Reason event.Cancelled.
func (s *Splitter) Cancel() { s.op.requestCancel() }

// Plan returns the plan computed by Run. It is the zero Plan until
// validation succeeds.
func (s *Splitter) Plan() naming.Plan { return s.plan }

// Run validates the source, then pipes it into chunk files. It blocks until
// the operation reaches a terminal state.
func (s *Splitter) Run(ctx context.Context) error {
	if err := s.op.begin(); err != nil {
		return err
	}

	plan, src, verr := s.prepare()
	if verr != nil {
		return s.op.fail(verr)
	}
	s.plan = plan

	buf := buffer.New(slotCapacity(s.cfg.BlockSize, plan.TotalSize))
	r := &reader{op: s.op, buf: buf, src: newFileSource(src, plan.TotalSize), expected: plan.TotalSize}
	w := &splitWriter{op: s.op, buf: buf, plan: plan}

	s.op.stats.SetTotals(int64(plan.Chunks), plan.TotalSize)
	s.op.emit(event.Event{
		Type:      event.Started,
		Path:      plan.Source,
		Size:      plan.TotalSize,
		Total:     int64(plan.Chunks),
		ChunkSize: plan.ChunkSize,
	})
	return s.op.execute(ctx, buf, r.run, w.run)
}

func (s *Splitter) prepare() (naming.Plan, *os.File, *Error) {
	path := s.cfg.Source
	if s.cfg.ChunkSize <= 0 {
		return naming.Plan{}, nil, newError(event.InvalidChunkSize, path, naming.ErrInvalidChunkSize)
	}

	info, err := os.Stat(path)
	if err != nil {
		return naming.Plan{}, nil, statError(path, err)
	}
	if info.IsDir() {
		return naming.Plan{}, nil, newError(event.IsDirectory, path, nil)
	}
	if info.Size() == 0 {
		return naming.Plan{}, nil, newError(event.EmptyFile, path, nil)
	}

	plan, err := naming.New(path, s.cfg.DestDir, info.Size(), s.cfg.ChunkSize, s.cfg.Scheme)
	if err != nil {
		return naming.Plan{}, nil, newError(event.InvalidChunkSize, path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return naming.Plan{}, nil, statError(path, err)
	}
	return plan, f, nil
}

// statError classifies a failure to stat or open an input.
func statError(path string, err error) *Error {
	if errors.Is(err, os.ErrNotExist) {
		return newError(event.NotFound, path, err)
	}
	return newError(event.NotReadable, path, err)
}
