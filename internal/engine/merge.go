package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/bamsammich/splinter/internal/buffer"
	"github.com/bamsammich/splinter/internal/event"
	"github.com/bamsammich/splinter/internal/naming"
	"github.com/bamsammich/splinter/internal/stats"
)

var errOverwritesChunk = errors.New("output would overwrite a chunk")

// MergeConfig describes a merge operation.
type MergeConfig struct {
	Sink    event.Sink
	Stats   stats.Writer
	Limiter *rate.Limiter
	// FirstChunk is the path of chunk 1. The scheme and the rest of the
	// set are discovered from it.
	FirstChunk string
	// DestDir defaults to the chunks' directory and must already exist.
	DestDir string
	// DestName defaults to the original file name.
	DestName  string
	BlockSize int
}

// Merger reassembles a chunk set into one file. It runs once.
type Merger struct {
	op   *operation
	cfg  MergeConfig
	plan naming.Plan
	dest string
}

// NewMerger creates an Idle Merger.
func NewMerger(cfg MergeConfig) *Merger {
	return &Merger{cfg: cfg, op: newOperation(cfg.Sink, cfg.Stats, cfg.Limiter)}
}

// Merge runs a single merge operation.
func Merge(ctx context.Context, cfg MergeConfig) error {
	return NewMerger(cfg).Run(ctx)
}

// State returns the current lifecycle state.
func (m *Merger) State() State { return m.op.State() }

// Cancel stops a running merge.
func (m *Merger) Cancel() { m.op.requestCancel() }

// Plan returns the discovered plan.
func (m *Merger) Plan() naming.Plan { return m.plan }

// Dest returns the output path once validation has succeeded.
func (m *Merger) Dest() string { return m.dest }

// Run discovers the chunk set, then concatenates it into the output file.
func (m *Merger) Run(ctx context.Context) error {
	if err := m.op.begin(); err != nil {
		return err
	}

	plan, first, verr := m.prepare()
	if verr != nil {
		return m.op.fail(verr)
	}
	src, err := newChunkSource(plan, first)
	if err != nil {
		return m.op.fail(newError(event.NotReadable, plan.Source, err))
	}

	m.plan = plan
	m.dest = m.destPath(plan)

	buf := buffer.New(slotCapacity(m.cfg.BlockSize, plan.TotalSize))
	r := &reader{op: m.op, buf: buf, src: src, expected: plan.TotalSize}
	w := &mergeWriter{op: m.op, buf: buf, plan: plan, dest: m.dest}

	m.op.stats.SetTotals(int64(plan.Chunks), plan.TotalSize)
	m.op.emit(event.Event{
		Type:      event.Started,
		Path:      plan.Source,
		Size:      plan.TotalSize,
		Total:     int64(plan.Chunks),
		ChunkSize: plan.ChunkSize,
	})
	return m.op.execute(ctx, buf, r.run, w.run)
}

func (m *Merger) prepare() (naming.Plan, *os.File, *Error) {
	path := m.cfg.FirstChunk
	info, err := os.Stat(path)
	if err != nil {
		return naming.Plan{}, nil, statError(path, err)
	}
	if info.IsDir() {
		return naming.Plan{}, nil, newError(event.IsDirectory, path, nil)
	}

	plan, err := naming.Discover(path)
	if err != nil {
		var pathErr *fs.PathError
		if errors.Is(err, fs.ErrNotExist) && errors.As(err, &pathErr) {
			// Chunk 1 exists, so a later chunk of the set is gone.
			return naming.Plan{}, nil, newError(event.SizeMismatch, pathErr.Path, err)
		}
		return naming.Plan{}, nil, newError(event.NotReadable, path, err)
	}
	if plan.TotalSize == 0 {
		return naming.Plan{}, nil, newError(event.EmptyFile, path, nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return naming.Plan{}, nil, statError(path, err)
	}
	if dest := m.destPath(plan); isChunk(plan, dest) {
		_ = f.Close()
		return naming.Plan{}, nil, newError(event.WriteFailed, dest, errOverwritesChunk)
	}
	return plan, f, nil
}

func (m *Merger) destPath(plan naming.Plan) string {
	dir := m.cfg.DestDir
	if dir == "" {
		dir = plan.Dir
	}
	name := m.cfg.DestName
	if name == "" {
		name = plan.Name
	}
	return filepath.Join(dir, name)
}

func isChunk(plan naming.Plan, path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, c := range plan.ChunkPaths() {
		if ca, err := filepath.Abs(c); err == nil && ca == abs {
			return true
		}
	}
	return false
}
