package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidChunkSize is returned when the chunk size is not positive or
// exceeds the file size.
var ErrInvalidChunkSize = errors.New("invalid chunk size")

// Plan is the immutable description of one split or merge operation.
type Plan struct {
	Scheme Scheme
	// Source is the file being split, or the first chunk of a merge.
	Source string
	// Dir holds the chunk files.
	Dir string
	// Name is the original file's base name.
	Name string
	// diskBase overrides Name when chunk files were renamed after splitting.
	diskBase  string
	sizes     []int64
	TotalSize int64
	ChunkSize int64
	// HeaderLen is the number of header bytes at the start of chunk 1.
	HeaderLen int64
	Chunks    int
	Width     int
}

// ChunkCount returns ceil(size / chunkSize).
func ChunkCount(size, chunkSize int64) int {
	if chunkSize <= 0 {
		return 0
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// New computes the plan for splitting source (size bytes) into chunkSize
// pieces written to dir. It performs no I/O.
func New(source, dir string, size, chunkSize int64, scheme Scheme) (Plan, error) {
	if chunkSize <= 0 || chunkSize > size {
		return Plan{}, fmt.Errorf("%w: %d bytes for a %d byte file", ErrInvalidChunkSize, chunkSize, size)
	}
	if scheme == nil {
		scheme = Numeric
	}
	if dir == "" {
		dir = filepath.Dir(source)
	}

	n := ChunkCount(size, chunkSize)
	p := Plan{
		Scheme:    scheme,
		Source:    source,
		Dir:       dir,
		Name:      filepath.Base(source),
		TotalSize: size,
		ChunkSize: chunkSize,
		Chunks:    n,
		Width:     scheme.Width(n),
	}
	if scheme.Header() {
		p.HeaderLen = int64(len(AppendHeader(nil, p.Header())))
	}
	return p, nil
}

// ForFile stats source and computes its split plan.
func ForFile(source, dir string, chunkSize int64, scheme Scheme) (Plan, error) {
	info, err := os.Stat(source)
	if err != nil {
		return Plan{}, err
	}
	return New(source, dir, info.Size(), chunkSize, scheme)
}

// Header returns the header recorded in the first chunk of this plan.
func (p Plan) Header() Header {
	return Header{
		Version:   HeaderVersion,
		Name:      p.Name,
		Size:      p.TotalSize,
		ChunkSize: p.ChunkSize,
		Chunks:    p.Chunks,
	}
}

// ChunkName returns the file name of chunk seq.
func (p Plan) ChunkName(seq int) string {
	base := p.Name
	if p.diskBase != "" {
		base = p.diskBase
	}
	return p.Scheme.ChunkName(base, seq, p.Width)
}

// ChunkPath returns the full path of chunk seq.
func (p Plan) ChunkPath(seq int) string {
	return filepath.Join(p.Dir, p.ChunkName(seq))
}

// ChunkPaths returns every chunk path in sequence order.
func (p Plan) ChunkPaths() []string {
	paths := make([]string, p.Chunks)
	for i := range paths {
		paths[i] = p.ChunkPath(i + 1)
	}
	return paths
}

// ChunkLen returns the payload length of chunk seq. Every chunk but the
// last holds ChunkSize bytes.
func (p Plan) ChunkLen(seq int) int64 {
	if seq < 1 || seq > p.Chunks {
		return 0
	}
	if p.sizes != nil {
		return p.sizes[seq-1]
	}
	if seq < p.Chunks {
		return p.ChunkSize
	}
	return p.TotalSize - p.ChunkSize*int64(p.Chunks-1)
}

// FileLen returns the on-disk length of chunk seq, header included.
func (p Plan) FileLen(seq int) int64 {
	if seq == 1 {
		return p.HeaderLen + p.ChunkLen(seq)
	}
	return p.ChunkLen(seq)
}
