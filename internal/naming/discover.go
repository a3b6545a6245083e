package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnknownScheme is returned when a path does not look like the first
// chunk of any registered scheme.
var ErrUnknownScheme = errors.New("not the first chunk of a known naming scheme")

// Discover reconstructs a merge plan from the path of the first chunk.
//
// For the Headered scheme the total size and chunk count come from the
// header, and every chunk must exist. Otherwise chunks are looked up in
// sequence until one is missing and the expected size is their sum. A
// missing chunk followed by later chunks of the same set is reported as
// an fs.ErrNotExist error for the first missing name.
func Discover(firstChunk string) (Plan, error) {
	info, err := os.Stat(firstChunk)
	if err != nil {
		return Plan{}, err
	}
	if info.IsDir() {
		return Plan{}, fmt.Errorf("%s: is a directory", firstChunk)
	}

	filename := filepath.Base(firstChunk)
	for _, s := range schemes {
		base, width, ok := s.Match(filename)
		if !ok {
			continue
		}
		p := Plan{
			Scheme: s,
			Source: firstChunk,
			Dir:    filepath.Dir(firstChunk),
			Name:   base,
			Width:  width,
		}
		if s.Header() {
			return discoverHeadered(p)
		}
		return discoverSequence(p, info.Size())
	}
	return Plan{}, fmt.Errorf("%s: %w", firstChunk, ErrUnknownScheme)
}

func discoverHeadered(p Plan) (Plan, error) {
	f, err := os.Open(p.Source)
	if err != nil {
		return Plan{}, err
	}
	defer f.Close()

	h, n, err := ReadHeader(f)
	if err != nil {
		return Plan{}, fmt.Errorf("%s: %w", p.Source, err)
	}

	if h.Name != "" {
		p.Name = h.Name
	}
	p.TotalSize = h.Size
	p.ChunkSize = h.ChunkSize
	p.Chunks = h.Chunks
	p.HeaderLen = n

	// Names on disk are derived from the matched base, which may differ
	// from the recorded original name after a rename.
	base, _, _ := p.Scheme.Match(filepath.Base(p.Source))
	for seq := 1; seq <= p.Chunks; seq++ {
		path := filepath.Join(p.Dir, p.Scheme.ChunkName(base, seq, p.Width))
		if _, err := os.Stat(path); err != nil {
			return Plan{}, err
		}
	}
	if base != p.Name {
		p.diskBase = base
	}
	return p, nil
}

func discoverSequence(p Plan, firstSize int64) (Plan, error) {
	limit := -1
	if p.Scheme == Alpha {
		limit = alphaLimit(p.Width)
	}

	sizes := []int64{firstSize}
	for seq := 2; limit < 0 || seq <= limit; seq++ {
		info, err := os.Stat(p.ChunkPath(seq))
		if err != nil || !info.Mode().IsRegular() {
			break
		}
		sizes = append(sizes, info.Size())
	}

	gap := len(sizes) + 1
	later, err := laterChunk(p, gap)
	if err != nil {
		return Plan{}, err
	}
	if later > 0 {
		return Plan{}, &fs.PathError{
			Op:   "open",
			Path: p.ChunkPath(gap),
			Err:  fmt.Errorf("%w (chunk %d of the set exists)", fs.ErrNotExist, later),
		}
	}

	var total int64
	for _, s := range sizes {
		total += s
	}
	p.sizes = sizes
	p.Chunks = len(sizes)
	p.TotalSize = total
	p.ChunkSize = firstSize
	return p, nil
}

// laterChunk returns the sequence number of a chunk beyond gap that
// belongs to the same set as p, or 0 when there is none.
func laterChunk(p Plan, gap int) (int, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		return 0, err
	}
	prefix := p.Name + "."
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		seq := suffixSeq(p.Scheme, strings.TrimPrefix(name, prefix), p.Width)
		if seq > gap && p.ChunkName(seq) == name {
			return seq, nil
		}
	}
	return 0, nil
}

// suffixSeq decodes a chunk suffix of the given width, returning 0 when
// the suffix does not belong to scheme s.
func suffixSeq(s Scheme, suffix string, width int) int {
	if len(suffix) != width {
		return 0
	}
	switch s {
	case Numeric:
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 1 || strings.ContainsAny(suffix, "+-") {
			return 0
		}
		return n
	case Alpha:
		v := 0
		for _, c := range suffix {
			if c < 'a' || c > 'z' {
				return 0
			}
			v = v*26 + int(c-'a')
		}
		return v + 1
	}
	return 0
}
