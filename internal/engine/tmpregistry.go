package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// tmpSuffix marks staging files that have not been renamed into place.
const tmpSuffix = ".splinter-tmp"

// globalTmpRegistry tracks staging files of every running operation so the
// CLI can sweep them on abnormal exit.
var globalTmpRegistry = &tmpRegistry{}

type tmpRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func (r *tmpRegistry) add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[string]struct{})
	}
	r.paths[path] = struct{}{}
}

func (r *tmpRegistry) remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

func (r *tmpRegistry) cleanup() {
	r.mu.Lock()
	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	r.paths = nil
	r.mu.Unlock()

	for _, p := range paths {
		_ = os.Remove(p)
	}
}

// CleanupTmpFiles removes every staging file still registered.
func CleanupTmpFiles() { globalTmpRegistry.cleanup() }

// tmpPathFor returns a unique hidden staging path next to final.
func tmpPathFor(final string) string {
	dir, base := filepath.Split(final)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s%s", base, uuid.New().String()[:8], tmpSuffix))
}

// stagedFile is an output written under a temporary name and renamed to
// its final path on commit.
type stagedFile struct {
	f     *os.File
	final string
	tmp   string
}

func createStaged(final string) (*stagedFile, error) {
	tmp := tmpPathFor(final)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create tmp %s: %w", tmp, err)
	}
	globalTmpRegistry.add(tmp)
	return &stagedFile{f: f, final: final, tmp: tmp}, nil
}

func (s *stagedFile) Write(p []byte) (int, error) { return s.f.Write(p) }

// commit flushes, closes and renames the file into place.
func (s *stagedFile) commit() error {
	if err := s.f.Sync(); err != nil {
		s.discard()
		return fmt.Errorf("sync %s: %w", s.tmp, err)
	}
	if err := s.f.Close(); err != nil {
		s.discard()
		return fmt.Errorf("close %s: %w", s.tmp, err)
	}
	if err := os.Rename(s.tmp, s.final); err != nil {
		s.discard()
		return fmt.Errorf("rename %s -> %s: %w", s.tmp, s.final, err)
	}
	globalTmpRegistry.remove(s.tmp)
	return nil
}

// discard closes and removes the staging file. Safe after a failed commit.
func (s *stagedFile) discard() {
	_ = s.f.Close()
	_ = os.Remove(s.tmp)
	globalTmpRegistry.remove(s.tmp)
}
