// Package checksum computes BLAKE3 digests and reads and writes chunk
// manifests in b3sum format ("<hex>  <name>" per line).
package checksum

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
)

// ManifestExt is appended to the original file name to form the manifest name.
const ManifestExt = ".b3"

// ErrMismatch is returned when a file's digest differs from the manifest.
var ErrMismatch = errors.New("checksum mismatch")

// Entry is one manifest line.
type Entry struct {
	Name string
	Sum  string
}

// HashFile computes the BLAKE3 hash of the file at path, returning the hex-encoded digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	digest := h.Sum(nil)
	return hex.EncodeToString(digest), nil
}

// ManifestPath returns the manifest location for a file named name whose
// chunks live in dir.
func ManifestPath(dir, name string) string {
	return filepath.Join(dir, name+ManifestExt)
}

// Build hashes paths with at most workers files in flight. Entries keep the
// order of paths and are named by base name.
func Build(ctx context.Context, paths []string, workers int) ([]Entry, error) {
	if workers <= 0 {
		workers = 4
	}
	entries := make([]Entry, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := HashFile(path)
			if err != nil {
				return err
			}
			entries[i] = Entry{Name: filepath.Base(path), Sum: sum}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Write stores entries at path, replacing any existing manifest.
func Write(path string, entries []Entry) error {
	var b strings.Builder
	for _, e := range entries {
		if strings.ContainsAny(e.Name, "\n\r") {
			return fmt.Errorf("manifest entry %q: name contains a newline", e.Name)
		}
		fmt.Fprintf(&b, "%s  %s\n", e.Sum, e.Name)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Read parses the manifest at path.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		if text == "" {
			continue
		}
		sum, name, ok := strings.Cut(text, "  ")
		if !ok || name == "" {
			return nil, fmt.Errorf("%s:%d: malformed line", path, line)
		}
		if raw, err := hex.DecodeString(sum); err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("%s:%d: bad digest %q", path, line, sum)
		}
		entries = append(entries, Entry{Name: name, Sum: strings.ToLower(sum)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return entries, nil
}

// Lookup returns the digest recorded for name.
func Lookup(entries []Entry, name string) (string, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e.Sum, true
		}
	}
	return "", false
}

// VerifyFile checks that the file at path hashes to want.
func VerifyFile(path, want string) error {
	got, err := HashFile(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%s: %w (want %s, got %s)", path, ErrMismatch, want, got)
	}
	return nil
}
