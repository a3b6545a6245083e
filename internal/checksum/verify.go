package checksum

import (
	"cmp"
	"context"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Counter receives per-file verification outcomes.
type Counter interface {
	AddChunksVerified(n int64)
	AddVerifyFailed(n int64)
}

// VerifyConfig controls a verification pass over files in one directory.
type VerifyConfig struct {
	Stats   Counter
	Dir     string
	Entries []Entry
	Workers int
}

// VerifyResult holds the outcome of a verification pass.
type VerifyResult struct {
	Failures []VerifyError
	Verified int
}

// OK reports whether every file matched.
func (r VerifyResult) OK() bool { return len(r.Failures) == 0 }

// VerifyError records a single missing, unreadable or mismatched file.
type VerifyError struct {
	Err  error
	Name string
	Want string
	Got  string
}

// Verify hashes Dir/Name for every entry and compares it with the recorded
// digest. Failures are collected rather than returned early; the error is
// only set when ctx is cancelled.
func Verify(ctx context.Context, cfg VerifyConfig) (VerifyResult, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	var (
		mu     sync.Mutex
		result VerifyResult
	)
	record := func(ve *VerifyError) {
		mu.Lock()
		defer mu.Unlock()
		if ve == nil {
			result.Verified++
			if cfg.Stats != nil {
				cfg.Stats.AddChunksVerified(1)
			}
			return
		}
		result.Failures = append(result.Failures, *ve)
		if cfg.Stats != nil {
			cfg.Stats.AddVerifyFailed(1)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, e := range cfg.Entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			got, err := HashFile(filepath.Join(cfg.Dir, e.Name))
			switch {
			case err != nil:
				record(&VerifyError{Name: e.Name, Want: e.Sum, Err: err})
			case got != e.Sum:
				record(&VerifyError{Name: e.Name, Want: e.Sum, Got: got, Err: ErrMismatch})
			default:
				record(nil)
			}
			return nil
		})
	}
	err := g.Wait()
	slices.SortFunc(result.Failures, func(a, b VerifyError) int { return cmp.Compare(a.Name, b.Name) })
	return result, err
}
