package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/splinter/internal/checksum"
	"github.com/bamsammich/splinter/internal/engine"
	"github.com/bamsammich/splinter/internal/event"
	"github.com/bamsammich/splinter/internal/naming"
	"github.com/bamsammich/splinter/internal/stats"
)

var errVerifyFailed = errors.New("checksum verification failed")

func (a *app) mergeCmd() *cobra.Command {
	var (
		tf       transferFlags
		destName string
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "merge [flags] <first-chunk>",
		Short: "Reassemble a chunk set into the original file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tf.applyConfigDefaults(cmd, a.cfg.Defaults)
			if !cmd.Flags().Changed("verify") && a.cfg.Defaults.Verify != nil {
				verify = *a.cfg.Defaults.Verify
			}
			blockSize, err := tf.blockSizeInt()
			if err != nil {
				return err
			}
			if tf.outDir != "" {
				if err := os.MkdirAll(tf.outDir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}

			slog.Debug("starting merge",
				"first_chunk", args[0],
				"dst", tf.outDir,
				"name", destName,
				"verify", verify,
			)

			return a.runOperation("merge", tf.outDir, func(ctx context.Context, sink event.Sink, st *stats.Collector) error {
				var entries []checksum.Entry
				if verify {
					var err error
					if entries, err = verifyChunks(ctx, args[0], st); err != nil {
						return err
					}
				}

				m := engine.NewMerger(engine.MergeConfig{
					Sink:       sink,
					Stats:      st,
					Limiter:    engine.NewBWLimiter(int64(tf.bwLimit.Bytes())), //nolint:gosec // G115: sizes fit int64
					FirstChunk: args[0],
					DestDir:    tf.outDir,
					DestName:   destName,
					BlockSize:  blockSize,
				})
				if err := m.Run(ctx); err != nil {
					return err
				}
				if !verify {
					return nil
				}
				return verifyOutput(m.Plan(), m.Dest(), entries, st)
			})
		},
	}

	tf.register(cmd.Flags())
	cmd.Flags().StringVarP(&destName, "name", "n", "", "output file name (default: the original name)")
	cmd.Flags().BoolVar(&verify, "verify", false, "check chunks and output against the BLAKE3 manifest")
	return cmd
}

// verifyChunks checks every chunk of the set starting at first against its
// manifest and returns the manifest entries.
func verifyChunks(ctx context.Context, first string, counter checksum.Counter) ([]checksum.Entry, error) {
	plan, err := naming.Discover(first)
	if err != nil {
		return nil, fmt.Errorf("discover chunks: %w", err)
	}
	manifest := checksum.ManifestPath(plan.Dir, plan.Name)
	entries, err := checksum.Read(manifest)
	if err != nil {
		return nil, err
	}

	chunks := make([]checksum.Entry, 0, plan.Chunks)
	for seq := 1; seq <= plan.Chunks; seq++ {
		name := plan.ChunkName(seq)
		sum, ok := checksum.Lookup(entries, name)
		if !ok {
			return nil, fmt.Errorf("%s has no entry for %s", manifest, name)
		}
		chunks = append(chunks, checksum.Entry{Name: name, Sum: sum})
	}

	result, err := checksum.Verify(ctx, checksum.VerifyConfig{
		Stats:   counter,
		Dir:     plan.Dir,
		Entries: chunks,
	})
	if err != nil {
		return nil, err
	}
	for _, f := range result.Failures {
		slog.Warn("chunk failed verification", "chunk", f.Name, "want", f.Want, "got", f.Got, "error", f.Err)
	}
	if !result.OK() {
		return nil, fmt.Errorf("%w: %d of %d chunks", errVerifyFailed, len(result.Failures), len(chunks))
	}
	slog.Debug("chunks verified", "count", result.Verified, "manifest", manifest)
	return entries, nil
}

// verifyOutput checks the merged file against the manifest line for the
// original file, when there is one.
func verifyOutput(plan naming.Plan, dest string, entries []checksum.Entry, counter checksum.Counter) error {
	want, ok := checksum.Lookup(entries, plan.Name)
	if !ok {
		slog.Warn("manifest has no entry for the original file; output not verified", "name", plan.Name)
		return nil
	}
	if err := checksum.VerifyFile(dest, want); err != nil {
		counter.AddVerifyFailed(1)
		return fmt.Errorf("%w: %w", errVerifyFailed, err)
	}
	counter.AddChunksVerified(1)
	return nil
}
