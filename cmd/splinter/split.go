package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"

	"github.com/bamsammich/splinter/internal/checksum"
	"github.com/bamsammich/splinter/internal/engine"
	"github.com/bamsammich/splinter/internal/event"
	"github.com/bamsammich/splinter/internal/naming"
	"github.com/bamsammich/splinter/internal/stats"
)

func (a *app) splitCmd() *cobra.Command {
	var (
		tf         transferFlags
		chunkSize  datasize.ByteSize
		schemeName string
		withSum    bool
	)

	cmd := &cobra.Command{
		Use:   "split [flags] <file>",
		Short: "Split a file into fixed-size chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := a.cfg.Defaults
			tf.applyConfigDefaults(cmd, defaults)
			if !cmd.Flags().Changed("chunk-size") && defaults.ChunkSize != nil {
				chunkSize = *defaults.ChunkSize
			}
			if !cmd.Flags().Changed("scheme") && defaults.Scheme != nil {
				schemeName = *defaults.Scheme
			}
			if !cmd.Flags().Changed("checksum") && defaults.Checksum != nil {
				withSum = *defaults.Checksum
			}

			if chunkSize == 0 {
				return errors.New("--chunk-size is required (or set defaults.chunk_size)")
			}
			if chunkSize.Bytes() > 1<<62 {
				return fmt.Errorf("--chunk-size %s is too large", chunkSize.HR())
			}
			scheme, err := naming.Lookup(schemeName)
			if err != nil {
				return err
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

			slog.Debug("starting split",
				"source", args[0],
				"dst", tf.outDir,
				"chunk_size", chunkSize.Bytes(),
				"scheme", scheme.Name(),
				"block_size", blockSize,
				"bwlimit", tf.bwLimit.Bytes(),
			)

			return a.runOperation("split", tf.outDir, func(ctx context.Context, sink event.Sink, st *stats.Collector) error {
				s := engine.NewSplitter(engine.SplitConfig{
					Sink:      sink,
					Stats:     st,
					Scheme:    scheme,
					Limiter:   engine.NewBWLimiter(int64(tf.bwLimit.Bytes())), //nolint:gosec // G115: sizes fit int64
					Source:    args[0],
					DestDir:   tf.outDir,
					ChunkSize: int64(chunkSize.Bytes()), //nolint:gosec // G115: checked above
					BlockSize: blockSize,
				})
				if err := s.Run(ctx); err != nil {
					return err
				}
				if !withSum {
					return nil
				}
				return writeManifest(ctx, s.Plan())
			})
		},
	}

	tf.register(cmd.Flags())
	cmd.Flags().VarP(sizeFlag{&chunkSize}, "chunk-size", "s", "size of each chunk, e.g. 100MB")
	cmd.Flags().StringVar(&schemeName, "scheme", naming.Numeric.Name(),
		fmt.Sprintf("chunk naming scheme %v", naming.Names()))
	cmd.Flags().BoolVar(&withSum, "checksum", false, "write a BLAKE3 manifest (<name>.b3) next to the chunks")
	return cmd
}

// writeManifest hashes every chunk plus the original file and stores the
// digests next to the chunks.
func writeManifest(ctx context.Context, plan naming.Plan) error {
	paths := append(plan.ChunkPaths(), plan.Source)
	entries, err := checksum.Build(ctx, paths, 0)
	if err != nil {
		return fmt.Errorf("checksum: %w", err)
	}
	path := checksum.ManifestPath(plan.Dir, plan.Name)
	if err := checksum.Write(path, entries); err != nil {
		return err
	}
	slog.Info("wrote manifest", "path", path, "entries", len(entries))
	return nil
}
