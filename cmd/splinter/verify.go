package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bamsammich/splinter/internal/stats"
	"github.com/bamsammich/splinter/internal/ui"
)

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <first-chunk>",
		Short: "Check a chunk set against its BLAKE3 manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			start := time.Now()
			_, err := verifyChunks(ctx, args[0], collector)
			snap := collector.Snapshot()
			a.observe("verify", err, time.Since(start), snap)

			if !a.quiet {
				fmt.Fprintf(a.stdout, "verified %s chunks, %d failed\n",
					ui.FormatCount(snap.ChunksVerified), snap.VerifyFailed)
			}
			if err != nil {
				slog.Error("verify failed", "error", err)
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
