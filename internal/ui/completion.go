package ui

import (
	"fmt"

	"github.com/bamsammich/splinter/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  chunks 4/4  size 9.5 MiB  avg 641.0 MiB/s  time 3s  errors 0
func CompletionSummary(snap stats.Snapshot, failures int64) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesWritten) / snap.Elapsed.Seconds()
	}

	errs := failures + snap.VerifyFailed
	icon := "✓"
	if errs > 0 {
		icon = "✗"
	}

	chunks := FormatCount(snap.ChunksTotal)
	if snap.ChunksCreated > 0 {
		chunks = FormatCount(snap.ChunksCreated) + "/" + chunks
	}

	base := fmt.Sprintf("done %s  chunks %s  size %s  avg %s  time %s",
		icon,
		chunks,
		FormatBytes(snap.BytesWritten),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)

	if snap.ChunksVerified > 0 || snap.VerifyFailed > 0 {
		base += fmt.Sprintf("  verified %s", FormatCount(snap.ChunksVerified))
	}

	base += fmt.Sprintf("  errors %d", errs)

	return base
}
