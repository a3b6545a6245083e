package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bamsammich/splinter/internal/stats"
)

// FormatBytes wraps stats.FormatBytes for UI use.
func FormatBytes(b int64) string {
	return stats.FormatBytes(b)
}

// FormatRate formats a bytes-per-second rate in the same units as
// FormatBytes.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec < 1 {
		return "0 B/s"
	}
	return FormatBytes(int64(bytesPerSec)) + "/s"
}

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	s := strconv.FormatInt(n, 10)
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	var b strings.Builder
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatChunkProgress reports how many chunks of a set are done, as
// "12/40 chunks". A total of zero or less renders the count alone.
func FormatChunkProgress(done, total int64) string {
	noun := "chunks"
	if total == 1 || (total <= 0 && done == 1) {
		noun = "chunk"
	}
	if total <= 0 {
		return FormatCount(done) + " " + noun
	}
	return FormatCount(done) + "/" + FormatCount(total) + " " + noun
}

// FormatSeq renders a chunk's position in its set, padded to the width of
// total so feed lines stay aligned: "[ 7/12]".
func FormatSeq(seq, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("[%d]", seq)
	}
	w := len(strconv.FormatInt(total, 10))
	return fmt.Sprintf("[%*d/%d]", w, seq, total)
}

// ProgressBar renders done out of total as a bar of the given width using
// ▪/□ characters.
func ProgressBar(done, total int64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = int(min(max(done, 0), total) * int64(width) / total)
	}
	return strings.Repeat("▪", filled) + strings.Repeat("□", width-filled)
}

// FormatDuration formats elapsed time concisely.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatETA is FormatDuration with "--" for an unknown estimate.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "--"
	}
	return FormatDuration(d)
}
