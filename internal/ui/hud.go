package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bamsammich/splinter/internal/stats"
)

// ANSI escape sequences.
const (
	ansiDim   = "\033[2m"
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// hudPresenter provides a rich TTY display with a scrolling feed of created
// chunks and a 2-line HUD that redraws in place.
type hudPresenter struct {
	w       io.Writer
	stats   *stats.Collector
	kind    string
	dstRoot string // destination root, stripped from displayed paths

	// Internal state.
	hudDrawn     bool
	hudLineCount int // actual number of lines in the last HUD draw
	lastHUDDraw  time.Time
	failures     int64
}

const (
	sparklineWidth   = 20
	chunkTrackWidth  = 10
	progressBarWidth = 20
	hudMinInterval   = 50 * time.Millisecond // don't redraw faster than this
)

func (p *hudPresenter) Run(events <-chan Event) error {
	// Fire first tick quickly to seed the ring buffer with initial speed data,
	// then switch to 1s interval.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// Redraw ticker for when no events are flowing (e.g., one huge chunk).
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.drawHUD()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(1 * time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case Started:
		p.clearHUD()
		fmt.Fprintf(p.w, "%s%s %s%s  %s in %s chunks\n",
			ansiBold, p.kind, p.styledPath(ev.Path), ansiReset,
			FormatBytes(ev.Size), FormatCount(ev.Total))
		p.drawHUD()

	case ChunkCreated:
		p.clearHUD()
		p.printChunkCreated(ev)
		p.drawHUD() // always redraw HUD after feed line

	case WriteProgress:
		if ev.Done && p.kind == "merge" {
			p.clearHUD()
			fmt.Fprintf(p.w, "✓  %s  %10s\n", p.styledPath(ev.Path), FormatBytes(ev.Size))
			p.drawHUD()
		}

	case Failed:
		p.failures++
		p.clearHUD()
		p.printFailed(ev)
		p.drawHUD()
	}
}

func (p *hudPresenter) printChunkCreated(ev Event) {
	seq := FormatSeq(int64(ev.Seq), p.stats.Snapshot().ChunksTotal)
	speed := p.stats.RollingSpeed(5)
	if speed > 0 {
		fmt.Fprintf(p.w, "✓  %s %s  %10s  %s\n",
			seq, p.styledPath(ev.Path), FormatBytes(ev.Size), FormatRate(speed))
	} else {
		fmt.Fprintf(p.w, "✓  %s %s  %10s\n",
			seq, p.styledPath(ev.Path), FormatBytes(ev.Size))
	}
}

func (p *hudPresenter) printFailed(ev Event) {
	errMsg := ev.Reason.String()
	if ev.Error != nil {
		errMsg = ev.Error.Error()
	}
	if ev.Path == "" {
		fmt.Fprintf(p.w, "✗  %s\n", errMsg)
		return
	}
	fmt.Fprintf(p.w, "✗  %s  %s\n", p.styledPath(ev.Path), errMsg)
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	now := time.Now()
	if now.Sub(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()

	// Clear previous HUD if drawn.
	p.clearHUD()

	var pct float64
	if snap.BytesTotal > 0 {
		pct = float64(snap.BytesWritten) / float64(snap.BytesTotal)
	}
	bytesHist, chunkHist := p.stats.History(sparklineWidth)

	// Line 1: throughput sparkline + speed + byte totals.
	fmt.Fprintf(p.w, "       %s   %s   %s / %s\n",
		Sparkline(bytesHist, sparklineWidth), FormatRate(p.stats.RollingSpeed(10)),
		FormatBytes(snap.BytesWritten), FormatBytes(snap.BytesTotal))

	// Line 2: progress bar (▪/□) + chunks + eta. A split also shows when
	// chunks were sealed over the last seconds.
	bar := ProgressBar(snap.BytesWritten, snap.BytesTotal, progressBarWidth)
	chunks := FormatChunkProgress(snap.ChunksCreated, snap.ChunksTotal)
	if p.kind == "merge" {
		chunks = FormatChunkProgress(mergedChunks(snap), snap.ChunksTotal)
	} else {
		chunks += fmt.Sprintf("  %s %.1f/s",
			ChunkTrack(chunkHist, chunkTrackWidth), p.stats.RollingChunksPerSec(5))
	}
	fmt.Fprintf(p.w, " %3.0f%%  %s   %s   eta %s\n",
		pct*100, bar, chunks, FormatETA(p.stats.ETA()))

	p.hudDrawn = true
	p.hudLineCount = 2
	p.lastHUDDraw = time.Now()
}

// mergedChunks estimates how many whole chunks a merge has consumed.
func mergedChunks(snap stats.Snapshot) int64 {
	if snap.ChunksTotal == 0 || snap.BytesTotal == 0 {
		return 0
	}
	per := (snap.BytesTotal + snap.ChunksTotal - 1) / snap.ChunksTotal
	return min(snap.BytesRead/per, snap.ChunksTotal)
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	lines := p.hudLineCount
	if lines == 0 {
		lines = 2 // fallback
	}
	// Move cursor up N lines and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", lines)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot(), p.failures)
}

// relPath strips the dstRoot prefix from an absolute path to produce a
// cleaner relative path for display. Falls back to the original path.
func (p *hudPresenter) relPath(path string) string {
	if p.dstRoot == "" {
		return path
	}
	rel, err := filepath.Rel(p.dstRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// styledPath returns the path with the directory portion dimmed and the
// filename in normal weight, making the actual filename stand out.
func (p *hudPresenter) styledPath(path string) string {
	path = p.relPath(path)
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "." || dir == "" {
		return base
	}
	return fmt.Sprintf("%s%s/%s%s", ansiDim, dir, ansiReset, base)
}

// StripRoot removes a root prefix from a path, returning a clean relative path.
// Exported for use by the plain presenter.
func StripRoot(root, path string) string {
	if root == "" {
		return path
	}
	// Ensure root ends with separator for clean stripping.
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	if strings.HasPrefix(path, root) {
		return path[len(root):]
	}
	return path
}
