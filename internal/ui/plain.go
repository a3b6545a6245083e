package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/splinter/internal/stats"
)

// plainPresenter outputs one line per chunk to stdout,
// and periodic progress to stderr when not a TTY.
type plainPresenter struct {
	w        io.Writer
	errW     io.Writer
	stats    *stats.Collector
	kind     string
	dstRoot  string
	verbose  bool
	progress bool
	failures int64
}

func (p *plainPresenter) Run(events <-chan Event) error {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()
	progressTicker := time.NewTicker(5 * time.Second)
	defer progressTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-secTicker.C:
			p.stats.Tick()
		case <-progressTicker.C:
			if p.progress {
				p.printProgress()
			}
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	path := StripRoot(p.dstRoot, ev.Path)
	switch ev.Type {
	case Started:
		if p.verbose {
			fmt.Fprintf(p.errW, "%s: %s  %s  %s chunks of %s\n",
				p.kind, ev.Path, FormatBytes(ev.Size),
				FormatCount(ev.Total), FormatBytes(ev.ChunkSize))
		}
	case ChunkCreated:
		speed := p.stats.RollingSpeed(5)
		fmt.Fprintf(p.w, "%s  %s  %s\n", path, FormatBytes(ev.Size), FormatRate(speed))
	case WriteProgress:
		// A merge has one output; report it once it is committed.
		if ev.Done && p.kind == "merge" {
			fmt.Fprintf(p.w, "%s  %s\n", path, FormatBytes(ev.Size))
		}
	case Failed:
		p.failures++
		errMsg := ev.Reason.String()
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		if path == "" {
			fmt.Fprintf(p.w, "%s failed: %s\n", p.kind, errMsg)
			return
		}
		fmt.Fprintf(p.w, "%s  %s\n", path, errMsg)
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	if snap.BytesTotal > 0 {
		pct := float64(snap.BytesWritten) / float64(snap.BytesTotal) * 100
		speed := p.stats.RollingSpeed(10)
		eta := p.stats.ETA()
		fmt.Fprintf(p.errW, "progress: %.0f%% %s/%s %s %s eta %s\n",
			pct,
			FormatBytes(snap.BytesWritten), FormatBytes(snap.BytesTotal),
			FormatChunkProgress(snap.ChunksCreated, snap.ChunksTotal),
			FormatRate(speed),
			FormatETA(eta),
		)
	} else {
		fmt.Fprintf(p.errW, "progress: %s written %s\n",
			FormatBytes(snap.BytesWritten),
			FormatChunkProgress(snap.ChunksCreated, 0),
		)
	}
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot(), p.failures)
}
