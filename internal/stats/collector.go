package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Writer is the side of a Collector that a running operation updates.
type Writer interface {
	SetTotals(chunks, bytes int64)
	AddBytesRead(n int64)
	AddBytesWritten(n int64)
	AddChunksCreated(n int64)
	AddChunksVerified(n int64)
	AddVerifyFailed(n int64)
}

// Reader is the read-only side of a Collector used by presenters.
type Reader interface {
	Snapshot() Snapshot
	RollingSpeed(seconds int) float64
	ETA() time.Duration
}

// ReadTicker is a Reader that presenters also drive once per second.
type ReadTicker interface {
	Reader
	Tick()
}

var (
	_ Writer     = (*Collector)(nil)
	_ ReadTicker = (*Collector)(nil)
)

// Collector tracks split and merge statistics using lock-free atomic counters.
type Collector struct {
	bytesRead      atomic.Int64
	bytesWritten   atomic.Int64
	chunksCreated  atomic.Int64
	chunksVerified atomic.Int64
	verifyFailed   atomic.Int64
	bytesTotal     atomic.Int64
	chunksTotal    atomic.Int64
	startTime      time.Time

	// Ring buffer, written only by the presenter's Tick().
	mu           sync.Mutex
	throughput   [ringSize]int64 // bytes written per second
	chunksPerSec [ringSize]int64
	ringIdx      int
	ringCount    int // samples written, capped at ringSize
	lastBytes    int64
	lastChunks   int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetTotals records the planned chunk count and byte total.
func (c *Collector) SetTotals(chunks, bytes int64) {
	c.chunksTotal.Store(chunks)
	c.bytesTotal.Store(bytes)
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	BytesRead      int64
	BytesWritten   int64
	ChunksCreated  int64
	ChunksVerified int64
	VerifyFailed   int64
	BytesTotal     int64
	ChunksTotal    int64
	Elapsed        time.Duration
}

func (c *Collector) AddBytesRead(n int64)      { c.bytesRead.Add(n) }
func (c *Collector) AddBytesWritten(n int64)   { c.bytesWritten.Add(n) }
func (c *Collector) AddChunksCreated(n int64)  { c.chunksCreated.Add(n) }
func (c *Collector) AddChunksVerified(n int64) { c.chunksVerified.Add(n) }
func (c *Collector) AddVerifyFailed(n int64)   { c.verifyFailed.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		BytesRead:      c.bytesRead.Load(),
		BytesWritten:   c.bytesWritten.Load(),
		ChunksCreated:  c.chunksCreated.Load(),
		ChunksVerified: c.chunksVerified.Load(),
		VerifyFailed:   c.verifyFailed.Load(),
		BytesTotal:     c.bytesTotal.Load(),
		ChunksTotal:    c.chunksTotal.Load(),
		Elapsed:        c.Elapsed(),
	}
}

// Tick snapshots byte/chunk deltas into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	currentBytes := c.bytesWritten.Load()
	currentChunks := c.chunksCreated.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	bytesDelta := currentBytes - c.lastBytes
	chunksDelta := currentChunks - c.lastChunks
	c.lastBytes = currentBytes
	c.lastChunks = currentChunks

	c.throughput[c.ringIdx] = bytesDelta
	c.chunksPerSec[c.ringIdx] = chunksDelta
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.throughput[:], seconds)
}

// RollingChunksPerSec returns average chunks/sec over the last n seconds.
func (c *Collector) RollingChunksPerSec(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.chunksPerSec[:], seconds)
}

func (c *Collector) rollingAvg(buf []int64, n int) float64 {
	count := min(n, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += buf[idx]
	}
	return float64(sum) / float64(count)
}

// History returns the last n per-second samples of bytes written and
// chunks sealed, oldest first. Both slices have the same length.
func (c *Collector) History(n int) (bytes, chunks []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	if count <= 0 {
		return nil, nil
	}

	bytes = make([]int64, count)
	chunks = make([]int64, count)
	for i := range count {
		idx := (c.ringIdx - count + i + ringSize) % ringSize
		bytes[i] = c.throughput[idx]
		chunks[i] = c.chunksPerSec[idx]
	}
	return bytes, chunks
}

// ETA estimates remaining time based on rolling speed and remaining bytes.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesTotal.Load() - c.bytesWritten.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"read=%d written=%d chunks=%d/%d verified=%d verify_failed=%d",
		s.BytesRead, s.BytesWritten, s.ChunksCreated, s.ChunksTotal,
		s.ChunksVerified, s.VerifyFailed,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
