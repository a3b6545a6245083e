package ui

import "strings"

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders per-second samples, oldest first, in exactly width
// cells. Seconds not yet sampled are blank, so a young run fills in from
// the right. Heights scale to the busiest second shown and any non-zero
// second stands above an idle one.
func Sparkline(samples []int64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}

	var peak int64
	for _, v := range samples {
		peak = max(peak, v)
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(samples)))
	for _, v := range samples {
		b.WriteRune(sparkCell(v, peak))
	}
	return b.String()
}

func sparkCell(v, peak int64) rune {
	if v <= 0 || peak <= 0 {
		return sparkBlocks[0]
	}
	top := int64(len(sparkBlocks) - 2)
	return sparkBlocks[1+v*top/peak]
}

// ChunkTrack renders how many chunks were sealed in each second, oldest
// first, in exactly width cells: a dot for a second with none, the count
// up to 9, and '+' beyond that. Unsampled seconds are blank.
func ChunkTrack(samples []int64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(samples)))
	for _, n := range samples {
		switch {
		case n <= 0:
			b.WriteRune('·')
		case n > 9:
			b.WriteByte('+')
		default:
			b.WriteByte(byte('0' + n))
		}
	}
	return b.String()
}
