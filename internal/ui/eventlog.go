package ui

import (
	"context"
	"log/slog"
)

// EventMessage is the log message of records written by TeeEvents.
const EventMessage = "splinter.event"

// TeeEvents logs every event from in as a structured record before
// forwarding it. The returned channel closes after in does.
func TeeEvents(in <-chan Event, logger *slog.Logger) <-chan Event {
	out := make(chan Event, cap(in))
	go func() {
		defer close(out)
		for ev := range in {
			// Progress events are too frequent for the log.
			if ev.Type != ReadProgress && (ev.Type != WriteProgress || ev.Done) {
				logger.LogAttrs(context.Background(), slog.LevelInfo, EventMessage, eventAttrs(ev)...)
			}
			out <- ev
		}
	}()
	return out
}

func eventAttrs(ev Event) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("type", ev.Type.String()),
		slog.String("path", ev.Path),
		slog.Int64("size", ev.Size),
	}
	switch ev.Type {
	case Started:
		attrs = append(attrs,
			slog.Int64("chunks", ev.Total),
			slog.Int64("chunk_size", ev.ChunkSize))
	case ChunkCreated:
		attrs = append(attrs, slog.Int("seq", ev.Seq))
	case Failed:
		attrs = append(attrs, slog.String("reason", ev.Reason.String()))
		if d := ev.Detail.String(); d != "" {
			attrs = append(attrs, slog.String("detail", d))
		}
	}
	if ev.Error != nil {
		attrs = append(attrs, slog.String("error", ev.Error.Error()))
	}
	return attrs
}
