package ui

import "github.com/bamsammich/splinter/internal/event"

// Event is re-exported so presenters read naturally.
type Event = event.Event

// Re-export event types for convenience.
const (
	Started       = event.Started
	ReadProgress  = event.ReadProgress
	WriteProgress = event.WriteProgress
	ChunkCreated  = event.ChunkCreated
	Stopped       = event.Stopped
	Failed        = event.Failed
)
