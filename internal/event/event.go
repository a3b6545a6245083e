package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	Started Type = iota + 1
	ReadProgress
	WriteProgress
	ChunkCreated
	Stopped
	Failed
)

var typeNames = [...]string{
	Started:       "Started",
	ReadProgress:  "ReadProgress",
	WriteProgress: "WriteProgress",
	ChunkCreated:  "ChunkCreated",
	Stopped:       "Stopped",
	Failed:        "Failed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a single notification from a split or merge operation.
//
// Field use by type:
//
//	Started        Path=file, Size=total bytes, Total=chunk count, ChunkSize
//	ReadProgress   Size=bytes read so far, Done on end of source
//	WriteProgress  Size=bytes in current chunk (split) or in output (merge), Done on finish
//	ChunkCreated   Path=chunk file, Seq (1-based), Size=chunk length
//	Failed         Reason, Detail (Inconsistent only), Path (optional), Error
type Event struct {
	Timestamp time.Time
	Error     error
	Path      string
	Size      int64
	Total     int64
	ChunkSize int64
	Seq       int
	Type      Type
	Reason    Reason
	Detail    Detail
	Done      bool
}
