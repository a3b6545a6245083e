package event

// Reason classifies why an operation failed. The set is closed.
type Reason int

const (
	NotFound Reason = iota + 1
	NotReadable
	IsDirectory
	EmptyFile
	InvalidChunkSize
	ReadFailed
	WriteFailed
	SizeMismatch
	Cancelled
	// Inconsistent means the reader and writer disagree. The Detail says how.
	Inconsistent
)

var reasonNames = [...]string{
	NotFound:         "not-found",
	NotReadable:      "not-readable",
	IsDirectory:      "is-directory",
	EmptyFile:        "empty-file",
	InvalidChunkSize: "invalid-chunk-size",
	ReadFailed:       "read-failed",
	WriteFailed:      "write-failed",
	SizeMismatch:     "size-mismatch",
	Cancelled:        "cancelled",
	Inconsistent:     "inconsistent",
}

func (r Reason) String() string {
	if r > 0 && int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// Validation reports whether r is detected before any data moves.
func (r Reason) Validation() bool {
	switch r {
	case NotFound, NotReadable, IsDirectory, EmptyFile, InvalidChunkSize:
		return true
	default:
		return false
	}
}

// Detail refines an Inconsistent reason.
type Detail int

const (
	NoDetail Detail = iota
	MoreReadThanWritten
	LessReadThanWritten
	Interrupted
)

var detailNames = [...]string{
	NoDetail:            "",
	MoreReadThanWritten: "more-read-than-written",
	LessReadThanWritten: "less-read-than-written",
	Interrupted:         "interrupted",
}

func (d Detail) String() string {
	if d >= 0 && int(d) < len(detailNames) {
		return detailNames[d]
	}
	return "unknown"
}
