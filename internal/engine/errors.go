package engine

import (
	"errors"
	"strings"

	"github.com/bamsammich/splinter/internal/event"
)

// ErrAlreadyRun is returned by Run on a Splitter or Merger that has left
// the Idle state.
var ErrAlreadyRun = errors.New("operation already run")

// Error is the typed failure returned by Run. Reason is always set; Detail
// only accompanies event.Inconsistent.
type Error struct {
	Err    error
	Path   string
	Reason event.Reason
	Detail event.Detail
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason.String())
	if e.Detail != event.NoDetail {
		b.WriteByte('/')
		b.WriteString(e.Detail.String())
	}
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ReasonOf returns the Reason carried by err, or 0 when err is not an
// *Error.
func ReasonOf(err error) event.Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return 0
}

func newError(reason event.Reason, path string, err error) *Error {
	return &Error{Reason: reason, Path: path, Err: err}
}

func inconsistent(detail event.Detail, path string, err error) *Error {
	return &Error{Reason: event.Inconsistent, Detail: detail, Path: path, Err: err}
}
