package event

// Sink receives events synchronously on the goroutine that produced them.
// Implementations called by a running operation must be safe for use by
// its reader and writer goroutines at once.
type Sink interface {
	Emit(e Event)
}

// Func adapts a plain function to a Sink.
type Func func(Event)

func (f Func) Emit(e Event) { f(e) }

// Chan forwards events to a channel with a blocking send. The consumer must
// keep draining until the operation returns.
type Chan chan<- Event

func (c Chan) Emit(e Event) { c <- e }

// Discard drops every event.
var Discard Sink = Func(func(Event) {})
