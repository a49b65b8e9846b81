package tasks

import "fmt"

// Event announces that a component's state changed.
//
// Views re-read state through accessors; the event only says what to redraw.
type Event struct {
	Kind    EventKind // Which slice of state changed
	JobID   string    // Set for per-job events
	Message string    // Human-readable summary for logs
}

// EventKind enumerates the state slices a view can redraw.
type EventKind int

const (
	SnapshotChanged EventKind = iota
	JobLogsAppended
	SystemLogsChanged
	MountChanged
	ToastsChanged
	BannerChanged
	ResultsChanged
	LinkStateChanged
	FlagsChanged
	StreamsChanged
)

func (k EventKind) String() string {
	switch k {
	case SnapshotChanged:
		return "snapshot"
	case JobLogsAppended:
		return "job_logs"
	case SystemLogsChanged:
		return "system_logs"
	case MountChanged:
		return "mount"
	case ToastsChanged:
		return "toasts"
	case BannerChanged:
		return "banner"
	case ResultsChanged:
		return "results"
	case LinkStateChanged:
		return "link_state"
	case FlagsChanged:
		return "flags"
	case StreamsChanged:
		return "streams"
	default:
		return ""
	}
}

// Emitter fans state-change events out on a buffered channel.
//
// A nil *Emitter is valid and drops everything.
type Emitter struct {
	ch chan Event
}

// NewEmitter creates an emitter with the given buffer size.
func NewEmitter(size int) *Emitter {
	if size <= 0 {
		size = 64
	}
	return &Emitter{ch: make(chan Event, size)}
}

// C returns the receive side of the channel.
func (e *Emitter) C() <-chan Event {
	if e == nil {
		return nil
	}
	return e.ch
}

// send delivers an event without blocking; when the buffer is full the event is skipped.
func (e *Emitter) send(ev Event) {
	if e == nil {
		return
	}
	select {
	case e.ch <- ev:
	default:
	}
}

func snapshotEvent(n int) Event {
	return Event{Kind: SnapshotChanged, Message: fmt.Sprintf("%d active jobs", n)}
}

func jobLogsEvent(id string, added int) Event {
	return Event{Kind: JobLogsAppended, JobID: id, Message: fmt.Sprintf("%d new log lines", added)}
}

func toastsEvent(n int) Event {
	return Event{Kind: ToastsChanged, Message: fmt.Sprintf("%d toasts", n)}
}

func resultsEvent(page, total int) Event {
	return Event{Kind: ResultsChanged, Message: fmt.Sprintf("page %d of %d", page, total)}
}

func linkEvent(path string) Event {
	return Event{Kind: LinkStateChanged, Message: path}
}

func flagsEvent(key string) Event {
	return Event{Kind: FlagsChanged, JobID: key}
}
