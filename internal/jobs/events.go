package jobs

import (
	"sync"
	"time"

	"media-translator/internal/domain"
)

// EventType classifies messages emitted during job execution.
type EventType string

const (
	EventTypeStatus  EventType = "status"
	EventTypeLog     EventType = "log"
	EventTypeCommand EventType = "command"
	EventTypeResult  EventType = "result"
	EventTypeError   EventType = "error"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq            int64              `json:"seq"`
	Timestamp      time.Time          `json:"timestamp"`
	JobID          string             `json:"jobId"`
	Type           EventType          `json:"type"`
	Status         domain.JobStatus   `json:"status,omitempty"`
	Stage          string             `json:"stage,omitempty"`
	FailureKind    domain.FailureKind `json:"failureKind,omitempty"`
	Message        string             `json:"message,omitempty"`
	Command        string             `json:"command,omitempty"`
	Args           []string           `json:"args,omitempty"`
	ExitCode       int                `json:"exitCode,omitempty"`
	Stdout         string             `json:"stdout,omitempty"`
	Stderr         string             `json:"stderr,omitempty"`
	TranscriptPath string             `json:"transcriptPath,omitempty"`
	PDFPath        string             `json:"pdfPath,omitempty"`
}

// EventBus stores recent events, provides incremental reads, and fans
// each published event out to listeners in sequence order.
type EventBus struct {
	// publishMu spans sequencing and delivery, so listeners never see a
	// lower Seq after a higher one.
	publishMu sync.Mutex

	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event

	listenersMu sync.RWMutex
	nextID      int
	listeners   map[int]func(Event)
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		listeners: make(map[int]func(Event)),
	}
}

// Publish appends one event, assigns sequence and timestamp, and notifies listeners.
func (b *EventBus) Publish(event Event) Event {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.mu.Lock()
	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}
	b.mu.Unlock()

	b.listenersMu.RLock()
	for _, fn := range b.listeners {
		fn(event)
	}
	b.listenersMu.RUnlock()

	return event
}

// Subscribe registers fn for future events. Listeners run on the
// publishing goroutine, must not block, and must not Publish.
func (b *EventBus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.listenersMu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.listenersMu.Lock()
			delete(b.listeners, id)
			b.listenersMu.Unlock()
		})
	}
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
