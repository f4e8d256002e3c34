package player

import "sync"

// EventKind identifies a media element lifecycle event
type EventKind int

const (
	EventLoadedMetadata EventKind = iota
	EventTimeUpdate
	EventPlay
	EventPause
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventTimeUpdate:
		return "timeupdate"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by a MediaElement. Position is the playback position in seconds
// at the time of the event; Duration is set once metadata is known.
type Event struct {
	Kind     EventKind
	Position float64
	Duration float64
	Err      error
}

// MediaElement is the decode/playback engine the player view drives.
// Events are delivered in order on the Events channel.
type MediaElement interface {
	Load(url string) error
	Unload() error
	Play() error
	Pause() error
	SetCurrentTime(seconds float64) error
	CurrentTime() float64
	SetLoop(loop bool) error
	Events() <-chan Event
	Close()
}

// Listeners is a registry of per-kind event callbacks
type Listeners struct {
	mu     sync.Mutex
	byKind map[EventKind]map[int]func(Event)
	nextID int
}

func NewListeners() *Listeners {
	return &Listeners{byKind: make(map[EventKind]map[int]func(Event))}
}

// Add registers fn for kind. Calling the returned function removes it; extra calls are no-ops.
func (l *Listeners) Add(kind EventKind, fn func(Event)) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	if l.byKind[kind] == nil {
		l.byKind[kind] = make(map[int]func(Event))
	}
	l.byKind[kind][id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.byKind[kind], id)
			l.mu.Unlock()
		})
	}
}

// Dispatch calls every listener registered for ev.Kind
func (l *Listeners) Dispatch(ev Event) {
	l.mu.Lock()
	fns := make([]func(Event), 0, len(l.byKind[ev.Kind]))
	for _, fn := range l.byKind[ev.Kind] {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len reports how many listeners are registered for kind
func (l *Listeners) Len(kind EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKind[kind])
}
