package engine

import (
	"github.com/jaminalder/tic-tac-toe-ai/internal/domain"
	"github.com/rs/zerolog"
)

type EventKind uint8

const (
	EventMoved EventKind = iota + 1
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventMoved:
		return "moved"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event describes a change to a session. Index is NoMove for resets.
type Event struct {
	Kind    EventKind
	Player  domain.Cell
	Index   int
	Outcome domain.Outcome
}

type Observer func(Event)

type observerEntry struct {
	id   int
	fn   Observer
	once bool
}

// observers is the per-session registration list. Delivery is synchronous,
// in registration order.
type observers struct {
	next    int
	entries []observerEntry
	log     zerolog.Logger
}

// Subscribe registers fn for every event and returns a func that removes it.
func (s *Session) Subscribe(fn Observer) (unsubscribe func()) {
	return s.observers.add(fn, false)
}

// Once registers fn for the next event only.
func (s *Session) Once(fn Observer) (unsubscribe func()) {
	return s.observers.add(fn, true)
}

// Observers returns how many observers are registered.
func (s *Session) Observers() int { return len(s.observers.entries) }

func (o *observers) add(fn Observer, once bool) func() {
	if fn == nil {
		return func() {}
	}
	o.next++
	id := o.next
	o.entries = append(o.entries, observerEntry{id: id, fn: fn, once: once})
	return func() { o.remove(id) }
}

func (o *observers) remove(id int) {
	for i, e := range o.entries {
		if e.id == id {
			o.entries = append(o.entries[:i:i], o.entries[i+1:]...)
			return
		}
	}
}

func (o *observers) emit(ev Event) {
	if len(o.entries) == 0 {
		return
	}
	snapshot := append([]observerEntry(nil), o.entries...)
	for _, e := range snapshot {
		if e.once {
			o.remove(e.id)
		}
		o.call(e.fn, ev)
	}
}

func (o *observers) call(fn Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Stringer("event", ev.Kind).Msg("observer failed")
		}
	}()
	fn(ev)
}
