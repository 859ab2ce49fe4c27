// Package events carries explicit cross-component notifications. Components
// publish typed events instead of proxying state changes through unrelated
// counters or re-render keys.
package events

import "sync"

// VideoSelected fires when a player session opens a video.
type VideoSelected struct {
	SessionID string
	Folder    string
	Filename  string
}

// JobProgress mirrors one event from an analysis job's progress channel.
type JobProgress struct {
	JobID    string
	Folder   string
	Filename string
	Status   string
	Progress int
	Message  string
}

// ProcessingCompleted fires once per job, after the settle delay following
// the terminal progress event. Subscribers refresh the owning video's state.
type ProcessingCompleted struct {
	JobID    string
	Folder   string
	Filename string
	Failed   bool
}

// Event is implemented by all event types.
type Event interface{ event() }

func (VideoSelected) event()       {}
func (JobProgress) event()         {}
func (ProcessingCompleted) event() {}

// Bus dispatches events synchronously to every subscriber, in subscription
// order. Publish must not be called while holding a lock a subscriber also
// takes.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
	keys []int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers a handler for all events. Handlers filter by type. The
// returned function removes the subscription; long-lived subscribers may
// discard it.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.keys = append(b.keys, id)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		for i, k := range b.keys {
			if k == id {
				b.keys = append(b.keys[:i], b.keys[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}
}

// Publish delivers the event to every subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]func(Event), 0, len(b.subs))
	for _, id := range b.keys {
		if fn, ok := b.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}
