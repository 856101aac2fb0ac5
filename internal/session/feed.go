package session

import (
	"sync"

	"github.com/yourorg/chat-app/realtime/internal/models"
)

// EventFeed is an in-process LiveFeed: it fans published events out to every
// open subscription. A client wires one feed to its websocket reader and
// hands it to the session.
type EventFeed struct {
	mu     sync.Mutex
	subs   map[int]chan models.MessageEvent
	next   int
	buffer int
}

func NewEventFeed(buffer int) *EventFeed {
	if buffer <= 0 {
		buffer = 64
	}
	return &EventFeed{
		subs:   make(map[int]chan models.MessageEvent),
		buffer: buffer,
	}
}

func (f *EventFeed) Subscribe() (<-chan models.MessageEvent, func()) {
	f.mu.Lock()
	id := f.next
	f.next++
	ch := make(chan models.MessageEvent, f.buffer)
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish offers ev to every subscriber without blocking; a subscriber whose
// buffer is full misses the event (the durable history remains its catch-up
// path).
func (f *EventFeed) Publish(ev models.MessageEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
