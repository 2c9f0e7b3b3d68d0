package events

import "sync"

// subscriberBuffer is the per-subscriber channel depth. A consumer that
// falls further behind than this starts losing events.
const subscriberBuffer = 64

// Subscriber receives emitted events. The WebSocket handlers and the
// telemetry pump each hold one.
type Subscriber chan Event

type hub struct {
	mu   sync.RWMutex
	subs map[Subscriber]struct{}
}

var stream = &hub{subs: make(map[Subscriber]struct{})}

// Subscribe registers a new event consumer and returns its channel.
func Subscribe() Subscriber {
	ch := make(Subscriber, subscriberBuffer)
	stream.mu.Lock()
	stream.subs[ch] = struct{}{}
	stream.mu.Unlock()
	return ch
}

// Unsubscribe removes a consumer and closes its channel.
func Unsubscribe(sub Subscriber) {
	stream.mu.Lock()
	delete(stream.subs, sub)
	stream.mu.Unlock()
	close(sub)
}

// broadcast fans an event out to every consumer. Delivery is lossy: a
// consumer with a full buffer skips the event rather than stalling the
// emitter.
func broadcast(e Event) {
	stream.mu.RLock()
	defer stream.mu.RUnlock()

	for sub := range stream.subs {
		select {
		case sub <- e:
		default:
		}
	}
}

// SubscriberCount returns the number of live consumers.
func SubscriberCount() int {
	stream.mu.RLock()
	defer stream.mu.RUnlock()
	return len(stream.subs)
}

// RecentEvents returns up to n of the latest buffered events, oldest
// first.
func RecentEvents(n int) []Event {
	all := buffer.Snapshot()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}
