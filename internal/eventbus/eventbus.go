package eventbus

import "sync"

// Event is anything published while a dispatch request is processed; the
// concrete types live in core/events.
type Event interface{}

// subscriberBuffer bounds how far an observer may lag before it starts
// missing events. Dispatch must never wait on an observer.
const subscriberBuffer = 8

// EventBus decouples the dispatch engine from its observers: the manager
// publishes rank, slot and booking events without knowing who listens.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus implementation using fan-out channels.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// New creates a new Bus.
func New() *Bus { return &Bus{} }

// Publish sends the event to all subscribers. Delivery is non-blocking;
// a subscriber with a full buffer misses the event.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and clears the list.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}

// SubscribeTo narrows a bus subscription to events of type T. The manager
// publishes mixed event types on one bus; observers that only care about,
// say, booking outcomes get a channel of just those. Events of other types
// are discarded. The returned stop function detaches from the bus, which
// eventually closes the typed channel.
func SubscribeTo[T any](bus EventBus) (<-chan T, func()) {
	src := bus.Subscribe()
	out := make(chan T, subscriberBuffer)
	go func() {
		defer close(out)
		for e := range src {
			v, ok := e.(T)
			if !ok {
				continue
			}
			select {
			case out <- v:
			default:
			}
		}
	}()
	return out, func() { bus.Unsubscribe(src) }
}
