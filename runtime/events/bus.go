// Package events provides a lightweight pub/sub bus for session signals.
//
// Listeners run on a single dispatcher goroutine in publish order, so a
// subscriber observing InsightShown followed by InsightExpired never sees
// them reversed. A panicking listener is recovered and does not stop delivery.
//
// When the queue is full ordinary events are dropped, but phase changes are
// held in a backlog and delivered in order once the queue drains, so
// listeners always observe terminal transitions.
package events

import (
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the number of events buffered before Publish drops.
const DefaultQueueSize = 256

// Listener is a function that handles events.
type Listener func(*Event)

// EventBus manages event distribution to listeners.
type EventBus struct {
	mu              sync.RWMutex
	listeners       map[EventType][]Listener
	globalListeners []Listener

	queue     chan *Event
	done      chan struct{}
	closeOnce sync.Once
	closed    bool
	dropped   atomic.Uint64

	// backlog holds must-deliver events that found the queue full. While it
	// is non-empty every later event goes through it or is dropped.
	backlogMu sync.Mutex
	backlog   []*Event
	wake      chan struct{}
}

// NewEventBus creates a new event bus and starts its dispatcher.
func NewEventBus() *EventBus {
	return NewEventBusWithQueue(DefaultQueueSize)
}

// NewEventBusWithQueue creates a bus with a custom queue size.
func NewEventBusWithQueue(size int) *EventBus {
	if size <= 0 {
		size = DefaultQueueSize
	}
	eb := &EventBus{
		listeners: make(map[EventType][]Listener),
		queue:     make(chan *Event, size),
		done:      make(chan struct{}),
		wake:      make(chan struct{}, 1),
	}
	go eb.dispatch()
	return eb
}

// Subscribe registers a listener for a specific event type.
func (eb *EventBus) Subscribe(eventType EventType, listener Listener) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.listeners[eventType] = append(eb.listeners[eventType], listener)
}

// SubscribeAll registers a listener for all event types.
func (eb *EventBus) SubscribeAll(listener Listener) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.globalListeners = append(eb.globalListeners, listener)
}

// Publish queues event for delivery. It never blocks. When the queue is full
// the event is dropped and false is returned, except for phase changes, which
// are kept until the dispatcher catches up. Events published after Close are
// dropped.
func (eb *EventBus) Publish(event *Event) bool {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return false
	}

	eb.backlogMu.Lock()
	if len(eb.backlog) == 0 {
		select {
		case eb.queue <- event:
			eb.backlogMu.Unlock()
			return true
		default:
		}
	}
	if !mustDeliver(event.Type) {
		eb.backlogMu.Unlock()
		eb.dropped.Add(1)
		return false
	}
	eb.backlog = append(eb.backlog, event)
	eb.backlogMu.Unlock()

	select {
	case eb.wake <- struct{}{}:
	default:
	}
	return true
}

func mustDeliver(t EventType) bool {
	return t == EventPhaseChanged
}

// Dropped returns the number of events discarded because the queue was full.
func (eb *EventBus) Dropped() uint64 {
	return eb.dropped.Load()
}

// Close stops accepting events, delivers what is queued and waits for the dispatcher.
func (eb *EventBus) Close() {
	eb.closeOnce.Do(func() {
		eb.mu.Lock()
		eb.closed = true
		close(eb.queue)
		eb.mu.Unlock()
	})
	<-eb.done
}

// Clear removes all listeners.
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.listeners = make(map[EventType][]Listener)
	eb.globalListeners = nil
}

func (eb *EventBus) dispatch() {
	defer close(eb.done)
	for {
		select {
		case event, ok := <-eb.queue:
			if !ok {
				eb.deliverBacklog()
				return
			}
			eb.deliver(event)
			continue
		default:
		}

		// Queue is empty, so backlog events are the oldest undelivered ones.
		if eb.deliverBacklog() {
			continue
		}
		select {
		case event, ok := <-eb.queue:
			if !ok {
				eb.deliverBacklog()
				return
			}
			eb.deliver(event)
		case <-eb.wake:
		}
	}
}

// deliverBacklog delivers held events and reports whether there were any.
func (eb *EventBus) deliverBacklog() bool {
	eb.backlogMu.Lock()
	pending := eb.backlog
	eb.backlog = nil
	eb.backlogMu.Unlock()
	for _, event := range pending {
		eb.deliver(event)
	}
	return len(pending) > 0
}

func (eb *EventBus) deliver(event *Event) {
	eb.mu.RLock()
	specific := append([]Listener(nil), eb.listeners[event.Type]...)
	global := append([]Listener(nil), eb.globalListeners...)
	eb.mu.RUnlock()

	for _, listener := range specific {
		safeInvoke(listener, event)
	}
	for _, listener := range global {
		safeInvoke(listener, event)
	}
}

func safeInvoke(listener Listener, event *Event) {
	defer func() { _ = recover() }()
	listener(event)
}
