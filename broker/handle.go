package broker

import "sync"

// Event is one message in transit to a subscriber.
type Event struct {
	Topic string `json:"topic"`
	Text  string `json:"text"`
}

// DefaultInboxSize is the inbox capacity used when a size <= 0 is requested.
const DefaultInboxSize = 64

type deliveryResult int

const (
	delivered deliveryResult = iota
	dropped
	closed
)

// Handle is a subscriber's inbox as seen by the Broker.
//
// The owning session reads Events and calls Close when it stops. The Broker
// is the only writer of the inbox and the only party that closes it, so a
// send never races a close.
type Handle struct {
	id    string
	inbox chan Event

	done     chan struct{}
	doneOnce sync.Once

	// owned by the broker goroutine
	released bool
}

// NewHandle creates a handle with a bounded inbox.
func NewHandle(id string, inboxSize int) *Handle {
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	return &Handle{
		id:    id,
		inbox: make(chan Event, inboxSize),
		done:  make(chan struct{}),
	}
}

// ID returns the handle's identity.
func (h *Handle) ID() string { return h.id }

// Events returns the inbox. It is closed once the broker has dropped the
// handle from its registry.
func (h *Handle) Events() <-chan Event { return h.inbox }

// Close marks the handle as permanently closed. The broker evicts it on the
// next delivery attempt or Disconnect, whichever comes first. Safe to call
// more than once.
func (h *Handle) Close() {
	h.doneOnce.Do(func() { close(h.done) })
}

// Closed reports whether Close has been called.
func (h *Handle) Closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// offer hands ev to the inbox without blocking.
func (h *Handle) offer(ev Event) deliveryResult {
	if h.Closed() {
		return closed
	}
	select {
	case h.inbox <- ev:
		return delivered
	default:
		return dropped
	}
}

// release closes the inbox. Called only from the broker goroutine.
func (h *Handle) release() {
	if h.released {
		return
	}
	h.released = true
	close(h.inbox)
}
