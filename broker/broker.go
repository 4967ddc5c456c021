package broker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/sseplex/logger"
)

var (
	// ErrBrokerStopped is returned when the broker is not running.
	ErrBrokerStopped = errors.New("broker: stopped")
	// ErrHandleClosed is returned when connecting a handle that was already closed.
	ErrHandleClosed = errors.New("broker: handle closed")
)

// DefaultQueueSize is the default capacity of the operation queue.
const DefaultQueueSize = 256

type opKind int

const (
	opConnect opKind = iota
	opDisconnect
	opPublish
	opHeartbeat
	opQuery
)

// op is one queued request to the broker goroutine.
type op struct {
	kind     opKind
	topic    string
	text     string
	handle   *Handle
	interval time.Duration
	query    func(*Broker)
	ack      chan error
}

// Broker owns the topic registry. Every read and write of the registry
// happens on the goroutine running Run, which drains a single FIFO queue.
type Broker struct {
	ops      chan op
	done     chan struct{}
	doneOnce sync.Once
	exited   chan struct{}

	// registry, owned by the Run goroutine
	topics      map[string]map[*Handle]struct{}
	memberships map[*Handle]map[string]struct{}
	heartbeat   *heartbeat

	log      *logger.Logger
	recorder Recorder
}

// Option configures a Broker.
type Option func(*Broker)

// WithQueueSize sets the operation queue capacity.
func WithQueueSize(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.ops = make(chan op, n)
		}
	}
}

// WithLogger sets the broker logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *Broker) { b.log = l }
}

// WithRecorder sets the delivery metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(b *Broker) { b.recorder = r }
}

// New creates a broker. Call Run to start processing operations.
func New(opts ...Option) *Broker {
	b := &Broker{
		ops:         make(chan op, DefaultQueueSize),
		done:        make(chan struct{}),
		exited:      make(chan struct{}),
		topics:      make(map[string]map[*Handle]struct{}),
		memberships: make(map[*Handle]map[string]struct{}),
		heartbeat:   &heartbeat{},
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.Get("broker")
	}
	return b
}

// Run processes queued operations until ctx is canceled or Stop is called.
// On return every registered handle has been released.
func (b *Broker) Run(ctx context.Context) {
	defer close(b.exited)
	defer b.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case o := <-b.ops:
			b.handle(o)
		case <-b.heartbeat.C():
			b.heartbeat.tick(b)
		}
	}
}

// Stop signals Run to return. Safe to call multiple times.
func (b *Broker) Stop() {
	b.doneOnce.Do(func() { close(b.done) })
}

// Exited is closed once Run has returned and released all handles.
func (b *Broker) Exited() <-chan struct{} { return b.exited }

// Connect registers h under topic and waits for the broker to acknowledge.
// Connecting the same handle twice to a topic is a no-op.
func (b *Broker) Connect(ctx context.Context, topic string, h *Handle) error {
	ack := make(chan error, 1)
	if err := b.enqueue(ctx, op{kind: opConnect, topic: topic, handle: h, ack: ack}); err != nil {
		return err
	}
	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrBrokerStopped
	}
}

// Disconnect removes h from the registry. It never blocks the caller and
// does not wait for acknowledgment. Operations queued before it, Publish
// included, still reach h. When the queue is full the handle is closed at
// once, so deliveries attempted before the request lands evict it.
func (b *Broker) Disconnect(h *Handle) {
	o := op{kind: opDisconnect, handle: h}
	select {
	case b.ops <- o:
		return
	case <-b.done:
		return
	default:
	}
	h.Close()
	go func() {
		select {
		case b.ops <- o:
		case <-b.done:
		}
	}()
}

// Publish queues text for every subscriber of topic. It returns once the
// request is queued; delivery failures are handled inside the broker and
// never reported. Publishing to a topic without subscribers is a no-op.
func (b *Broker) Publish(topic, text string) error {
	return b.enqueue(context.Background(), op{kind: opPublish, topic: topic, text: text})
}

// StartHeartbeat makes the broker publish a synthetic "event <n>" message to
// every registered topic each interval. Calling it again changes the interval.
func (b *Broker) StartHeartbeat(interval time.Duration) error {
	if interval <= 0 {
		return errors.New("broker: heartbeat interval must be positive")
	}
	return b.enqueue(context.Background(), op{kind: opHeartbeat, interval: interval})
}

// Topics returns the sorted names of all topics with at least one subscriber.
func (b *Broker) Topics(ctx context.Context) ([]string, error) {
	var topics []string
	err := b.query(ctx, func(b *Broker) {
		topics = make([]string, 0, len(b.topics))
		for t := range b.topics {
			topics = append(topics, t)
		}
	})
	sort.Strings(topics)
	return topics, err
}

// SubscriberCount returns the number of handles registered under topic.
func (b *Broker) SubscriberCount(ctx context.Context, topic string) (int, error) {
	var n int
	err := b.query(ctx, func(b *Broker) { n = len(b.topics[topic]) })
	return n, err
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Topics    int `json:"topics"`
	Handles   int `json:"handles"`
	Heartbeat bool `json:"heartbeat"`
}

// Stats returns registry totals.
func (b *Broker) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := b.query(ctx, func(b *Broker) {
		s = Stats{Topics: len(b.topics), Handles: len(b.memberships), Heartbeat: b.heartbeat.enabled()}
	})
	return s, err
}

func (b *Broker) query(ctx context.Context, fn func(*Broker)) error {
	ack := make(chan error, 1)
	if err := b.enqueue(ctx, op{kind: opQuery, query: fn, ack: ack}); err != nil {
		return err
	}
	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrBrokerStopped
	}
}

func (b *Broker) enqueue(ctx context.Context, o op) error {
	select {
	case <-b.done:
		return ErrBrokerStopped
	default:
	}
	select {
	case b.ops <- o:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrBrokerStopped
	}
}

// --- broker goroutine ---

func (b *Broker) handle(o op) {
	switch o.kind {
	case opConnect:
		o.ack <- b.connect(o.topic, o.handle)
	case opDisconnect:
		b.evict(o.handle)
	case opPublish:
		b.recorder.Published(o.topic)
		b.fanout(o.topic, o.text)
	case opHeartbeat:
		b.heartbeat.start(o.interval)
		b.log.Info("Heartbeat started", logger.Fields("interval", o.interval.String()))
	case opQuery:
		o.query(b)
		o.ack <- nil
	}
}

func (b *Broker) connect(topic string, h *Handle) error {
	if h.released || h.Closed() {
		return ErrHandleClosed
	}

	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Handle]struct{})
		b.topics[topic] = subs
		b.log.Debug("Topic created", logger.Fields(logger.FieldTopic, topic))
	}
	subs[h] = struct{}{}

	member, ok := b.memberships[h]
	if !ok {
		member = make(map[string]struct{})
		b.memberships[h] = member
	}
	member[topic] = struct{}{}

	b.log.Debug("Subscriber connected", logger.Fields(
		logger.FieldTopic, topic,
		logger.FieldHandleID, h.id,
		"subscribers", len(subs),
	))
	return nil
}

// fanout offers one event to every handle of topic. Closed handles are
// evicted on the spot; full inboxes lose this event only.
func (b *Broker) fanout(topic, text string) {
	subs, ok := b.topics[topic]
	if !ok {
		return
	}

	ev := Event{Topic: topic, Text: text}
	var sent, lost int
	for h := range subs {
		switch h.offer(ev) {
		case delivered:
			sent++
		case dropped:
			lost++
			b.log.Warn("Subscriber inbox full, dropping event", logger.Fields(
				logger.FieldTopic, topic,
				logger.FieldHandleID, h.id,
			))
		case closed:
			b.evict(h)
		}
	}
	b.recorder.Delivered(topic, sent)
	if lost > 0 {
		b.recorder.Dropped(topic, lost)
	}
}

// evict removes h from every topic, deletes topics left empty and releases
// the inbox. Unknown handles are ignored.
func (b *Broker) evict(h *Handle) {
	member, ok := b.memberships[h]
	if !ok {
		return
	}
	for topic := range member {
		subs := b.topics[topic]
		delete(subs, h)
		if len(subs) == 0 {
			delete(b.topics, topic)
			b.log.Debug("Topic removed", logger.Fields(logger.FieldTopic, topic))
		}
	}
	delete(b.memberships, h)
	h.release()
	b.recorder.Evicted()

	b.log.Debug("Subscriber disconnected", logger.Fields(
		logger.FieldHandleID, h.id,
		"topics", len(b.topics),
	))
}

func (b *Broker) shutdown() {
	b.Stop()
	b.heartbeat.stop()
	for h := range b.memberships {
		h.release()
	}
	b.topics = make(map[string]map[*Handle]struct{})
	b.memberships = make(map[*Handle]map[string]struct{})
	b.log.Debug("Broker stopped, all subscribers released")
}
