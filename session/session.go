package session

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/sseplex/broker"
	"github.com/kbukum/sseplex/errors"
	"github.com/kbukum/sseplex/logger"
)

// Broker is the part of the topic broker a session needs.
type Broker interface {
	Connect(ctx context.Context, topic string, h *broker.Handle) error
	Disconnect(h *broker.Handle)
}

// Observer is notified when a session becomes active and when it ends.
type Observer interface {
	Opened(topic string)
	Closed(topic string)
}

type nopObserver struct{}

func (nopObserver) Opened(string) {}
func (nopObserver) Closed(string) {}

// Session is one open event stream bound to a single topic.
type Session struct {
	id        string
	topic     string
	handle    *broker.Handle
	broker    Broker
	state     atomic.Int32
	keepAlive time.Duration
	observer  Observer
	log       *logger.Logger
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	inboxSize int
	keepAlive time.Duration
	observer  Observer
	log       *logger.Logger
}

// WithInboxSize sets the handle inbox capacity.
func WithInboxSize(n int) Option {
	return func(o *sessionOptions) { o.inboxSize = n }
}

// WithKeepAlive writes an SSE comment line every d while idle. Zero disables it.
func WithKeepAlive(d time.Duration) Option {
	return func(o *sessionOptions) { o.keepAlive = d }
}

// WithObserver sets the lifecycle observer.
func WithObserver(obs Observer) Option {
	return func(o *sessionOptions) { o.observer = obs }
}

// WithLogger sets the session logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *sessionOptions) { o.log = l }
}

// New creates a session for topic in the Starting state.
func New(b Broker, topic string, opts ...Option) *Session {
	o := sessionOptions{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("session")
	}

	id := uuid.New().String()
	return &Session{
		id:        id,
		topic:     topic,
		handle:    broker.NewHandle(id, o.inboxSize),
		broker:    b,
		keepAlive: o.keepAlive,
		observer:  o.observer,
		log: o.log.WithFields(logger.Fields(
			logger.FieldSessionID, id,
			logger.FieldTopic, topic,
		)),
	}
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Topic() string { return s.topic }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// transition moves the session to the next state. Illegal moves are logged
// and ignored.
func (s *Session) transition(to State) bool {
	from := s.State()
	if !CanTransition(from, to) || !s.state.CompareAndSwap(int32(from), int32(to)) {
		s.log.Warn("Ignoring illegal session transition", logger.Fields(
			"from", from.String(),
			"to", to.String(),
		))
		return false
	}
	s.log.Debug("Session state changed", logger.Fields("from", from.String(), logger.FieldState, to.String()))
	return true
}

// Serve connects to the broker and streams events to w until ctx is done,
// a write fails or the broker drops the handle. An error is returned only
// when the stream never opened; nothing has been written to w in that case.
func (s *Session) Serve(ctx context.Context, w http.ResponseWriter) error {
	if s.State() != StateStarting {
		return errors.New(errors.ErrCodeInternal, "Session has already been served.")
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.transition(StateStopped)
		return errors.StreamingUnsupported()
	}

	if err := s.broker.Connect(ctx, s.topic, s.handle); err != nil {
		// The request may still be applied after a timeout; make sure it is undone.
		s.broker.Disconnect(s.handle)
		s.transition(StateStopped)
		s.log.Warn("Broker connect failed", logger.ErrorFields("connect", err))
		return errors.ServiceUnavailable("broker").WithCause(err)
	}
	s.transition(StateActive)
	s.observer.Opened(s.topic)
	defer s.stop()

	// Streams are long-lived and must not be cut by the server's WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.log.Debug("Could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.log.Debug("Session active")

	var keepAlive <-chan time.Time
	if s.keepAlive > 0 {
		ticker := time.NewTicker(s.keepAlive)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Client disconnected", logger.Fields("reason", ctx.Err().Error()))
			return nil

		case ev, ok := <-s.handle.Events():
			if !ok {
				s.log.Debug("Handle released by broker")
				return nil
			}
			if ev.Topic != s.topic {
				continue
			}
			if _, err := w.Write(Frame(ev.Text)); err != nil {
				s.log.Debug("Write failed", logger.ErrorFields("write", err))
				return nil
			}
			flusher.Flush()

		case <-keepAlive:
			if _, err := w.Write(keepAliveComment); err != nil {
				s.log.Debug("Keep-alive write failed", logger.ErrorFields("write", err))
				return nil
			}
			flusher.Flush()
		}
	}
}

func (s *Session) stop() {
	s.transition(StateStopping)
	s.broker.Disconnect(s.handle)
	s.transition(StateStopped)
	s.observer.Closed(s.topic)
	s.log.Debug("Session stopped")
}

// keepAliveComment is written on idle streams; clients ignore SSE comments.
var keepAliveComment = []byte(": keep-alive\n\n")

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Frame encodes text as one SSE event. Each line of text becomes its own
// data field so embedded newlines cannot split the event.
func Frame(text string) []byte {
	lines := strings.Split(lineBreaks.Replace(text), "\n")
	var b strings.Builder
	b.Grow(len(text) + len(lines)*7 + 1)
	for _, line := range lines {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
