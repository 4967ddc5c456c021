package relay

import "context"

// Publisher accepts messages from the HTTP publish route.
type Publisher interface {
	Publish(ctx context.Context, topic, text string) error
}

// Sink is where relayed messages end up, normally the local broker.
type Sink interface {
	Publish(topic, text string) error
}

// Local publishes straight into the in-process broker.
type Local struct {
	sink Sink
}

// NewLocal returns a publisher that feeds sink directly.
func NewLocal(sink Sink) *Local {
	return &Local{sink: sink}
}

func (l *Local) Publish(_ context.Context, topic, text string) error {
	return l.sink.Publish(topic, text)
}
