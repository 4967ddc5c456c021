package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the relay instruments. It satisfies broker.Recorder and
// session.Observer. Topic names are unbounded, so they are not attached as
// attributes.
type Metrics struct {
	published      metric.Int64Counter
	delivered      metric.Int64Counter
	dropped        metric.Int64Counter
	evicted        metric.Int64Counter
	sessionsActive metric.Int64UpDownCounter
	rejected       metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	published, err := meter.Int64Counter("sseplex.events.published",
		metric.WithDescription("Publish requests accepted by the broker"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sseplex.events.published counter: %w", err)
	}

	delivered, err := meter.Int64Counter("sseplex.events.delivered",
		metric.WithDescription("Events placed in a subscriber inbox"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sseplex.events.delivered counter: %w", err)
	}

	dropped, err := meter.Int64Counter("sseplex.events.dropped",
		metric.WithDescription("Events lost because a subscriber inbox was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sseplex.events.dropped counter: %w", err)
	}

	evicted, err := meter.Int64Counter("sseplex.handles.evicted",
		metric.WithDescription("Subscriber handles removed from the registry"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sseplex.handles.evicted counter: %w", err)
	}

	sessionsActive, err := meter.Int64UpDownCounter("sseplex.sessions.active",
		metric.WithDescription("Currently open event streams"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sseplex.sessions.active gauge: %w", err)
	}

	rejected, err := meter.Int64Counter("sseplex.requests.rejected",
		metric.WithDescription("Requests refused by authorization or rate limiting"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sseplex.requests.rejected counter: %w", err)
	}

	return &Metrics{
		published:      published,
		delivered:      delivered,
		dropped:        dropped,
		evicted:        evicted,
		sessionsActive: sessionsActive,
		rejected:       rejected,
	}, nil
}

func (m *Metrics) Published(string) {
	m.published.Add(context.Background(), 1)
}

func (m *Metrics) Delivered(_ string, n int) {
	if n > 0 {
		m.delivered.Add(context.Background(), int64(n))
	}
}

func (m *Metrics) Dropped(_ string, n int) {
	m.dropped.Add(context.Background(), int64(n))
}

func (m *Metrics) Evicted() {
	m.evicted.Add(context.Background(), 1)
}

func (m *Metrics) Opened(string) {
	m.sessionsActive.Add(context.Background(), 1)
}

func (m *Metrics) Closed(string) {
	m.sessionsActive.Add(context.Background(), -1)
}

// RecordRejected counts a refused request by HTTP status.
func (m *Metrics) RecordRejected(ctx context.Context, status int) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attrStatus.Int(status)))
}
