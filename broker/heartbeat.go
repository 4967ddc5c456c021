package broker

import (
	"fmt"
	"time"
)

// DefaultHeartbeatInterval is the heartbeat period used when none is configured.
const DefaultHeartbeatInterval = time.Second

// heartbeat is the periodic synthetic publisher. Only the broker goroutine
// touches it.
type heartbeat struct {
	ticker   *time.Ticker
	interval time.Duration
	counter  uint64
}

// C returns the tick channel, or nil when the heartbeat is off. A nil
// channel never fires in a select.
func (hb *heartbeat) C() <-chan time.Time {
	if hb.ticker == nil {
		return nil
	}
	return hb.ticker.C
}

func (hb *heartbeat) enabled() bool { return hb.ticker != nil }

func (hb *heartbeat) start(interval time.Duration) {
	if hb.ticker != nil {
		hb.ticker.Reset(interval)
	} else {
		hb.ticker = time.NewTicker(interval)
	}
	hb.interval = interval
}

func (hb *heartbeat) stop() {
	if hb.ticker != nil {
		hb.ticker.Stop()
		hb.ticker = nil
	}
}

// tick publishes "event <n>" to every current topic, incrementing n once per
// topic visited. It goes through the same fan-out path as Publish.
func (hb *heartbeat) tick(b *Broker) {
	if len(b.topics) == 0 {
		return
	}
	// Fan-out may evict handles and delete topics, so snapshot the names first.
	names := make([]string, 0, len(b.topics))
	for topic := range b.topics {
		names = append(names, topic)
	}
	for _, topic := range names {
		hb.counter++
		b.fanout(topic, fmt.Sprintf("event %d", hb.counter))
	}
}
