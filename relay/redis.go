package relay

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/sseplex/component"
	"github.com/kbukum/sseplex/logger"
)

// Redis shares topics between sseplex instances. Publish sends to the Redis
// channel "<prefix><topic>"; every instance pattern-subscribes to
// "<prefix>*" and hands what it receives to its local sink. Delivery stays
// best effort: messages published while an instance is disconnected are lost.
type Redis struct {
	cfg  Config
	sink Sink
	log  *logger.Logger

	mu     sync.Mutex
	rdb    *goredis.Client
	pubsub *goredis.PubSub
	wg     sync.WaitGroup
}

var (
	_ Publisher             = (*Redis)(nil)
	_ component.Component   = (*Redis)(nil)
	_ component.Describable = (*Redis)(nil)
)

// NewRedis creates a Redis relay feeding sink. Call Start before Publish.
func NewRedis(cfg Config, sink Sink, log *logger.Logger) (*Redis, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}
	if log == nil {
		log = logger.Get("relay")
	}
	return &Redis{cfg: cfg, sink: sink, log: log}, nil
}

func (r *Redis) Name() string { return "relay" }

// Start connects, subscribes and begins forwarding messages to the sink.
func (r *Redis) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rdb != nil {
		return nil
	}

	opts, err := r.cfg.options()
	if err != nil {
		return fmt.Errorf("relay tls: %w", err)
	}
	rdb := goredis.NewClient(opts)
	_, err = backoff.Retry(ctx, func() (string, error) {
		return rdb.Ping(ctx).Result()
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(r.cfg.ConnectAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.log.Warn("Redis not reachable, retrying", logger.Fields(
				"addr", r.cfg.Addr,
				logger.FieldError, err.Error(),
				"retry_in", next.String(),
			))
		}),
	)
	if err != nil {
		_ = rdb.Close()
		return fmt.Errorf("relay ping %s: %w", r.cfg.Addr, err)
	}

	pattern := escapeGlob(r.cfg.ChannelPrefix) + "*"
	pubsub := rdb.PSubscribe(ctx, pattern)
	// Wait for the subscription confirmation so nothing published after
	// Start returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = rdb.Close()
		return fmt.Errorf("relay subscribe %s: %w", pattern, err)
	}

	r.rdb = rdb
	r.pubsub = pubsub
	r.wg.Add(1)
	go r.forward(pubsub.Channel())

	r.log.Info("Redis relay started", logger.Fields(
		"addr", r.cfg.Addr,
		"pattern", pattern,
	))
	return nil
}

func (r *Redis) forward(ch <-chan *goredis.Message) {
	defer r.wg.Done()
	for msg := range ch {
		topic := strings.TrimPrefix(msg.Channel, r.cfg.ChannelPrefix)
		if err := r.sink.Publish(topic, msg.Payload); err != nil {
			r.log.Warn("Dropping relayed message", logger.Fields(
				logger.FieldTopic, topic,
				logger.FieldError, err.Error(),
			))
		}
	}
}

// Publish sends text to every instance subscribed to the relay, this one included.
func (r *Redis) Publish(ctx context.Context, topic, text string) error {
	r.mu.Lock()
	rdb := r.rdb
	r.mu.Unlock()
	if rdb == nil {
		return fmt.Errorf("relay not started")
	}
	if err := rdb.Publish(ctx, r.cfg.ChannelPrefix+topic, text).Err(); err != nil {
		return fmt.Errorf("relay publish %s: %w", topic, err)
	}
	return nil
}

// Stop unsubscribes, waits for the forwarder and closes the connection.
// Safe to call multiple times.
func (r *Redis) Stop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rdb == nil {
		return nil
	}
	r.log.Info("Redis relay stopping")
	err := r.pubsub.Close()
	r.wg.Wait()
	if cerr := r.rdb.Close(); err == nil {
		err = cerr
	}
	r.rdb = nil
	r.pubsub = nil
	return err
}

func (r *Redis) Health(ctx context.Context) component.Health {
	r.mu.Lock()
	rdb := r.rdb
	r.mu.Unlock()

	if rdb == nil {
		return component.Unhealthy(r.Name(), "relay not started")
	}
	// Open streams keep working while go-redis reconnects; only publishing fails.
	if err := rdb.Ping(ctx).Err(); err != nil {
		return component.Degraded(r.Name(), fmt.Sprintf("ping failed: %v", err))
	}
	return component.Healthy(r.Name(), "subscribed")
}

func (r *Redis) Describe() component.Description {
	return component.Description{
		Name:    "Redis Relay",
		Type:    "relay",
		Details: fmt.Sprintf("%s db=%d prefix=%s", r.cfg.Addr, r.cfg.DB, r.cfg.ChannelPrefix),
	}
}

// escapeGlob quotes the characters PSUBSCRIBE treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
