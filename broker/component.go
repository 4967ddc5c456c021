package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/sseplex/component"
	"github.com/kbukum/sseplex/logger"
)

// Component runs a Broker under the component registry lifecycle.
type Component struct {
	broker *Broker
	cfg    Config
	cancel context.CancelFunc
	mu     sync.Mutex
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a broker component. Extra options are passed to New.
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	opts = append([]Option{WithQueueSize(cfg.QueueSize)}, opts...)
	return &Component{
		broker: New(opts...),
		cfg:    cfg,
	}
}

// Broker returns the underlying broker.
func (c *Component) Broker() *Broker { return c.broker }

// InboxSize returns the configured per-handle inbox capacity.
func (c *Component) InboxSize() int { return c.cfg.InboxSize }

func (c *Component) Name() string { return "broker" }

// Start launches the broker loop and, if enabled, the heartbeat.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.broker.Run(ctx)

	if c.cfg.Heartbeat.Enabled {
		if err := c.broker.StartHeartbeat(c.cfg.Heartbeat.Interval); err != nil {
			return fmt.Errorf("start heartbeat: %w", err)
		}
	}
	return nil
}

// Stop shuts the broker down and waits until every handle is released.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return nil
	}
	if topics, err := c.broker.Topics(ctx); err == nil && len(topics) > 0 {
		c.broker.log.Info("Releasing open topics", logger.Fields("topics", topics))
	}
	c.broker.Stop()
	c.cancel()
	select {
	case <-c.broker.Exited():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Component) Health(ctx context.Context) component.Health {
	stats, err := c.broker.Stats(ctx)
	if err != nil {
		return component.Unhealthy(c.Name(), err.Error())
	}
	return component.Healthy(c.Name(), fmt.Sprintf("%d topics, %d subscribers", stats.Topics, stats.Handles))
}

func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("inbox=%d queue=%d heartbeat=off", c.cfg.InboxSize, c.cfg.QueueSize)
	if c.cfg.Heartbeat.Enabled {
		details = fmt.Sprintf("inbox=%d queue=%d heartbeat=%s", c.cfg.InboxSize, c.cfg.QueueSize, c.cfg.Heartbeat.Interval)
	}
	return component.Description{Name: "Broker", Type: "broker", Details: details}
}
