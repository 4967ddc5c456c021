package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/sseplex/component"
	"github.com/kbukum/sseplex/logger"
)

// Component installs the OTLP meter and tracer providers while running.
type Component struct {
	cfg Config
	id  Identity
	log *logger.Logger

	mu sync.Mutex
	mp *sdkmetric.MeterProvider
	tp *sdktrace.TracerProvider
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the observability component.
func NewComponent(cfg Config, id Identity) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, id: id, log: logger.Get("observability")}
}

func (c *Component) Name() string { return "observability" }

func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cfg.Enabled || c.mp != nil {
		return nil
	}

	res, err := c.id.resource()
	if err != nil {
		return fmt.Errorf("observability resource: %w", err)
	}
	mp, err := newMeterProvider(ctx, c.cfg, res)
	if err != nil {
		return fmt.Errorf("observability start: %w", err)
	}
	tp, err := newTracerProvider(ctx, c.cfg, res)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return fmt.Errorf("observability start: %w", err)
	}

	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	c.mp, c.tp = mp, tp

	c.log.Info("Telemetry export started", logger.Fields(
		"endpoint", c.cfg.Endpoint,
		"interval", c.cfg.Interval.String(),
		"sample_rate", c.cfg.SampleRate,
	))
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mp == nil {
		return nil
	}
	err := errors.Join(c.tp.Shutdown(ctx), c.mp.Shutdown(ctx))
	c.mp, c.tp = nil, nil
	if err != nil {
		c.log.Warn("Telemetry shutdown incomplete", logger.Fields(logger.FieldError, err.Error()))
	}
	return err
}

func (c *Component) Health(_ context.Context) component.Health {
	msg := "export disabled"
	if c.cfg.Enabled {
		msg = "exporting to " + c.cfg.Endpoint
	}
	return component.Healthy(c.Name(), msg)
}

func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("otlp=%s interval=%s sample=%.2f", c.cfg.Endpoint, c.cfg.Interval, c.cfg.SampleRate)
	}
	return component.Description{Name: "OpenTelemetry", Type: "observability", Details: details}
}
