package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/sseplex/authgate"
	"github.com/kbukum/sseplex/bootstrap"
	"github.com/kbukum/sseplex/broker"
	"github.com/kbukum/sseplex/logger"
	"github.com/kbukum/sseplex/observability"
	"github.com/kbukum/sseplex/relay"
	"github.com/kbukum/sseplex/resilience"
	"github.com/kbukum/sseplex/transport"
)

// serve wires the broker, relay, gate and HTTP transport and runs them
// until SIGINT/SIGTERM or ctx is canceled.
func serve(ctx context.Context, cfg *Config, opts ...bootstrap.Option) error {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return err
	}
	log := app.Logger

	obs := observability.NewComponent(cfg.Observability, observability.Identity{
		Service:     cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})
	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	bc := broker.NewComponent(cfg.Broker,
		broker.WithRecorder(metrics),
		broker.WithLogger(log.WithComponent("broker")),
	)
	b := bc.Broker()

	if err := app.RegisterComponent(obs); err != nil {
		return err
	}
	if err := app.RegisterComponent(bc); err != nil {
		return err
	}

	var publisher relay.Publisher = relay.NewLocal(b)
	if cfg.Redis.Enabled {
		r, err := relay.NewRedis(cfg.Redis, b, log.WithComponent("relay"))
		if err != nil {
			return fmt.Errorf("relay: %w", err)
		}
		if err := app.RegisterComponent(r); err != nil {
			return err
		}
		publisher = r
	}

	var gate *authgate.Gate
	if cfg.Auth.Enabled() {
		gate = authgate.NewFromConfig(cfg.Auth, authgate.WithLogger(log.WithComponent("authgate")))
	} else {
		log.Warn("Authorization disabled, set auth.secret to require bearer tokens")
	}

	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Name:    "publish",
		Rate:    cfg.Publish.Rate,
		Burst:   cfg.Publish.Burst,
		IdleTTL: 5 * time.Minute,
		OnLimit: func(name, key string) {
			log.Debug("Publish rate limited", logger.Fields("limiter", name, "client", key))
		},
	})

	keepAlive, err := cfg.HTTP.KeepAliveInterval()
	if err != nil {
		return fmt.Errorf("http.keep_alive: %w", err)
	}

	srv := transport.New(cfg.HTTP, log)
	srv.ApplyMiddleware()
	transport.Register(srv.Engine(), cfg.HTTP.URLPrefix, transport.Deps{
		Broker:    b,
		Publisher: publisher,
		Gate:      gate,
		Limiter:   limiter,
		Metrics:   metrics,
		Health:    app.Health,
		InboxSize: bc.InboxSize(),
		KeepAlive: keepAlive,
		Log:       log.WithComponent("transport"),
	})
	if err := app.RegisterComponent(transport.NewComponent(srv)); err != nil {
		return err
	}

	return app.Run(ctx)
}
