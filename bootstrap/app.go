package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/sseplex/component"
	"github.com/kbukum/sseplex/logger"
	"github.com/kbukum/sseplex/observability"
)

// App is one sseplex process with uniform lifecycle management. C is the
// application config type.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger

	gracefulTimeout time.Duration
	summary         io.Writer
	hooks           map[phase][]Hook
}

// NewApp applies defaults to cfg, validates it and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	set := newSettings(opts)

	log := set.logger
	if log == nil {
		log = logger.Init(&base.Logging)
	}
	return &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(log.WithComponent("components")),
		Logger:          log,
		gracefulTimeout: set.gracefulTimeout,
		summary:         set.summary,
	}, nil
}

// RegisterComponent adds a component. Components start in registration
// order, so register dependencies first.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// Health aggregates the health of every registered component.
func (a *App[C]) Health(ctx context.Context) *observability.ServiceHealth {
	sh := observability.NewServiceHealth(a.Name, a.Version)
	for _, h := range a.Components.HealthAll(ctx) {
		sh.AddComponent(h)
	}
	return sh
}

// ReadyCheck fails unless every registered component reports healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	sh := a.Health(ctx)
	if sh.Status == observability.HealthStatusUp {
		return nil
	}
	var issues []string
	for _, h := range sh.Components {
		if h.Status == component.StatusHealthy {
			continue
		}
		detail := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			detail += "(" + h.Message + ")"
		}
		issues = append(issues, detail)
	}
	return fmt.Errorf("service %s: %s", sh.Status, strings.Join(issues, ", "))
}

// Run starts the components and hooks, blocks until SIGINT, SIGTERM or ctx
// cancellation, then shuts down within the graceful timeout.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	a.Logger.Info("Application ready, waiting for shutdown signal")
	<-sigCtx.Done()
	if ctx.Err() != nil {
		a.Logger.Info("Context canceled, shutting down")
	} else {
		a.Logger.Info("Received shutdown signal, graceful shutdown starting")
	}
	return a.stop()
}

// startup runs start hooks once components are up and ready hooks once the
// ready check has been logged. A failing hook tears everything down again.
func (a *App[C]) startup(ctx context.Context) error {
	began := time.Now()
	a.Logger.Info("Starting application", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start components: %w", err)
	}
	if err := a.runHooks(ctx, phaseStart); err != nil {
		return errors.Join(err, a.stop())
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := a.runHooks(ctx, phaseReady); err != nil {
		return errors.Join(err, a.stop())
	}

	WriteSummary(a.summary, a.Name, a.Version, time.Since(began), a.Components)
	return nil
}

// stop runs the stop hooks, then stops the components, with one deadline
// shared by both.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	err := errors.Join(a.runHooks(ctx, phaseStop), a.Components.StopAll(ctx))
	if err != nil {
		a.Logger.Error("Shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	a.Logger.Info("Application shutdown complete")
	return nil
}
