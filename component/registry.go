package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/sseplex/logger"
)

// Registry starts components in registration order and stops them in
// reverse. Register dependencies before their dependents.
type Registry struct {
	mu      sync.RWMutex
	comps   []Component
	byName  map[string]Component
	running int // comps[:running] have been started

	stopTimeout time.Duration
	log         *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Get("components")
	}
	return &Registry{
		byName:      make(map[string]Component),
		stopTimeout: 10 * time.Second,
		log:         log,
	}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.comps = append(r.comps, c)
	r.byName[name] = c
	r.log.Debug("Component registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

// StartAll starts every component not yet running. When one fails, the ones
// already running are stopped again and the start error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	var startErr error
	for ; r.running < len(r.comps); r.running++ {
		c := r.comps[r.running]
		if err := c.Start(ctx); err != nil {
			r.log.Error("Component start failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			startErr = fmt.Errorf("failed to start %s: %w", c.Name(), err)
			break
		}
		r.log.Info("Component started", startedFields(c))
	}
	r.mu.Unlock()

	if startErr != nil {
		_ = r.StopAll(context.WithoutCancel(ctx))
	}
	return startErr
}

func startedFields(c Component) map[string]interface{} {
	fields := logger.Fields(logger.FieldComponent, c.Name())
	if d, ok := c.(Describable); ok {
		desc := d.Describe()
		fields["type"] = desc.Type
		fields["details"] = desc.Details
	}
	return fields
}

// StopAll stops running components newest first, each bounded by the stop
// timeout. Every component is asked to stop even when an earlier one fails.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for ; r.running > 0; r.running-- {
		c := r.comps[r.running-1]
		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", c.Name(), err))
			r.log.Error("Component stop failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			continue
		}
		r.log.Info("Component stopped", logger.Fields(logger.FieldComponent, c.Name()))
	}
	return errors.Join(errs...)
}

// HealthAll checks every component concurrently and returns the results in
// registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	comps := append([]Component(nil), r.comps...)
	r.mu.RUnlock()

	results := make([]Health, len(comps))
	var wg sync.WaitGroup
	for i, c := range comps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Health(ctx)
		}()
	}
	wg.Wait()
	return results
}

// Get returns the component registered under name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Describe returns the descriptions of the Describable components in
// registration order.
func (r *Registry) Describe() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Description
	for _, c := range r.comps {
		if d, ok := c.(Describable); ok {
			out = append(out, d.Describe())
		}
	}
	return out
}
