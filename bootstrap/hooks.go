package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

type phase string

const (
	phaseStart phase = "onStart"
	phaseReady phase = "onReady"
	phaseStop  phase = "onStop"
)

// OnStart registers hooks run after every component started.
func (a *App[C]) OnStart(hooks ...Hook) { a.addHooks(phaseStart, hooks) }

// OnReady registers hooks run after the ready check, before the summary.
func (a *App[C]) OnReady(hooks ...Hook) { a.addHooks(phaseReady, hooks) }

// OnStop registers hooks run on shutdown before components stop.
func (a *App[C]) OnStop(hooks ...Hook) { a.addHooks(phaseStop, hooks) }

func (a *App[C]) addHooks(p phase, hooks []Hook) {
	if a.hooks == nil {
		a.hooks = make(map[phase][]Hook)
	}
	a.hooks[p] = append(a.hooks[p], hooks...)
}

// runHooks stops at the first failing hook.
func (a *App[C]) runHooks(ctx context.Context, p phase) error {
	for i, h := range a.hooks[p] {
		if err := h(ctx); err != nil {
			return fmt.Errorf("%s hook %d: %w", p, i, err)
		}
	}
	return nil
}
