package component

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kbukum/sseplex/logger"
)

// mockComponent implements Component for testing.
type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

type describedComponent struct {
	mockComponent
}

func (d *describedComponent) Describe() Description {
	return Description{Name: "Broker", Type: "broker", Details: "queue=256"}
}

func newTestRegistry() *Registry {
	return NewRegistry(logger.Nop())
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry()
	if err := r.Register(&mockComponent{name: "broker"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "broker"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "relay"})

	if got := r.Get("relay"); got == nil || got.Name() != "relay" {
		t.Fatalf("expected relay component, got %v", got)
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for missing component")
	}
}

func TestStartAll(t *testing.T) {
	r := newTestRegistry()
	var order []string
	r.Register(&mockComponent{name: "broker", startOrder: &order})
	r.Register(&describedComponent{mockComponent{name: "relay", startOrder: &order}})
	r.Register(&mockComponent{name: "http-server", startOrder: &order})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	want := []string{"broker", "relay", "http-server"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("expected start order %v, got %v", want, order)
	}
}

func TestStartAllErrorRollsBack(t *testing.T) {
	r := newTestRegistry()
	var stopped []string
	r.Register(&mockComponent{name: "broker", stopOrder: &stopped})
	r.Register(&mockComponent{name: "relay", startErr: fmt.Errorf("redis down"), stopOrder: &stopped})
	r.Register(&mockComponent{name: "http-server", stopOrder: &stopped})

	err := r.StartAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "relay") {
		t.Fatalf("expected relay start error, got %v", err)
	}
	if fmt.Sprint(stopped) != "[broker]" {
		t.Errorf("expected only broker to be stopped, got %v", stopped)
	}
}

func TestStopAllReverseOrder(t *testing.T) {
	r := newTestRegistry()
	var order []string
	r.Register(&mockComponent{name: "a", stopOrder: &order})
	r.Register(&mockComponent{name: "b", stopOrder: &order})
	r.Register(&mockComponent{name: "c", stopOrder: &order})

	ctx := context.Background()
	r.StartAll(ctx)
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if fmt.Sprint(order) != "[c b a]" {
		t.Errorf("expected reverse order, got %v", order)
	}

	order = nil
	r.StopAll(ctx)
	if len(order) != 0 {
		t.Errorf("second StopAll should not stop anything, got %v", order)
	}
}

func TestStopAllWithErrors(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "a", stopErr: fmt.Errorf("stuck")})
	r.Register(&mockComponent{name: "b"})

	ctx := context.Background()
	r.StartAll(ctx)
	if err := r.StopAll(ctx); err == nil {
		t.Error("expected shutdown error")
	}
}

func TestHealthAll(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "a", health: Health{Name: "a", Status: StatusHealthy}})
	r.Register(&mockComponent{name: "b", health: Health{Name: "b", Status: StatusUnhealthy, Message: "down"}})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusHealthy || results[1].Status != StatusUnhealthy {
		t.Errorf("unexpected health results: %+v", results)
	}
}

func TestDescribe(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "plain"})
	r.Register(&describedComponent{mockComponent{name: "broker"}})

	got := r.Describe()
	if len(got) != 1 || got[0].Type != "broker" {
		t.Errorf("expected only the describable component, got %+v", got)
	}
}

func TestHealthHelpersAndWorse(t *testing.T) {
	if h := Degraded("relay", "ping failed"); h.Status != StatusDegraded || h.Name != "relay" || h.Message != "ping failed" {
		t.Errorf("unexpected health %+v", h)
	}
	tests := []struct {
		a, b, want HealthStatus
	}{
		{StatusHealthy, StatusHealthy, StatusHealthy},
		{StatusHealthy, StatusDegraded, StatusDegraded},
		{StatusDegraded, StatusHealthy, StatusDegraded},
		{StatusDegraded, StatusUnhealthy, StatusUnhealthy},
		{StatusUnhealthy, StatusDegraded, StatusUnhealthy},
		{"", StatusHealthy, ""},
	}
	for _, tc := range tests {
		if got := tc.a.Worse(tc.b); got != tc.want {
			t.Errorf("%q.Worse(%q) = %q, want %q", tc.a, tc.b, got, tc.want)
		}
	}
}
