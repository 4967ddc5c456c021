package component

import "context"

// Component is a long-running part of the relay owned by a Registry.
type Component interface {
	// Name is unique within a Registry.
	Name() string
	// Start returns once the component can serve; work continues in the
	// background until Stop.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// HealthStatus is a component's state, ordered from best to worst.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) rank() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// Worse returns the worse of s and other.
func (s HealthStatus) Worse(other HealthStatus) HealthStatus {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// Health is one component's report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

func Healthy(name, message string) Health {
	return Health{Name: name, Status: StatusHealthy, Message: message}
}

func Degraded(name, message string) Health {
	return Health{Name: name, Status: StatusDegraded, Message: message}
}

func Unhealthy(name, message string) Health {
	return Health{Name: name, Status: StatusUnhealthy, Message: message}
}

// Description is the one-line summary printed at startup.
type Description struct {
	Name    string
	Type    string
	Details string
}

// Describable is implemented by components that can summarise their
// configuration.
type Describable interface {
	Describe() Description
}
