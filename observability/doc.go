// Package observability wires OpenTelemetry metrics and tracing.
//
// Metrics implements the broker recorder and session observer interfaces so
// delivery counters and the active stream gauge are recorded without the
// core packages importing OpenTelemetry:
//
//	metrics, err := observability.NewMetrics(observability.Meter("sseplex"))
//	b := broker.New(broker.WithRecorder(metrics))
//
// Export is off unless Config.Enabled is set, in which case Component
// installs OTLP/HTTP meter and tracer providers for its lifetime.
//
// ServiceHealth aggregates component health for the /healthz endpoint.
package observability
