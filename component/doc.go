// Package component defines the lifecycle contract shared by the relay's
// long-running parts (broker, Redis relay, telemetry exporters, HTTP server)
// and a Registry that starts them in order and stops them in reverse.
package component
