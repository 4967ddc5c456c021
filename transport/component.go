package transport

import (
	"context"

	"github.com/kbukum/sseplex/component"
)

const componentName = "http-server"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps Server to implement component.Component.
type Component struct {
	server *Server
}

// NewComponent returns a component.Component backed by the given Server.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Server returns the wrapped server.
func (sc *Component) Server() *Server { return sc.server }

func (sc *Component) Name() string { return componentName }

func (sc *Component) Start(ctx context.Context) error {
	return sc.server.Start(ctx)
}

func (sc *Component) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health reports whether the server is accepting connections.
func (sc *Component) Health(_ context.Context) component.Health {
	if !sc.server.Serving() {
		return component.Unhealthy(componentName, "not listening")
	}
	return component.Healthy(componentName, "listening on "+sc.server.Addr())
}

// Describe summarises the listen URL and topic prefix.
func (sc *Component) Describe() component.Description {
	prefix := sc.server.config.URLPrefix
	if prefix == "" {
		prefix = "/"
	}
	scheme := "http://"
	if sc.server.config.TLS.ServerEnabled() {
		scheme = "https://"
	}
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: scheme + sc.server.Addr() + " prefix=" + prefix,
	}
}
