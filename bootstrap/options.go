package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/kbukum/sseplex/logger"
)

// Option configures an App.
type Option func(*settings)

type settings struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	summary         io.Writer
}

func newSettings(opts []Option) settings {
	s := settings{
		gracefulTimeout: 15 * time.Second,
		summary:         os.Stdout,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger replaces the logger NewApp would build from the logging section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithGracefulTimeout bounds the whole shutdown: stop hooks plus components.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.gracefulTimeout = d
		}
	}
}

// WithSummaryWriter sets where the startup summary goes. Nil disables it.
func WithSummaryWriter(w io.Writer) Option {
	return func(s *settings) {
		if w == nil {
			w = io.Discard
		}
		s.summary = w
	}
}
