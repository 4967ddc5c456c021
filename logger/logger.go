package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Logger is a zerolog logger bound to the service it was built for.
type Logger struct {
	zl      zerolog.Logger
	service string
}

var (
	defaultMu sync.RWMutex
	defaultL  *Logger
)

// Init builds the process-wide logger from cfg and returns it. Component
// loggers handed out by Get before Init are discarded.
func Init(cfg *Config) *Logger {
	cfg.ApplyDefaults()
	l := New(cfg, cfg.ServiceName)
	SetDefault(l)
	log.Logger = l.zl
	return l
}

// New creates a logger writing to the configured output.
func New(cfg *Config, service string) *Logger {
	w := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		w = os.Stderr
	}
	return NewWithWriter(cfg, service, w)
}

// NewWithWriter creates a logger writing to w. An unknown level falls back
// to info.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(cfg.Format, FormatConsole) {
		w = consoleWriter(cfg, w)
	}

	zc := zerolog.New(w).Level(level).With()
	if service != "" {
		zc = zc.Str("service", service)
	}
	if !cfg.NoTimestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.Caller()
	}
	return &Logger{zl: zc.Logger(), service: service}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Default returns the process-wide logger, a console logger at info level
// until Init or SetDefault runs.
func Default() *Logger {
	defaultMu.RLock()
	l := defaultL
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultL == nil {
		defaultL = New(&Config{Level: "info", Format: FormatConsole}, "")
	}
	return defaultL
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultL = l
	defaultMu.Unlock()
	resetComponents()
}

type contextKey struct{}

// ContextWithRequestID stores a request id for WithContext to pick up.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns l enriched with the request id carried by ctx, or l
// itself when there is none.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	id, ok := RequestIDFrom(ctx)
	if !ok {
		return l
	}
	return l.with(l.zl.With().Str(FieldRequestID, id))
}

// WithComponent returns l tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.with(l.zl.With().Str(FieldComponent, name))
}

// WithFields returns l with fields attached to every entry.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.with(l.zl.With().Fields(fields))
}

func (l *Logger) with(zc zerolog.Context) *Logger {
	return &Logger{zl: zc.Logger(), service: l.service}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

func emit(event *zerolog.Event, msg string, fields []map[string]interface{}) {
	if event == nil {
		return
	}
	for _, fm := range fields {
		event.Fields(fm)
	}
	event.Msg(msg)
}

var levelAbbrev = map[string]string{
	"trace": "TRC",
	"debug": "DBG",
	"info":  "INF",
	"warn":  "WRN",
	"error": "ERR",
	"fatal": "FTL",
	"panic": "PNC",
}

var levelColor = map[string]string{
	"debug": "\033[36m",
	"info":  "\033[32m",
	"warn":  "\033[33m",
	"error": "\033[31m",
	"fatal": "\033[35m",
}

func consoleWriter(cfg *Config, w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    cfg.NoColor,
		TimeFormat: "15:04:05.000",
		FormatLevel: func(i interface{}) string {
			lvl, _ := i.(string)
			tag, ok := levelAbbrev[lvl]
			if !ok {
				tag = strings.ToUpper(lvl)
			}
			if c, ok := levelColor[lvl]; ok && !cfg.NoColor {
				return c + tag + "\033[0m"
			}
			return tag
		},
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("%-28s", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
	}
}
