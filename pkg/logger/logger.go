package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin structured-logging facade over zerolog.
type Logger struct {
	zl        zerolog.Logger
	collector *LogCollector
}

type Config struct {
	Level      string `yaml:"level" default:"info"`        // debug, info, warn, error
	Format     string `yaml:"format" default:"json"`       // json or console
	Output     string `yaml:"output" default:"stdout"`     // stdout, stderr or a file path
	TimeFormat string `yaml:"time_format" default:""`      // empty means RFC3339Nano
	Component  string `yaml:"component" default:"flarecast"`
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp().CallerWithSkipFrameCount(3)
	if cfg.Component != "" {
		ctx = ctx.Str("component", cfg.Component)
	}
	return &Logger{zl: ctx.Logger()}, nil
}

// NewWriter builds a JSON logger on an arbitrary writer. Used by tests.
func NewWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func openOutput(target string) (io.Writer, error) {
	switch target {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	return f, nil
}

// With returns a child logger that always carries the given fields.
// The child shares the parent's collector.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		k, v := f.GetKeyValue()
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger(), collector: l.collector}
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

func (l *Logger) emit(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		f.AddTo(event)
	}
	event.Msg(msg)
}

func (l *Logger) collect(level, msg string, fields []Field) {
	if l.collector == nil {
		return
	}

	caller := "unknown"
	// collect <- Error <- caller
	if _, file, line, ok := runtime.Caller(2); ok {
		caller = fmt.Sprintf("%s/%s:%d", filepath.Base(filepath.Dir(file)), filepath.Base(file), line)
	}

	values := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		k, v := f.GetKeyValue()
		values[k] = v
	}
	l.collector.AddLog(level, msg, values, caller)
}

// AddCollector attaches an error-log aggregator. A previous collector is closed.
func (l *Logger) AddCollector(cfg *CollectionConfig) {
	if l.collector != nil {
		l.collector.Close()
	}
	l.collector = NewLogCollector(cfg)
}

func (l *Logger) RemoveCollector() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}

// Field is a typed key/value pair attached to a log event.
type Field interface {
	AddTo(event *zerolog.Event)
	GetKeyValue() (string, interface{})
}

type field struct {
	key   string
	value interface{}
	add   func(e *zerolog.Event)
}

func (f field) AddTo(e *zerolog.Event)             { f.add(e) }
func (f field) GetKeyValue() (string, interface{}) { return f.key, f.value }

func String(key, value string) Field {
	return field{key, value, func(e *zerolog.Event) { e.Str(key, value) }}
}

func Strings(key string, value []string) Field {
	return field{key, value, func(e *zerolog.Event) { e.Strs(key, value) }}
}

func Int(key string, value int) Field {
	return field{key, value, func(e *zerolog.Event) { e.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return field{key, value, func(e *zerolog.Event) { e.Int64(key, value) }}
}

func Float64(key string, value float64) Field {
	return field{key, value, func(e *zerolog.Event) { e.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return field{key, value, func(e *zerolog.Event) { e.Bool(key, value) }}
}

// Duration is logged in milliseconds.
func Duration(key string, value time.Duration) Field {
	ms := value.Milliseconds()
	return field{key, ms, func(e *zerolog.Event) { e.Int64(key, ms) }}
}

func Error(err error) Field {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return field{"error", msg, func(e *zerolog.Event) { e.Err(err) }}
}

func Any(key string, value interface{}) Field {
	return field{key, value, func(e *zerolog.Event) { e.Interface(key, value) }}
}
