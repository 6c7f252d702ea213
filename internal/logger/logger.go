package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field names shared by every entry that concerns a single file.
const (
	FieldFile       = "file"
	FieldFormat     = "format"
	FieldOutcome    = "outcome"
	FieldIterations = "iterations"
)

// Options selects the level and rendering of a Logger.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// HumanReadable switches from JSON lines to zerolog's console writer.
	HumanReadable bool
	// Writer defaults to stderr so that reports on stdout stay parseable.
	Writer io.Writer
}

// Logger is the structured logger threaded through planning, diagnosis and
// the consumers. A nil *Logger discards everything.
type Logger struct {
	base zerolog.Logger
}

// New builds a Logger from opts.
func New(opts Options) (*Logger, error) {
	level, err := parseLevel(opts.Level, zerolog.InfoLevel)
	if err != nil {
		return nil, err
	}

	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	if opts.HumanReadable {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return &Logger{base: zerolog.New(out).Level(level).With().Timestamp().Logger()}, nil
}

// Nop returns a logger that drops every entry.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

func parseLevel(name string, fallback zerolog.Level) (zerolog.Level, error) {
	if name == "" {
		return fallback, nil
	}
	return zerolog.ParseLevel(strings.ToLower(name))
}

func (l *Logger) derive(ctx zerolog.Context) *Logger {
	return &Logger{base: ctx.Logger()}
}

// ForFile returns a logger tagged with the file and the format diagnosing it.
func (l *Logger) ForFile(relPath, format string) *Logger {
	if l == nil {
		return nil
	}
	return l.derive(l.base.With().Str(FieldFile, relPath).Str(FieldFormat, format))
}

// WithOutcome adds the diagnosis outcome and how many iterations it took.
func (l *Logger) WithOutcome(outcome string, iterations int) *Logger {
	if l == nil {
		return nil
	}
	return l.derive(l.base.With().Str(FieldOutcome, outcome).Int(FieldIterations, iterations))
}

// With returns a derived logger carrying a single string field.
func (l *Logger) With(key, value string) *Logger {
	if l == nil {
		return nil
	}
	return l.derive(l.base.With().Str(key, value))
}

// WithFields returns a derived logger carrying arbitrary fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}
	ctx := l.base.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return l.derive(ctx)
}

// Enabled reports whether entries at the named level would be written.
func (l *Logger) Enabled(level string) bool {
	if l == nil {
		return false
	}
	parsed, err := parseLevel(level, zerolog.NoLevel)
	if err != nil || parsed == zerolog.NoLevel {
		return false
	}
	return parsed >= l.base.GetLevel()
}

func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.base.Debug().Msg(msg)
}

func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.base.Info().Msg(msg)
}

// Warn writes a warning. err may be nil.
func (l *Logger) Warn(err error, msg string) {
	if l == nil {
		return
	}
	l.base.Warn().Err(err).Msg(msg)
}

// Error writes an error entry. err may be nil.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	l.base.Error().Err(err).Msg(msg)
}
