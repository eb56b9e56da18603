package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Category tags every log line with the subsystem it came from.
type Category string

const (
	CategoryApp   Category = "app"
	CategoryStore Category = "store"
	CategoryHTTP  Category = "http"
	CategoryPanel Category = "panel"
)

type Logger interface {
	Debugf(c Category, format string, args ...interface{})
	Infof(c Category, format string, args ...interface{})
	Warnf(c Category, format string, args ...interface{})
	Errorf(c Category, format string, args ...interface{})
	Close()
}

type Options struct {
	Level string
	// Pretty selects the human console writer instead of JSON lines.
	Pretty bool
	// File, when set, receives the log instead of Out.
	File string
	Mode os.FileMode
	Out  io.Writer
}

type zeroLogger struct {
	log    zerolog.Logger
	closer io.Closer
}

func New(opts Options) (Logger, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}
	if opts.Level == "" {
		level = zerolog.InfoLevel
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	var closer io.Closer
	if opts.File != "" {
		mode := opts.Mode
		if mode == 0 {
			mode = 0o644
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, mode)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: opts.File != ""}
	}

	return &zeroLogger{
		log:    zerolog.New(out).Level(level).With().Timestamp().Logger(),
		closer: closer,
	}, nil
}

func (l *zeroLogger) Debugf(c Category, format string, args ...interface{}) {
	l.log.Debug().Str("type", string(c)).Msgf(format, args...)
}

func (l *zeroLogger) Infof(c Category, format string, args ...interface{}) {
	l.log.Info().Str("type", string(c)).Msgf(format, args...)
}

func (l *zeroLogger) Warnf(c Category, format string, args ...interface{}) {
	l.log.Warn().Str("type", string(c)).Msgf(format, args...)
}

func (l *zeroLogger) Errorf(c Category, format string, args ...interface{}) {
	l.log.Error().Str("type", string(c)).Msgf(format, args...)
}

func (l *zeroLogger) Close() {
	if l.closer != nil {
		_ = l.closer.Close()
	}
}

type nop struct{}

func Nop() Logger { return nop{} }

func (nop) Debugf(Category, string, ...interface{}) {}
func (nop) Infof(Category, string, ...interface{})  {}
func (nop) Warnf(Category, string, ...interface{})  {}
func (nop) Errorf(Category, string, ...interface{}) {}
func (nop) Close()                                  {}
