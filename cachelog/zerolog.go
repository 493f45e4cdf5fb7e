package cachelog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// zlogger is the default Logger implementation, backed by zerolog.
type zlogger struct {
	logger zerolog.Logger
	fields map[string]any
}

// New creates a Logger that writes leveled, structured JSON lines to out
// (os.Stderr by default when out is nil). Use SetLevel to raise the
// threshold above LevelDebug.
func New(out io.Writer) Logger {
	if out == nil {
		out = os.Stderr
	}

	return &zlogger{
		logger: zerolog.New(out).With().Timestamp().Logger(),
	}
}

func (l *zlogger) event(level zerolog.Level, msg string, fields map[string]any) {
	ev := l.logger.WithLevel(level)

	for k, v := range l.fields {
		ev = ev.Interface(k, v)
	}
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}

	ev.Msg(msg)
}

func (l *zlogger) Debug(msg string, fields map[string]any) { l.event(zerolog.DebugLevel, msg, fields) }
func (l *zlogger) Info(msg string, fields map[string]any)  { l.event(zerolog.InfoLevel, msg, fields) }
func (l *zlogger) Warn(msg string, fields map[string]any)  { l.event(zerolog.WarnLevel, msg, fields) }
func (l *zlogger) Error(msg string, fields map[string]any) { l.event(zerolog.ErrorLevel, msg, fields) }

func (l *zlogger) SetLevel(level Level) {
	var zl zerolog.Level

	switch level {
	case LevelDebug:
		zl = zerolog.DebugLevel
	case LevelInfo:
		zl = zerolog.InfoLevel
	case LevelWarn:
		zl = zerolog.WarnLevel
	case LevelError:
		zl = zerolog.ErrorLevel
	default:
		zl = zerolog.InfoLevel
	}

	l.logger = l.logger.Level(zl)
}

func (l *zlogger) With(fields map[string]any) Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &zlogger{logger: l.logger, fields: merged}
}
