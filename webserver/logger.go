package webserver

import (
	"fmt"
	"io"
	"os"

	"github.com/labstack/gommon/log"

	"github.com/GabrielNunesIT/cachekit/cachelog"
)

// Logger adapts a cachelog.Logger to echo's Logger interface, so a
// WebServer can be handed the same structured logger the cache/janitor
// subsystems use, instead of requiring a second logging dependency.
// cachelog.Logger has no Output/GetLevel accessors (it is a leveled,
// structured-fields logger, not a stream writer), so Output/SetOutput/
// Level are tracked locally on the adapter itself.
type Logger struct {
	cachelog.Logger
	prefix string
	level  log.Lvl
	out    io.Writer
}

// NewLogger wraps l as an echo.Logger.
func NewLogger(l cachelog.Logger) *Logger {
	return &Logger{Logger: l, out: os.Stderr, level: log.INFO}
}

// Output returns the logger's configured output stream. cachelog itself
// decides where structured lines go; this only satisfies callers (e.g.
// echo's own startup banner) that want a raw io.Writer.
func (e *Logger) Output() io.Writer {
	return e.out
}

// SetOutput records the output stream echo believes it configured. It does
// not redirect the underlying cachelog.Logger, which owns its own sink.
func (e *Logger) SetOutput(w io.Writer) {
	e.out = w
}

// Prefix returns the logger prefix.
func (e *Logger) Prefix() string {
	return e.prefix
}

// SetPrefix sets the logger prefix.
func (e *Logger) SetPrefix(p string) {
	e.prefix = p
}

// Level returns the last level set via SetLevel.
func (e *Logger) Level() log.Lvl {
	return e.level
}

// SetLevel sets the logger level, translating echo's log.Lvl into
// cachelog's Level.
func (e *Logger) SetLevel(l log.Lvl) {
	e.level = l

	switch l {
	case log.DEBUG:
		e.Logger.SetLevel(cachelog.LevelDebug)
	case log.INFO:
		e.Logger.SetLevel(cachelog.LevelInfo)
	case log.WARN:
		e.Logger.SetLevel(cachelog.LevelWarn)
	case log.ERROR, log.OFF:
		e.Logger.SetLevel(cachelog.LevelError)
	default:
		e.Logger.SetLevel(cachelog.LevelInfo)
	}
}

// SetHeader is part of echo.Logger; cachelog has no per-line header concept.
func (e *Logger) SetHeader(string) {}

func (e *Logger) fields() map[string]any {
	if e.prefix == "" {
		return nil
	}

	return map[string]any{"prefix": e.prefix}
}

// Print logs i at info level.
func (e *Logger) Print(i ...any) { e.Logger.Info(fmt.Sprint(i...), e.fields()) }

// Printf logs a formatted message at info level.
func (e *Logger) Printf(format string, args ...any) {
	e.Logger.Info(fmt.Sprintf(format, args...), e.fields())
}

// Printj logs j at info level.
func (e *Logger) Printj(j log.JSON) { e.Logger.Info(fmt.Sprintf("%v", j), e.fields()) }

// Debug logs i at debug level.
func (e *Logger) Debug(i ...any) { e.Logger.Debug(fmt.Sprint(i...), e.fields()) }

// Debugf logs a formatted message at debug level.
func (e *Logger) Debugf(format string, args ...any) {
	e.Logger.Debug(fmt.Sprintf(format, args...), e.fields())
}

// Debugj logs j at debug level.
func (e *Logger) Debugj(j log.JSON) { e.Logger.Debug(fmt.Sprintf("%v", j), e.fields()) }

// Info logs i at info level.
func (e *Logger) Info(i ...any) { e.Logger.Info(fmt.Sprint(i...), e.fields()) }

// Infof logs a formatted message at info level.
func (e *Logger) Infof(format string, args ...any) {
	e.Logger.Info(fmt.Sprintf(format, args...), e.fields())
}

// Infoj logs j at info level.
func (e *Logger) Infoj(j log.JSON) { e.Logger.Info(fmt.Sprintf("%v", j), e.fields()) }

// Warn logs i at warn level.
func (e *Logger) Warn(i ...any) { e.Logger.Warn(fmt.Sprint(i...), e.fields()) }

// Warnf logs a formatted message at warn level.
func (e *Logger) Warnf(format string, args ...any) {
	e.Logger.Warn(fmt.Sprintf(format, args...), e.fields())
}

// Warnj logs j at warn level.
func (e *Logger) Warnj(j log.JSON) { e.Logger.Warn(fmt.Sprintf("%v", j), e.fields()) }

// Error logs i at error level.
func (e *Logger) Error(i ...any) { e.Logger.Error(fmt.Sprint(i...), e.fields()) }

// Errorf logs a formatted message at error level.
func (e *Logger) Errorf(format string, args ...any) {
	e.Logger.Error(fmt.Sprintf(format, args...), e.fields())
}

// Errorj logs j at error level.
func (e *Logger) Errorj(j log.JSON) { e.Logger.Error(fmt.Sprintf("%v", j), e.fields()) }

// Fatal logs i at error level, then exits the process.
func (e *Logger) Fatal(i ...any) {
	e.Logger.Error(fmt.Sprint(i...), e.fields())
	os.Exit(1)
}

// Fatalf logs a formatted message at error level, then exits the process.
func (e *Logger) Fatalf(format string, args ...any) {
	e.Logger.Error(fmt.Sprintf(format, args...), e.fields())
	os.Exit(1)
}

// Fatalj logs j at error level, then exits the process.
func (e *Logger) Fatalj(j log.JSON) {
	e.Logger.Error(fmt.Sprintf("%v", j), e.fields())
	os.Exit(1)
}

// Panic logs i at error level, then panics.
func (e *Logger) Panic(i ...any) {
	msg := fmt.Sprint(i...)
	e.Logger.Error(msg, e.fields())
	panic(msg)
}

// Panicf logs a formatted message at error level, then panics.
func (e *Logger) Panicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.Logger.Error(msg, e.fields())
	panic(msg)
}

// Panicj logs j at error level, then panics.
func (e *Logger) Panicj(j log.JSON) {
	msg := fmt.Sprintf("%v", j)
	e.Logger.Error(msg, e.fields())
	panic(msg)
}
