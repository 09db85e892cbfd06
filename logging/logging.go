// Package logging implements the core's injected Logger dependency
// (h2.Logger, taken by h2.Conn and server.Config; spec.md §9: "inject
// both [logger and route table] as explicit dependencies on
// construction") on top of zap, matching the pack's convention of a
// colored console encoder at development verbosity and JSON at
// production verbosity.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger adapts a *zap.SugaredLogger to the h2.Logger interface
// (Errorf/Debugf), so the core depends on neither zap nor any other
// concrete logging library directly.
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a Logger. verbose selects a colored, human-readable console
// encoder at debug level; otherwise JSON at info level, suited to
// production log aggregation.
func New(verbose bool) *Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{s: base.Sugar()}
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() error { return l.s.Sync() }
