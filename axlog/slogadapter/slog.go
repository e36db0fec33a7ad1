// Package slogadapter backs an axlog.Logger with the standard library's
// log/slog.
package slogadapter

import (
	"log/slog"

	"tundra/axlog"
)

// Adapter wraps a *slog.Logger to satisfy axlog.Logger.
type Adapter struct {
	logger *slog.Logger
}

// New wraps logger as an axlog.Logger.
func New(logger *slog.Logger) axlog.Logger {
	return &Adapter{logger: logger}
}

func (a *Adapter) Info(msg string, keyValues ...any) {
	a.logger.Info(msg, keyValues...)
}

func (a *Adapter) Error(msg string, keyValues ...any) {
	a.logger.Error(msg, keyValues...)
}

func (a *Adapter) Debug(msg string, keyValues ...any) {
	a.logger.Debug(msg, keyValues...)
}

func (a *Adapter) Warn(msg string, keyValues ...any) {
	a.logger.Warn(msg, keyValues...)
}
