package observer

import (
	"context"
	"log/slog"

	"github.com/c360/objkit/observable"
)

// Logger writes every observation to a slog.Logger at a fixed level.
type Logger struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogger logs at level through logger; a nil logger means slog.Default().
func NewLogger(logger *slog.Logger, level slog.Level) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger, level: level}
}

// OnNext implements observable.Observer.
func (l *Logger) OnNext(v observable.ObservedValue) {
	l.logger.Log(context.Background(), l.level, "Observed value",
		"source", v.Source,
		"step", v.Step,
		"name", v.Name,
		"value", v.Value.String(),
		"properties", v.Properties.String(),
		"observed_at", v.Time())
}

// OnComplete implements observable.Observer.
func (l *Logger) OnComplete() {
	l.logger.Log(context.Background(), l.level, "Observation complete")
}
