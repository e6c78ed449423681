package logger

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ZerologLogger implements the [Logger] interface by delegating log
// operations to a zerolog.Logger. Structured key-value argument pairs
// are attached to the event as fields.
type ZerologLogger struct {
	logger *zerolog.Logger
}

var _ Logger = (*ZerologLogger)(nil)

// NewZerologLogger returns a new [ZerologLogger].
// It will panic if the logger is nil.
func NewZerologLogger(logger *zerolog.Logger) *ZerologLogger {
	if logger == nil {
		panic("nil logger")
	}
	return &ZerologLogger{logger: logger}
}

// Trace logs at the trace level.
func (l *ZerologLogger) Trace(msg string, args ...any) {
	l.log(l.logger.Trace(), msg, args)
}

// Debug logs at the debug level.
func (l *ZerologLogger) Debug(msg string, args ...any) {
	l.log(l.logger.Debug(), msg, args)
}

// Info logs at the info level.
func (l *ZerologLogger) Info(msg string, args ...any) {
	l.log(l.logger.Info(), msg, args)
}

// Warn logs at the warn level.
func (l *ZerologLogger) Warn(msg string, args ...any) {
	l.log(l.logger.Warn(), msg, args)
}

// Error logs at the error level.
func (l *ZerologLogger) Error(msg string, args ...any) {
	l.log(l.logger.Error(), msg, args)
}

func (l *ZerologLogger) log(event *zerolog.Event, msg string, args []any) {
	n := len(args)
	for i := 0; i+1 < n; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		event = event.Interface(key, args[i+1])
	}
	if n%2 != 0 {
		event = event.Interface("!BADKEY", args[n-1])
	}
	event.Msg(msg)
}
