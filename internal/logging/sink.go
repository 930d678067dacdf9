package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// isoMillis is ISO-8601 with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// NewJSONSink returns the production sink: one JSON object per line with the
// built-in slog keys renamed to timestamp, level and message.
func NewJSONSink(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceBuiltins,
	}))
}

// NewConsoleSink returns a coloured human-readable sink for local runs.
func NewConsoleSink(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

func replaceBuiltins(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		if a.Value.Kind() != slog.KindTime {
			return a
		}
		return slog.String(KeyTimestamp, a.Value.Time().UTC().Format(isoMillis))
	case slog.MessageKey:
		a.Key = KeyMessage
	}
	return a
}
