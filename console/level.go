// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import "log/slog"

// Level is the severity of a console line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Tag is the bracketed marker printed after the timestamp.
func (level Level) Tag() string {
	switch level {
	case LevelDebug:
		return "[D]"
	case LevelInfo:
		return "[I]"
	case LevelWarn:
		return "[W]"
	default:
		return "[E]"
	}
}

func (level Level) String() string {
	switch level {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// levelFromSlog folds slog's open-ended levels onto the four console
// levels.
func levelFromSlog(level slog.Level) Level {
	switch {
	case level < slog.LevelInfo:
		return LevelDebug
	case level < slog.LevelWarn:
		return LevelInfo
	case level < slog.LevelError:
		return LevelWarn
	default:
		return LevelError
	}
}
