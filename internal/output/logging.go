package output

import (
	"io"
	"log/slog"
	"math"
)

// SetupLogger creates a slog.Logger writing text records to w (typically
// os.Stderr) at the level selected by the CLI flags.
//
// Priority: quiet > debug > verbose > default (warnings and errors only).
// Quiet suppresses everything, including errors.
func SetupLogger(quiet, verbose, debug bool, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: verbosity(quiet, verbose, debug),
	}))
}

func verbosity(quiet, verbose, debug bool) slog.Level {
	switch {
	case quiet:
		return slog.Level(math.MaxInt)
	case debug:
		return slog.LevelDebug
	case verbose:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}
