package main

import (
	"io"
	"log/slog"
)

// newLogger builds the process logger: text or JSON on w, debug when verbose.
func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// logObserver records every submission at debug level.
type logObserver struct {
	log *slog.Logger
}

func (o logObserver) Observe(ev Event) {
	switch ev.Kind {
	case EventSubmit:
		o.log.Debug("command submitted", "cdb", ev.CDB.String(), "bytes", len(ev.Data))
	case EventComplete:
		if ev.Err != nil {
			o.log.Debug("command failed", "cdb", ev.CDB.String(), "duration", ev.Duration, "err", ev.Err)
			return
		}
		o.log.Debug("command completed", "cdb", ev.CDB.String(), "duration", ev.Duration, "bytes", len(ev.Data))
	}
}

// dumpObserver prints the raw CDB and data buffers, as the verbose mode of
// the command line asks for.
type dumpObserver struct {
	w         io.Writer
	blockSize int
}

func (o dumpObserver) Observe(ev Event) {
	base := int64(ev.LBA) * int64(o.blockSize)
	switch ev.Kind {
	case EventSubmit:
		hexDump(o.w, ev.CDB.String()+" cdb", ev.CDB, 0)
		if len(ev.Data) > 0 {
			hexDump(o.w, "data out", ev.Data, base)
		}
	case EventComplete:
		if len(ev.Data) > 0 {
			hexDump(o.w, "data in", ev.Data, base)
		}
	}
}
