package ormkit

import (
	"log/slog"
)

// Event is one record emitted to a Sink: a query about to execute, or an
// error observed by the core (spec.md §7 "User-visible behaviour").
type Event struct {
	Kind string // "query" or "error"
	SQL  string
	Args []any
	Err  error
}

// Sink receives Events emitted by a Database. Writes must not block the
// caller (spec.md §5, §9 "Global logging state"). A Database from Open
// discards Events; the implementation returned by NewAsyncSlogSink
// buffers Events on a channel and drains them on a background goroutine.
type Sink interface {
	Emit(Event)
}

// asyncSlogSink is the Sink Database.Debug installs: a buffered channel feeding a single
// drain goroutine that logs through log/slog, in the spirit of the
// process-wide stats/debug wrappers this package's driver layer models
// logging on.
type asyncSlogSink struct {
	logger *slog.Logger
	events chan Event
}

// NewAsyncSlogSink returns a Sink that logs Events through logger
// without blocking the caller. Events are dropped, not buffered
// indefinitely, if the drain goroutine falls behind by more than
// capacity entries.
func NewAsyncSlogSink(logger *slog.Logger, capacity int) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity <= 0 {
		capacity = 256
	}
	s := &asyncSlogSink{logger: logger, events: make(chan Event, capacity)}
	go s.drain()
	return s
}

// Emit enqueues ev for asynchronous logging; if the buffer is full the
// event is dropped rather than blocking the core.
func (s *asyncSlogSink) Emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *asyncSlogSink) drain() {
	for ev := range s.events {
		switch ev.Kind {
		case "error":
			s.logger.Error("ormkit error", "err", ev.Err, "sql", ev.SQL)
		default:
			s.logger.Debug("ormkit query", "sql", ev.SQL, "args", ev.Args)
		}
	}
}

// noopSink discards every Event.
type noopSink struct{}

func (noopSink) Emit(Event) {}

// logQuery emits a "query" Event if query logging is enabled on db.
func (db *Database) logQuery(stmt statement) {
	if !db.queryLogging {
		return
	}
	args := make([]any, len(stmt.args))
	for i, v := range stmt.args {
		args[i] = v.Any()
	}
	db.sink.Emit(Event{Kind: "query", SQL: stmt.sql, Args: args})
}

// logError emits an "error" Event for every error the core surfaces
// (spec.md §7: "Every thrown error is additionally emitted as an error
// event to the logging sink").
func (db *Database) logError(sql string, err error) {
	db.sink.Emit(Event{Kind: "error", SQL: sql, Err: err})
}
