package sqldriver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ormkit/ormkit/driver"
)

// QueryStats holds running totals for statements run through a
// StatsDriver.
type QueryStats struct {
	TotalQueries  atomic.Int64
	TotalExecs    atomic.Int64
	TotalDuration atomic.Int64 // nanoseconds
	SlowQueries   atomic.Int64
	Errors        atomic.Int64
}

// Stats returns a point-in-time snapshot.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset zeroes all counters.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is an immutable point-in-time view of QueryStats.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgDuration returns the mean duration across every statement recorded.
func (s StatsSnapshot) AvgDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String renders a one-line human-readable summary.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is invoked whenever a statement's lifetime exceeds the
// configured slow threshold.
type SlowQueryHook func(ctx context.Context, sql string, duration time.Duration)

// StatsDriver wraps a driver.Driver, timing each prepared statement from
// Prepare to Finalize and classifying it as a query or an exec by
// whether Exec was ever called on it.
type StatsDriver struct {
	driver.Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold overrides the default 100ms slow-statement threshold.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) { s.slowThreshold = d }
}

// WithSlowQueryHook registers a callback invoked for every slow
// statement.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) { s.slowHook = hook }
}

// NewStatsDriver wraps drv with statistics collection.
func NewStatsDriver(drv driver.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, stats: &QueryStats{}, slowThreshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying counters.
func (d *StatsDriver) QueryStats() *QueryStats { return d.stats }

type statsStmt struct {
	inner  driver.Stmt
	sql    string
	start  time.Time
	isExec bool
	failed bool
}

// Prepare starts the timer for the statement's full lifetime.
func (d *StatsDriver) Prepare(ctx context.Context, c driver.Conn, sqlText string) (driver.Stmt, error) {
	inner, err := d.Driver.Prepare(ctx, c, sqlText)
	if err != nil {
		return nil, err
	}
	return &statsStmt{inner: inner, sql: sqlText, start: time.Now()}, nil
}

// Bind delegates to the wrapped statement.
func (d *StatsDriver) Bind(s driver.Stmt, index int, v driver.Value) error {
	return d.Driver.Bind(s.(*statsStmt).inner, index, v)
}

// Exec marks the statement as a write and delegates.
func (d *StatsDriver) Exec(ctx context.Context, s driver.Stmt) (int64, error) {
	st := s.(*statsStmt)
	st.isExec = true
	n, err := d.Driver.Exec(ctx, st.inner)
	if err != nil {
		st.failed = true
	}
	return n, err
}

// Step delegates to the wrapped statement.
func (d *StatsDriver) Step(ctx context.Context, s driver.Stmt) (driver.Row, bool, error) {
	st := s.(*statsStmt)
	row, ok, err := d.Driver.Step(ctx, st.inner)
	if err != nil {
		st.failed = true
	}
	return row, ok, err
}

// ReadColumn delegates to the wrapped driver; rows themselves are not
// wrapped.
func (d *StatsDriver) ReadColumn(row driver.Row, index int, expected driver.PrimitiveType) (driver.Value, error) {
	return d.Driver.ReadColumn(row, index, expected)
}

// Finalize records the statement's total lifetime and delegates release.
func (d *StatsDriver) Finalize(s driver.Stmt) error {
	st := s.(*statsStmt)
	duration := time.Since(st.start)

	if st.isExec {
		d.stats.TotalExecs.Add(1)
	} else {
		d.stats.TotalQueries.Add(1)
	}
	d.stats.TotalDuration.Add(int64(duration))
	if st.failed {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold, hook := d.slowThreshold, d.slowHook
	d.mu.RUnlock()
	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(context.Background(), st.sql, duration)
		}
	}

	return d.Driver.Finalize(st.inner)
}

var _ driver.Driver = (*StatsDriver)(nil)
