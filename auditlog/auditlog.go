// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auditlog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/formsink/models"
)

// Severity of a log entry. Part of the observable contract; console colors
// are cosmetic.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// flushTimeout bounds each flush's database call.
const flushTimeout = 5 * time.Second

// Entry is one audit record. Zero-value durations are stored as NULL.
type Entry struct {
	SessionID        string
	Subject          string
	Timestamp        time.Time
	Zone             string
	Severity         Severity
	Message          string
	Statement        string
	LoadDuration     *float64
	CompleteDuration *float64
	SaveDuration     *float64
	IP               string

	// Force bypasses the pre-load suppression rule.
	Force bool
}

// Store is the slice of the database facade the logger needs.
type Store interface {
	CreateTableIfAbsent(ctx context.Context, table string, sample models.Row) error
	AppendRows(ctx context.Context, table string, columns []string, rows [][]any) error
}

// Options configures a Logger.
type Options struct {
	Table         string        // log table name (default "survey_log")
	FlushInterval time.Duration // default 1s
	SessionID     string        // default session id stamped on entries
	Subject       string        // default subject stamped on entries
	Console       *zap.SugaredLogger
}

// Logger queues entries in memory and bulk-inserts them on a fixed timer.
// Enqueueing is synchronous and never performs I/O; delivery is
// at-least-once and order-preserving within the queue. A failed flush
// retains every entry for the next tick. Logging failures never propagate
// past the console.
type Logger struct {
	store     Store
	table     string
	console   *zap.SugaredLogger
	sessionID string
	subject   string

	mu    sync.Mutex
	queue []Entry

	loaded   atomic.Bool
	flushing atomic.Bool

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// insertColumns is the fixed order entries are written in.
var insertColumns = []string{
	"session_id", "subject", "ts", "zone", "severity", "message",
	"statement", "load_duration", "complete_duration", "save_duration",
	"ip_address",
}

// New ensures the log table exists and starts the flush timer. Callers own
// the logger's lifecycle and must Drain it on shutdown.
func New(ctx context.Context, store Store, opts Options) (*Logger, error) {
	if opts.Table == "" {
		opts.Table = "survey_log"
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}
	if opts.Console == nil {
		opts.Console = zap.NewNop().Sugar()
	}

	// The sample row drives type inference to the fixed log schema; the
	// facade adds id, durations, session/IP, and timestamp columns.
	sample := models.Row{
		"subject":   "",
		"ts":        time.Now(),
		"zone":      "",
		"severity":  "",
		"message":   "",
		"statement": "",
	}
	if err := store.CreateTableIfAbsent(ctx, opts.Table, sample); err != nil {
		return nil, fmt.Errorf("ensure log table: %w", err)
	}

	l := &Logger{
		store:     store,
		table:     opts.Table,
		console:   opts.Console,
		sessionID: opts.SessionID,
		subject:   opts.Subject,
		done:      make(chan struct{}),
	}
	l.wg.Add(1)
	go l.flushLoop(opts.FlushInterval)
	return l, nil
}

// SetLoaded marks the survey as loaded; from here on entries carrying a
// message are persisted, not just mirrored to console.
func (l *Logger) SetLoaded() {
	l.loaded.Store(true)
}

// Log mirrors the entry to console and enqueues it. Never blocks on I/O,
// never returns an error. Until SetLoaded, entries carrying a message are
// console-only unless Force is set: a survey that fails before loading
// spams errors the audit trail does not want.
func (l *Logger) Log(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.SessionID == "" {
		e.SessionID = l.sessionID
	}
	if e.Subject == "" {
		e.Subject = l.subject
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}

	l.mirror(e)

	if e.Message != "" && !l.loaded.Load() && !e.Force {
		return
	}

	l.mu.Lock()
	l.queue = append(l.queue, e)
	l.mu.Unlock()
}

// LogMessage is the common case: a message with a severity and zone.
func (l *Logger) LogMessage(msg string, sev Severity, zone string) {
	l.Log(Entry{Message: msg, Severity: sev, Zone: zone})
}

func (l *Logger) mirror(e Entry) {
	fields := []any{"zone", e.Zone, "session", e.SessionID}
	if e.Statement != "" {
		fields = append(fields, "statement", e.Statement)
	}
	msg := e.Message
	if msg == "" {
		msg = "audit event"
	}
	switch e.Severity {
	case SeverityError:
		l.console.Errorw(msg, fields...)
	case SeverityWarn:
		l.console.Warnw(msg, fields...)
	default:
		l.console.Infow(msg, fields...)
	}
}

// Pending reports the number of unflushed entries.
func (l *Logger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Flush bulk-inserts the queued entries in insertion order. A flush already
// in flight makes this call a no-op (non-reentrant guard). On failure the
// queue is retained untouched for the next tick.
func (l *Logger) Flush(ctx context.Context) error {
	if !l.flushing.CompareAndSwap(false, true) {
		return nil
	}
	defer l.flushing.Store(false)

	l.mu.Lock()
	batch := make([]Entry, len(l.queue))
	copy(batch, l.queue)
	l.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	rows := make([][]any, len(batch))
	for i, e := range batch {
		rows[i] = []any{
			e.SessionID, e.Subject, e.Timestamp, e.Zone, string(e.Severity),
			e.Message, e.Statement,
			deref(e.LoadDuration), deref(e.CompleteDuration), deref(e.SaveDuration),
			e.IP,
		}
	}

	if err := l.store.AppendRows(ctx, l.table, insertColumns, rows); err != nil {
		l.console.Warnw("audit log flush failed, retaining entries",
			"entries", len(batch), "error", err)
		return err
	}

	// Drop only the flushed prefix; entries enqueued during the insert
	// stay for the next tick.
	l.mu.Lock()
	l.queue = append([]Entry(nil), l.queue[len(batch):]...)
	l.mu.Unlock()
	return nil
}

func (l *Logger) flushLoop(interval time.Duration) {
	defer l.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			_ = l.Flush(ctx)
			cancel()
		case <-l.done:
			return
		}
	}
}

// Drain stops the timer and flushes until the queue is empty or the
// context expires. Called from the shutdown hook.
func (l *Logger) Drain(ctx context.Context) error {
	l.stopOnce.Do(func() { close(l.done) })
	l.wg.Wait()

	for {
		_ = l.Flush(ctx)
		l.mu.Lock()
		empty := len(l.queue) == 0
		l.mu.Unlock()
		if empty {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("audit log drain: %w", ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func deref(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// Float is a convenience for optional duration fields.
func Float(v float64) *float64 { return &v }
