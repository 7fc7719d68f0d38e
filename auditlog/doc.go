// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auditlog records operational and audit events through an in-memory
queue flushed to a database table on a fixed timer.

# Lifecycle

	created -> ensure table -> active -> (enqueue | periodic flush)* -> drained

New ensures the log table exists (create-if-absent, fixed schema) and
starts the flush goroutine. Drain stops the timer and performs final
flushes until the queue empties or the context expires.

# Delivery Semantics

Log appends to the queue synchronously with no I/O and mirrors the entry
to the console logger, color-coded by severity. The flush tick bulk-inserts
the whole queue in insertion order. On success the flushed entries are
dropped; on failure every entry is retained for the next tick:
at-least-once, order-preserving within the queue, bounded only by memory.
A non-reentrant guard keeps a slow flush from being overlapped by the next
tick.

Many sessions may enqueue concurrently; the queue is mutex-protected with
a single flush consumer.

# Suppression

Until SetLoaded is called, entries carrying a message are mirrored to the
console but not persisted, so a survey that fails before loading does not
spam the audit trail. Entry.Force is the escape hatch.

Failures inside the logging subsystem never propagate to callers; the
worst case is a console warning.
*/
package auditlog
