// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package dbops provides the connection pool and the database operations
facade the rest of the application goes through.

# Pool

Open builds the lib/pq DSN from configuration, opens the process-wide pool,
and verifies it with a ping. The pool is owned by main and injected; its
lifecycle ends with an explicit Close in the shutdown hook.

# Facade

Every write-bearing operation runs inside a transaction with rollback on
error, logs failures with operation context, and returns a wrapped error to
the caller. Nothing is retried automatically.

  - CreateTableIfAbsent: CREATE TABLE from the first response's inferred
    column types, plus surrogate id, system columns, and a date_updated
    trigger. Idempotent.
  - AppendRow: adds any new columns (ALTER TABLE ADD COLUMN IF NOT EXISTS),
    then inserts. The schema only ever grows.
  - AppendRows: one multi-row insert, order-preserving (audit log flush).
  - ReadFiltered: parameterized select with equality filters, ordering,
    and limit.
  - UpdateByID: single-row update by surrogate key.

# Type Inference

InferType classifies sample values into INTEGER, NUMERIC, BOOLEAN,
TIMESTAMP, JSONB, or TEXT. Integral numerics become INTEGER; any
fractional part widens to NUMERIC; nested values become JSONB; mixed or
unknown kinds fall back to TEXT.

# Identifier Safety

Table and column names cannot be bound parameters, so SanitizeIdentifier
rewrites them to lowercase [a-z0-9_] before they are spliced into SQL.
Values always travel as bound parameters.
*/
package dbops
