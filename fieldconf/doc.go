// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package fieldconf resolves declarative dynamic-field configurations into
validation verdicts and choice payloads for the client widget.

# Pipeline

A Configurator is built once per session over the database facade, a
config list, and the session's audit logger. Resolution runs in order:

 1. CacheTables reads every distinct source table once and caches the
    snapshot for the session (missing tables degrade to empty, with a
    warning).
 2. ValidateShape collects structural errors in the config list.
 3. ValidateParams checks URL query parameters against the cached tables,
    collecting every violation.
 4. BuildUpdateMessage resolves choice lists, parent/child cascades, and
    uniqueness sets into one ChoiceUpdateMessage.

Each field's resolution is isolated: a failure degrades that field, gets
logged with zone "SURVEY", and never aborts the others.

# Cascades

A config entry with ChildField is a parent: its payload carries its full
choice list plus the child pointer. The child entry's candidates carry
parentId/parentValue linkage so the client filters without a round trip;
when the parent's current value is known server-side, the candidate set is
pre-filtered and a held child value that no longer matches is flagged for
clearing.

# Uniqueness

Unique entries ship every existing write-table value in original and
normalized form (lowercase, whitespace-collapsed, optionally stripped of
non-alphanumerics) for instant client feedback; CheckUnique re-runs the
comparison at submission time, hard-blocking under result "stop" and
passing with a warning under "warn".
*/
package fieldconf
