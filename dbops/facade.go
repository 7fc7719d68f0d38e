// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dbops

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/omeid/pgerror"
	"go.uber.org/zap"

	"github.com/danielhkuo/formsink/models"
)

var (
	ErrEmptyTableName = errors.New("table name is empty after sanitization")
	ErrDuplicate      = errors.New("duplicate value")
	ErrNoFields       = errors.New("row has no storable fields")
)

// reservedColumns are managed by the facade itself; user fields that
// sanitize to one of these names are dropped at table creation.
var reservedColumns = map[string]bool{
	"id":                true,
	"date_created":      true,
	"date_updated":      true,
	"session_id":        true,
	"ip_address":        true,
	"load_duration":     true,
	"complete_duration": true,
	"save_duration":     true,
}

// Facade wraps the pool with transaction-scoped operations. Every
// write-bearing operation runs inside begin/commit with rollback on error,
// logs the failure with operation context, and returns a wrapped error.
// Nothing is retried automatically.
type Facade struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewFacade builds a facade over an open database handle.
func NewFacade(db *sql.DB, log *zap.SugaredLogger) *Facade {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Facade{db: db, log: log}
}

// DB exposes the underlying handle (health checks, tests).
func (f *Facade) DB() *sql.DB { return f.db }

// withTx runs fn inside a transaction. On error the transaction is rolled
// back, the error is logged with the operation name, classified, wrapped,
// and returned. database/sql returns the connection to the pool on every
// path.
func (f *Facade) withTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		f.log.Errorw("begin transaction failed", "op", op, "error", err)
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			f.log.Warnw("rollback failed", "op", op, "error", rbErr)
		}
		f.log.Errorw("database operation failed", "op", op, "error", err)
		return fmt.Errorf("%s: %w", op, classifyErr(err))
	}

	if err := tx.Commit(); err != nil {
		f.log.Errorw("commit failed", "op", op, "error", err)
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// classifyErr maps PostgreSQL constraint failures onto sentinel errors the
// orchestration layer can turn into specific UI states.
func classifyErr(err error) error {
	if e := pgerror.UniqueViolation(err); e != nil {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// TableExists reports whether a table is present in the public schema.
func (f *Facade) TableExists(ctx context.Context, table string) (bool, error) {
	name := SanitizeIdentifier(table)
	if name == "" {
		return false, ErrEmptyTableName
	}
	var exists bool
	err := f.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		name,
	).Scan(&exists)
	if err != nil {
		f.log.Errorw("table existence check failed", "table", name, "error", err)
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return exists, nil
}

// Columns returns the table's column names in ordinal order.
func (f *Facade) Columns(ctx context.Context, table string) ([]string, error) {
	name := SanitizeIdentifier(table)
	if name == "" {
		return nil, ErrEmptyTableName
	}
	rows, err := f.db.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position`,
		name,
	)
	if err != nil {
		f.log.Errorw("column lookup failed", "table", name, "error", err)
		return nil, fmt.Errorf("columns of %s: %w", name, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("columns of %s: %w", name, err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// CreateTableIfAbsent creates the write table from the shape of the first
// response: a surrogate integer primary key, one column per sample field
// with an inferred type, system columns, and a trigger that maintains
// date_updated. Re-invocation on an existing table is a no-op.
func (f *Facade) CreateTableIfAbsent(ctx context.Context, table string, sample models.Row) error {
	name := SanitizeIdentifier(table)
	if name == "" {
		return ErrEmptyTableName
	}

	exists, err := f.TableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	ddl := buildCreateDDL(name, sample)
	return f.withTx(ctx, "create table "+name, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return err
		}
		fn := fmt.Sprintf(
			"CREATE OR REPLACE FUNCTION %s_touch_date_updated() RETURNS trigger AS $$ BEGIN NEW.date_updated = NOW(); RETURN NEW; END; $$ LANGUAGE plpgsql",
			name)
		if _, err := tx.ExecContext(ctx, fn); err != nil {
			return err
		}
		drop := fmt.Sprintf("DROP TRIGGER IF EXISTS %s_date_updated ON %s", name, name)
		if _, err := tx.ExecContext(ctx, drop); err != nil {
			return err
		}
		trig := fmt.Sprintf(
			"CREATE TRIGGER %s_date_updated BEFORE UPDATE ON %s FOR EACH ROW EXECUTE FUNCTION %s_touch_date_updated()",
			name, name, name)
		_, err := tx.ExecContext(ctx, trig)
		return err
	})
}

func buildCreateDDL(name string, sample models.Row) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS " + name + " (")
	b.WriteString("id SERIAL PRIMARY KEY")
	for _, field := range sortedFields(sample) {
		col := SanitizeIdentifier(field)
		if col == "" || reservedColumns[col] {
			continue
		}
		b.WriteString(", " + col + " " + InferType(sample[field]).DDL())
	}
	b.WriteString(", date_created TIMESTAMP NOT NULL DEFAULT NOW()")
	b.WriteString(", date_updated TIMESTAMP NOT NULL DEFAULT NOW()")
	b.WriteString(", session_id TEXT")
	b.WriteString(", ip_address TEXT")
	b.WriteString(", load_duration NUMERIC")
	b.WriteString(", complete_duration NUMERIC")
	b.WriteString(", save_duration NUMERIC")
	b.WriteString(")")
	return b.String()
}

// AppendRow inserts one response row. Fields absent from the existing table
// are first added with ALTER TABLE ADD COLUMN IF NOT EXISTS, so the schema
// is a strict superset over time; columns are never removed or retyped.
// Returns the new row's surrogate id.
func (f *Facade) AppendRow(ctx context.Context, table string, row models.Row) (int64, error) {
	name := SanitizeIdentifier(table)
	if name == "" {
		return 0, ErrEmptyTableName
	}

	existing, err := f.Columns(ctx, name)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c] = true
	}

	var id int64
	err = f.withTx(ctx, "append row to "+name, func(tx *sql.Tx) error {
		var cols []string
		var vals []any
		for _, field := range sortedFields(row) {
			col := SanitizeIdentifier(field)
			if col == "" || col == "id" {
				continue
			}
			t := InferType(row[field])
			if !have[col] {
				alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", name, col, t.DDL())
				if _, err := tx.ExecContext(ctx, alter); err != nil {
					return err
				}
				have[col] = true
			}
			v, err := encodeValue(row[field], t)
			if err != nil {
				return err
			}
			cols = append(cols, col)
			vals = append(vals, v)
		}
		if len(cols) == 0 {
			return ErrNoFields
		}

		ph := make([]string, len(cols))
		for i := range cols {
			ph[i] = fmt.Sprintf("$%d", i+1)
		}
		insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
			name, strings.Join(cols, ", "), strings.Join(ph, ", "))
		return tx.QueryRowContext(ctx, insert, vals...).Scan(&id)
	})
	return id, err
}

// AppendRows bulk-inserts homogeneous rows in one statement inside one
// transaction. Used by the audit logger's flush; row order is preserved.
func (f *Facade) AppendRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	name := SanitizeIdentifier(table)
	if name == "" {
		return ErrEmptyTableName
	}
	if len(rows) == 0 {
		return nil
	}

	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = SanitizeIdentifier(c)
	}

	var ph strings.Builder
	var vals []any
	n := 1
	for i, row := range rows {
		if len(row) != len(cols) {
			return fmt.Errorf("bulk insert into %s: row %d has %d values, want %d", name, i, len(row), len(cols))
		}
		if i > 0 {
			ph.WriteString(", ")
		}
		ph.WriteString("(")
		for j, v := range row {
			if j > 0 {
				ph.WriteString(", ")
			}
			fmt.Fprintf(&ph, "$%d", n)
			n++
			vals = append(vals, v)
		}
		ph.WriteString(")")
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", name, strings.Join(cols, ", "), ph.String())
	return f.withTx(ctx, "bulk insert into "+name, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insert, vals...)
		return err
	})
}

// Query describes a filtered read.
type Query struct {
	Table      string
	Columns    []string       // nil means *
	Filters    map[string]any // equality predicates, ANDed
	OrderBy    string
	Descending bool
	Limit      int // 0 means no limit
}

// ReadFiltered builds a parameterized select and returns generic rows.
// Identifiers are sanitized, values are bound parameters.
func (f *Facade) ReadFiltered(ctx context.Context, q Query) ([]models.Row, error) {
	name := SanitizeIdentifier(q.Table)
	if name == "" {
		return nil, ErrEmptyTableName
	}

	sel := "*"
	if len(q.Columns) > 0 {
		cols := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			cols[i] = SanitizeIdentifier(c)
		}
		sel = strings.Join(cols, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", sel, name)

	var args []any
	if len(q.Filters) > 0 {
		keys := make([]string, 0, len(q.Filters))
		for k := range q.Filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" WHERE ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" AND ")
			}
			fmt.Fprintf(&b, "%s = $%d", SanitizeIdentifier(k), i+1)
			args = append(args, q.Filters[k])
		}
	}

	if q.OrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", SanitizeIdentifier(q.OrderBy))
		if q.Descending {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	rows, err := f.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		f.log.Errorw("filtered read failed", "table", name, "error", err)
		return nil, fmt.Errorf("read from %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read from %s: %w", name, err)
	}

	var result []models.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("read from %s: %w", name, err)
		}
		row := make(models.Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// UpdateByID updates a single row by surrogate key. sql.ErrNoRows is
// returned when the id does not exist.
func (f *Facade) UpdateByID(ctx context.Context, table string, id int64, values models.Row) error {
	name := SanitizeIdentifier(table)
	if name == "" {
		return ErrEmptyTableName
	}
	if len(values) == 0 {
		return ErrNoFields
	}

	fields := sortedFields(values)
	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	args = append(args, id)
	for i, field := range fields {
		sets[i] = fmt.Sprintf("%s = $%d", SanitizeIdentifier(field), i+2)
		v, err := encodeValue(values[field], InferType(values[field]))
		if err != nil {
			return fmt.Errorf("update %s: %w", name, err)
		}
		args = append(args, v)
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", name, strings.Join(sets, ", "))
	return f.withTx(ctx, "update "+name, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

func sortedFields(row models.Row) []string {
	fields := make([]string, 0, len(row))
	for k := range row {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// encodeValue prepares a value for binding; nested values become JSON text
// for JSONB columns, everything else passes through to the driver.
func encodeValue(v any, t SQLType) (any, error) {
	if t != TypeJSON {
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode JSON value: %w", err)
	}
	return string(raw), nil
}
