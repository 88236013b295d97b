// Package storage presents one statement-level contract over three
// interchangeable backends: an embedded SQLite file, a PostgreSQL pool
// and an rqlite-style SQL-over-HTTP cluster. Every backend normalizes its
// results into the same Row shape, which is the seam that keeps the
// repository layer backend-agnostic.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vkivaturi/traffis/config"
)

// Store executes parameterized statements against one backend. Statements
// use `?` placeholders regardless of backend; each implementation handles
// its own binding or literal substitution.
type Store interface {
	// Query runs a read statement and returns normalized rows.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	// Execute runs a write statement.
	Execute(ctx context.Context, stmt string, args ...any) (ExecResult, error)
	Dialect() Dialect
	Close() error
}

// Row is the single normalized result representation: an ordered mapping
// from column name to scalar value (string, int64, float64 or nil).
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value for a column, or false when the column is absent.
func (r Row) Get(col string) (any, bool) {
	for i, c := range r.Columns {
		if c == col {
			return r.Values[i], true
		}
	}
	return nil, false
}

// String returns a column rendered as a string, "" for NULL or absent.
func (r Row) String(col string) string {
	v, ok := r.Get(col)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Int returns a column as int64, 0 for NULL or absent.
func (r Row) Int(col string) int64 {
	v, _ := r.Get(col)
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

// Float returns a column as float64, 0 for NULL or absent.
func (r Row) Float(col string) float64 {
	v, _ := r.Get(col)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

// ExecResult reports the outcome of a write statement.
type ExecResult struct {
	RowsAffected int64
	LastInsertID int64
}

// Dialect captures the per-backend SQL differences the repository needs
// to know about.
type Dialect struct {
	// Name identifies the backend in errors and logs.
	Name string
	// InsertReturning is true when INSERT .. RETURNING id is the way to
	// learn the assigned id; false when ExecResult.LastInsertID carries it.
	InsertReturning bool
	// Datetime wraps an expression with the backend's timestamp
	// normalizer so both sides of a comparison agree on shape.
	Datetime func(expr string) string
}

func sqliteDialect(name string) Dialect {
	return Dialect{
		Name:            name,
		InsertReturning: false,
		Datetime:        func(expr string) string { return "datetime(" + expr + ")" },
	}
}

func postgresDialect() Dialect {
	return Dialect{
		Name:            "postgres",
		InsertReturning: true,
		Datetime:        func(expr string) string { return "(" + expr + ")::timestamp" },
	}
}

// Open constructs the Store selected by configuration.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return openSQLite(cfg)
	case "postgres":
		return openPostgres(cfg)
	case "rqlite":
		return NewRqliteStore(cfg.Rqlite.URL, cfg.Timeout), nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
