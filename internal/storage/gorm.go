package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vkivaturi/traffis/config"
	"github.com/vkivaturi/traffis/internal/errs"
	"github.com/vkivaturi/traffis/internal/timeutil"
)

// gormStore serves both the embedded SQLite file and the pooled
// PostgreSQL backends through one implementation; only the dialector and
// pool tuning differ.
type gormStore struct {
	db      *gorm.DB
	dialect Dialect
	timeout time.Duration
}

func openSQLite(cfg config.StorageConfig) (Store, error) {
	db, err := gorm.Open(sqlite.Open(cfg.SQLite.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	return &gormStore{db: db, dialect: sqliteDialect("sqlite"), timeout: cfg.Timeout}, nil
}

func openPostgres(cfg config.StorageConfig) (Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get DB instance")
	}
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	return &gormStore{db: db, dialect: postgresDialect(), timeout: cfg.Timeout}, nil
}

func (s *gormStore) Dialect() Dialect { return s.dialect }

func (s *gormStore) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, s.wrap("query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, s.wrap("query", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, s.wrap("scan", err)
		}
		for i, v := range values {
			values[i] = normalizeScalar(v)
		}
		out = append(out, Row{Columns: cols, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("query", err)
	}
	return out, nil
}

func (s *gormStore) Execute(ctx context.Context, stmt string, args ...any) (ExecResult, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if s.dialect.InsertReturning {
		// Writes that need generated values come back as a result set.
		tx := s.db.WithContext(ctx).Exec(stmt, args...)
		if tx.Error != nil {
			return ExecResult{}, s.wrap("execute", tx.Error)
		}
		return ExecResult{RowsAffected: tx.RowsAffected}, nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return ExecResult{}, s.wrap("execute", err)
	}
	res, err := sqlDB.ExecContext(ctx, stmt, args...)
	if err != nil {
		return ExecResult{}, s.wrap("execute", err)
	}
	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return ExecResult{RowsAffected: affected, LastInsertID: lastID}, nil
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *gormStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *gormStore) wrap(op string, err error) error {
	return &errs.StorageError{
		Backend: s.dialect.Name,
		Op:      op,
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}

// normalizeScalar flattens driver-specific value types into the Row
// scalar set.
func normalizeScalar(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return timeutil.Format(t)
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
