package storage

import (
	"context"
	"fmt"
	"strings"
)

// CreateSchema creates the events table for the store's backend. The
// type CHECK constraint is built from the deployment's configured
// enumeration, so different deployments can carry different sets.
func CreateSchema(ctx context.Context, store Store, allowedTypes []string) error {
	quoted := make([]string, len(allowedTypes))
	for i, t := range allowedTypes {
		quoted[i] = "'" + strings.ReplaceAll(t, "'", "''") + "'"
	}
	check := strings.Join(quoted, ", ")

	var ddl string
	if store.Dialect().Name == "postgres" {
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	created_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	start_time TIMESTAMP,
	end_time TIMESTAMP,
	note TEXT DEFAULT '',
	type TEXT NOT NULL CHECK(type IN (%s))
)`, check)
	} else {
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	created_time DATETIME DEFAULT CURRENT_TIMESTAMP,
	start_time DATETIME,
	end_time DATETIME,
	note TEXT DEFAULT '',
	type TEXT NOT NULL CHECK(type IN (%s))
)`, check)
	}

	_, err := store.Execute(ctx, ddl)
	return err
}
