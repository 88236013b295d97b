package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBindLiteralBasicTypes(t *testing.T) {
	sql, err := BindLiteral(
		"INSERT INTO events (latitude, longitude, note, end_time) VALUES (?, ?, ?, ?)",
		17.41, 78.48, "Heavy traffic", nil,
	)
	require.NoError(t, err)
	require.Equal(t,
		"INSERT INTO events (latitude, longitude, note, end_time) VALUES (17.41, 78.48, 'Heavy traffic', NULL)",
		sql,
	)
}

func TestBindLiteralEscapesQuotes(t *testing.T) {
	sql, err := BindLiteral("INSERT INTO events (note) VALUES (?)", "driver's side blocked; '); DROP TABLE events; --")
	require.NoError(t, err)
	require.Equal(t,
		"INSERT INTO events (note) VALUES ('driver''s side blocked; ''); DROP TABLE events; --')",
		sql,
	)
}

func TestBindLiteralCountMismatch(t *testing.T) {
	_, err := BindLiteral("SELECT * FROM events WHERE id = ? AND type = ?", int64(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "2 placeholders but 1 arguments")

	_, err = BindLiteral("SELECT * FROM events WHERE id = ?", int64(1), "extra")
	require.Error(t, err)
}

func TestBindLiteralTime(t *testing.T) {
	ts := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	sql, err := BindLiteral("SELECT * FROM events WHERE datetime(start_time) >= datetime(?)", ts)
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM events WHERE datetime(start_time) >= datetime('2025-01-01 10:00:00')", sql)
}

func TestBindLiteralIntegers(t *testing.T) {
	sql, err := BindLiteral("DELETE FROM events WHERE id = ?", int64(42))
	require.NoError(t, err)
	require.Equal(t, "DELETE FROM events WHERE id = 42", sql)
}

func TestBindLiteralNilPointer(t *testing.T) {
	var s *string
	sql, err := BindLiteral("UPDATE events SET note = ?", s)
	require.NoError(t, err)
	require.Equal(t, "UPDATE events SET note = NULL", sql)
}

func TestBindLiteralUnsupportedType(t *testing.T) {
	_, err := BindLiteral("SELECT ?", struct{}{})
	require.Error(t, err)
}
