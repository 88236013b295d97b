package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/vkivaturi/traffis/internal/errs"
)

func TestRqliteQueryNormalizesRows(t *testing.T) {
	var gotPath string
	var gotBody []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"results":[{"columns":["id","latitude","note"],"values":[[1,17.41,"Heavy traffic"],[2,78.48,null]]}]}`)
	}))
	defer srv.Close()

	store := NewRqliteStore(srv.URL, 5*time.Second)
	rows, err := store.Query(context.Background(), "SELECT id, latitude, note FROM events WHERE type = ?", "active")
	require.NoError(t, err)

	require.Equal(t, "/db/query", gotPath)
	require.Equal(t, []string{"SELECT id, latitude, note FROM events WHERE type = 'active'"}, gotBody)

	require.Len(t, rows, 2)
	require.Equal(t, int64(1), rows[0].Int("id"))
	require.Equal(t, 17.41, rows[0].Float("latitude"))
	require.Equal(t, "Heavy traffic", rows[0].String("note"))
	require.Equal(t, "", rows[1].String("note"))
}

func TestRqliteExecuteResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/db/execute", r.URL.Path)
		io.WriteString(w, `{"results":[{"rows_affected":1,"last_insert_id":7}]}`)
	}))
	defer srv.Close()

	store := NewRqliteStore(srv.URL, 5*time.Second)
	res, err := store.Execute(context.Background(), "DELETE FROM events WHERE id = ?", int64(7))
	require.NoError(t, err)
	require.Equal(t, int64(1), res.RowsAffected)
	require.Equal(t, int64(7), res.LastInsertID)
}

func TestRqliteStatementError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"results":[{"error":"no such table: events"}]}`)
	}))
	defer srv.Close()

	store := NewRqliteStore(srv.URL, 5*time.Second)
	_, err := store.Query(context.Background(), "SELECT * FROM events")
	require.Error(t, err)

	var storageErr *errs.StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, "rqlite", storageErr.Backend)
	require.Contains(t, storageErr.Err.Error(), "no such table")
}

func TestRqliteNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store := NewRqliteStore(srv.URL, 5*time.Second)
	_, err := store.Execute(context.Background(), "DELETE FROM events WHERE id = ?", int64(1))

	var storageErr *errs.StorageError
	require.ErrorAs(t, err, &storageErr)
	require.False(t, storageErr.Timeout)
	require.Contains(t, storageErr.Err.Error(), "status 503")
}

func TestRqliteMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	store := NewRqliteStore(srv.URL, 5*time.Second)
	_, err := store.Query(context.Background(), "SELECT 1")

	var storageErr *errs.StorageError
	require.ErrorAs(t, err, &storageErr)
}

func TestRqliteTimeoutIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	store := NewRqliteStore(srv.URL, 20*time.Millisecond)
	_, err := store.Query(context.Background(), "SELECT 1")

	require.True(t, errs.IsStorageTimeout(err))
}

func TestRqlitePlaceholderMismatchNeverSent(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	store := NewRqliteStore(srv.URL, 5*time.Second)
	_, err := store.Query(context.Background(), "SELECT * FROM events WHERE id = ? AND type = ?", int64(1))
	require.Error(t, err)
	require.False(t, called)
}
