package storage

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/vkivaturi/traffis/internal/errs"
)

// RqliteStore talks to an rqlite-style cluster that only accepts literal
// SQL strings over HTTP. Statements are rendered by BindLiteral and
// POSTed as a one-element JSON array to /db/query or /db/execute.
type RqliteStore struct {
	baseURL string
	client  *http.Client
}

// NewRqliteStore builds a store for the cluster at baseURL. The timeout
// bounds every round trip.
func NewRqliteStore(baseURL string, timeout time.Duration) *RqliteStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	return &RqliteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout, Transport: tr},
	}
}

// rqliteResult is one entry of the cluster's response envelope.
type rqliteResult struct {
	Columns      []string `json:"columns"`
	Values       [][]any  `json:"values"`
	RowsAffected int64    `json:"rows_affected"`
	LastInsertID int64    `json:"last_insert_id"`
	Error        string   `json:"error"`
}

type rqliteResponse struct {
	Results []rqliteResult `json:"results"`
}

func (s *RqliteStore) Dialect() Dialect { return sqliteDialect("rqlite") }

func (s *RqliteStore) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	res, err := s.post(ctx, "/db/query", query, args)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(res.Values))
	for _, values := range res.Values {
		normalized := make([]any, len(values))
		for i, v := range values {
			normalized[i] = normalizeScalar(v)
		}
		rows = append(rows, Row{Columns: res.Columns, Values: normalized})
	}
	return rows, nil
}

func (s *RqliteStore) Execute(ctx context.Context, stmt string, args ...any) (ExecResult, error) {
	res, err := s.post(ctx, "/db/execute", stmt, args)
	if err != nil {
		return ExecResult{}, err
	}
	return ExecResult{RowsAffected: res.RowsAffected, LastInsertID: res.LastInsertID}, nil
}

func (s *RqliteStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *RqliteStore) post(ctx context.Context, path, stmt string, args []any) (*rqliteResult, error) {
	op := strings.TrimPrefix(path, "/db/")

	final, err := BindLiteral(stmt, args...)
	if err != nil {
		return nil, s.wrap(op, false, err)
	}

	body, err := json.Marshal([]string{final})
	if err != nil {
		return nil, s.wrap(op, false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, s.wrap(op, false, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.wrap(op, isTimeout(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, s.wrap(op, false, errors.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var parsed rqliteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, s.wrap(op, false, errors.Wrap(err, "malformed response"))
	}
	if len(parsed.Results) == 0 {
		return nil, s.wrap(op, false, errors.New("empty results"))
	}
	if msg := parsed.Results[0].Error; msg != "" {
		return nil, s.wrap(op, false, errors.New(msg))
	}
	return &parsed.Results[0], nil
}

func (s *RqliteStore) wrap(op string, timeout bool, err error) error {
	return &errs.StorageError{Backend: "rqlite", Op: op, Timeout: timeout, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
