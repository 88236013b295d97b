package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vkivaturi/traffis/config"
	"github.com/vkivaturi/traffis/internal/api/middleware"
	"github.com/vkivaturi/traffis/internal/errs"
	"github.com/vkivaturi/traffis/internal/metrics"
	"github.com/vkivaturi/traffis/internal/models"
	"github.com/vkivaturi/traffis/internal/repositories"
	"github.com/vkivaturi/traffis/internal/services"
)

// fakeRepo is an in-memory EventRepo sufficient for handler tests.
type fakeRepo struct {
	events    []models.Event
	nextID    int64
	creates   int
	deletes   int
	listErr   error
	createErr error
}

func (f *fakeRepo) List(ctx context.Context, window repositories.ListWindow) ([]models.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Event, 0)
	for _, e := range f.events {
		if window.Start != "" && e.StartTime < window.Start[:16] {
			continue
		}
		if window.End != "" && e.StartTime > window.End[:16] {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, input models.EventInput) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.creates++
	f.nextID++
	return f.nextID, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64, guard string) error {
	for _, e := range f.events {
		if e.ID == id {
			f.deletes++
			return nil
		}
	}
	return &errs.NotFoundError{Resource: "event"}
}

const testKey = "test-secret"

func setupRouter(repo *fakeRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := config.EventsConfig{
		AllowedTypes:     []string{"active", "inactive"},
		RequireStartTime: true,
	}
	service := services.NewEventService(repo, nil, nil, metrics.NewMetrics(), cfg)
	h := NewEventsHandler(service)
	auth := middleware.RequireAPIKey(testKey)

	router := gin.New()
	router.GET("/api/events", h.ListEvents)
	router.POST("/api/events", auth, h.CreateEvent)
	router.DELETE("/api/events/:id", auth, h.DeleteEvent)
	return router
}

func TestListEventsRequiresStartTimeParam(t *testing.T) {
	router := setupRouter(&fakeRepo{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEventsWindow(t *testing.T) {
	repo := &fakeRepo{events: []models.Event{
		{ID: 1, StartTime: "2025-01-01 10:00", Type: "active"},
	}}
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events?start_time=2025-01-01T09:00", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].ID)

	// A window starting after the event excludes it
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events?start_time=2025-01-01T11:00", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestCreateEventCreated(t *testing.T) {
	repo := &fakeRepo{}
	router := setupRouter(repo)

	body := `{"latitude": 17.41, "longitude": 78.48, "type": "active", "start_time": "2025-01-01T10:00"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("x-api-key", testKey)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"id":1`)
	require.Equal(t, 1, repo.creates)
}

func TestCreateEventShortFieldNames(t *testing.T) {
	repo := &fakeRepo{}
	router := setupRouter(repo)

	body := `{"lat": 17.41, "long": 78.48, "type": "active"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("x-api-key", testKey)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateEventValidationFailure(t *testing.T) {
	repo := &fakeRepo{}
	router := setupRouter(repo)

	body := `{"latitude": 17.41, "type": "active"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("x-api-key", testKey)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 0, repo.creates)
}

func TestCreateEventInvalidType(t *testing.T) {
	repo := &fakeRepo{}
	router := setupRouter(repo)

	body := `{"latitude": 17.41, "longitude": 78.48, "type": "severe"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("x-api-key", testKey)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 0, repo.creates)
}

func TestCreateEventWithoutCredentialNeverMutates(t *testing.T) {
	repo := &fakeRepo{}
	router := setupRouter(repo)

	// Payload is perfectly valid; only the credential is missing.
	body := `{"latitude": 17.41, "longitude": 78.48, "type": "active"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body)))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, 0, repo.creates)
}

func TestCreateEventStorageFailure(t *testing.T) {
	repo := &fakeRepo{createErr: &errs.StorageError{Backend: "rqlite", Op: "execute", Err: context.DeadlineExceeded}}
	router := setupRouter(repo)

	body := `{"latitude": 17.41, "longitude": 78.48, "type": "active"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("x-api-key", testKey)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	// Backend detail stays out of the response
	require.NotContains(t, w.Body.String(), "rqlite")
}

func TestDeleteEvent(t *testing.T) {
	repo := &fakeRepo{events: []models.Event{{ID: 3}}}
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/events/3", nil)
	req.Header.Set("x-api-key", testKey)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, repo.deletes)
}

func TestDeleteEventNotFound(t *testing.T) {
	repo := &fakeRepo{}
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/events/99", nil)
	req.Header.Set("x-api-key", testKey)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEventBadID(t *testing.T) {
	repo := &fakeRepo{}
	router := setupRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/events/abc", nil)
	req.Header.Set("x-api-key", testKey)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
