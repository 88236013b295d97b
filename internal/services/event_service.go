package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/vkivaturi/traffis/config"
	"github.com/vkivaturi/traffis/internal/errs"
	"github.com/vkivaturi/traffis/internal/metrics"
	"github.com/vkivaturi/traffis/internal/models"
	"github.com/vkivaturi/traffis/internal/repositories"
	"github.com/vkivaturi/traffis/internal/timeutil"
)

// EventRepo is the repository surface the service depends on.
type EventRepo interface {
	List(ctx context.Context, window repositories.ListWindow) ([]models.Event, error)
	Create(ctx context.Context, input models.EventInput) (int64, error)
	Delete(ctx context.Context, id int64, startTimeGuard string) error
}

// ListCache is the optional response cache surface.
type ListCache interface {
	GetList(ctx context.Context, start, end string) ([]models.Event, bool)
	SetList(ctx context.Context, start, end string, events []models.Event)
	Invalidate(ctx context.Context)
}

// Drafter is the text-to-event adapter surface.
type Drafter interface {
	Draft(ctx context.Context, prompt string) (*models.EventDraft, error)
}

// EventService validates requests before they reach storage and
// orchestrates the repository, cache and adapter. Validation failures
// never cause a storage round trip.
type EventService struct {
	repo     EventRepo
	cache    ListCache
	drafter  Drafter
	metrics  *metrics.Metrics
	cfg      config.EventsConfig
	validate *validator.Validate
}

// NewEventService wires the service together.
func NewEventService(repo EventRepo, cache ListCache, drafter Drafter, m *metrics.Metrics, cfg config.EventsConfig) *EventService {
	return &EventService{
		repo:     repo,
		cache:    cache,
		drafter:  drafter,
		metrics:  m,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// ListEvents parses and validates the raw query window, then serves the
// list from cache or the repository.
func (s *EventService) ListEvents(ctx context.Context, startRaw, endRaw string) ([]models.Event, error) {
	if startRaw == "" && s.cfg.RequireStartTime {
		return nil, errs.Validation("start_time", "is required")
	}
	if startRaw == "" && endRaw != "" {
		return nil, errs.Validation("start_time", "is required when end_time is given")
	}

	window, err := s.parseWindow(startRaw, endRaw)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if events, ok := s.cache.GetList(ctx, window.Start, window.End); ok {
			s.metrics.IncrementCounter("events.list.cache_hit")
			return events, nil
		}
	}

	start := time.Now()
	events, err := s.repo.List(ctx, window)
	s.metrics.RecordTimer("storage.list", time.Since(start))
	if err != nil {
		s.metrics.IncrementCounter("events.list.error")
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetList(ctx, window.Start, window.End, events)
	}
	s.metrics.IncrementCounter("events.list.ok")
	return events, nil
}

// CreateEvent validates a candidate record and inserts it. The returned
// id identifies exactly one retrievable record.
func (s *EventService) CreateEvent(ctx context.Context, input models.EventInput) (int64, error) {
	if err := s.validate.Struct(input); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok || len(verrs) == 0 {
			return 0, errs.Validation("", err.Error())
		}
		field := strings.ToLower(verrs[0].Field())
		return 0, errs.Validation(field, "missing required field")
	}

	if !s.typeAllowed(input.Type) {
		return 0, errs.Validation("type",
			fmt.Sprintf("must be one of: %s", strings.Join(s.cfg.AllowedTypes, ", ")))
	}

	for _, ts := range []struct{ field, value string }{
		{"start_time", input.StartTime},
		{"end_time", input.EndTime},
	} {
		if ts.value == "" {
			continue
		}
		if _, err := timeutil.Parse(ts.value); err != nil {
			return 0, errs.Validation(ts.field, "unrecognized timestamp format")
		}
	}

	start := time.Now()
	id, err := s.repo.Create(ctx, input)
	s.metrics.RecordTimer("storage.create", time.Since(start))
	if err != nil {
		s.metrics.IncrementCounter("events.create.error")
		return 0, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.metrics.IncrementCounter("events.create.ok")
	log.Info().Int64("id", id).Str("type", input.Type).Msg("Event created")
	return id, nil
}

// DeleteEvent removes an event by id, optionally requiring the supplied
// start_time to match exactly.
func (s *EventService) DeleteEvent(ctx context.Context, id int64, startTimeGuard string) error {
	if startTimeGuard != "" {
		if _, err := timeutil.Parse(startTimeGuard); err != nil {
			return errs.Validation("start_time", "unrecognized timestamp format")
		}
	}

	if err := s.repo.Delete(ctx, id, startTimeGuard); err != nil {
		if !errs.IsNotFound(err) {
			s.metrics.IncrementCounter("events.delete.error")
		}
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.metrics.IncrementCounter("events.delete.ok")
	log.Info().Int64("id", id).Msg("Event deleted")
	return nil
}

// DraftFromText asks the adapter for a candidate event record. The
// caller decides whether to submit it through CreateEvent.
func (s *EventService) DraftFromText(ctx context.Context, prompt string) (*models.EventDraft, error) {
	if s.drafter == nil {
		return nil, &errs.AdapterError{Reason: "text-to-event adapter is not configured"}
	}

	draft, err := s.drafter.Draft(ctx, prompt)
	if err != nil {
		s.metrics.IncrementCounter("llm.draft.error")
		return nil, err
	}
	s.metrics.IncrementCounter("llm.draft.ok")
	return draft, nil
}

func (s *EventService) parseWindow(startRaw, endRaw string) (repositories.ListWindow, error) {
	var window repositories.ListWindow
	if startRaw != "" {
		t, err := timeutil.Parse(startRaw)
		if err != nil {
			return window, errs.Validation("start_time", "unrecognized timestamp format")
		}
		window.Start = timeutil.Format(t)
	}
	if endRaw != "" {
		t, err := timeutil.Parse(endRaw)
		if err != nil {
			return window, errs.Validation("end_time", "unrecognized timestamp format")
		}
		window.End = timeutil.Format(t)
	}
	return window, nil
}

func (s *EventService) typeAllowed(t string) bool {
	for _, allowed := range s.cfg.AllowedTypes {
		if t == allowed {
			return true
		}
	}
	return false
}
