package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/vkivaturi/traffis/internal/errs"
	"github.com/vkivaturi/traffis/internal/models"
	"github.com/vkivaturi/traffis/internal/storage"
	"github.com/vkivaturi/traffis/internal/timeutil"
)

const eventColumns = "id, latitude, longitude, created_time, start_time, end_time, note, type"

// EventRepository owns query construction for the events table. It holds
// no state of its own; every operation is a fresh round trip through the
// Store.
type EventRepository struct {
	store storage.Store
}

// NewEventRepository creates a new event repository
func NewEventRepository(store storage.Store) *EventRepository {
	return &EventRepository{store: store}
}

// ListWindow describes a list query. Start and End are canonical
// timestamp strings; empty means unbounded.
type ListWindow struct {
	Start string
	End   string
}

// List returns events whose start_time falls in the window, newest
// first. With no bounds at all it returns currently active events:
// those with no end_time or an end_time still in the future.
func (r *EventRepository) List(ctx context.Context, window ListWindow) ([]models.Event, error) {
	d := r.store.Dialect()

	var query string
	var args []any
	switch {
	case window.Start != "" && window.End != "":
		query = fmt.Sprintf(
			"SELECT %s FROM events WHERE %s >= %s AND %s <= %s ORDER BY start_time DESC",
			eventColumns,
			d.Datetime("start_time"), d.Datetime("?"),
			d.Datetime("start_time"), d.Datetime("?"),
		)
		args = []any{timeutil.Normalize(window.Start), timeutil.Normalize(window.End)}
	case window.Start != "":
		query = fmt.Sprintf(
			"SELECT %s FROM events WHERE %s >= %s ORDER BY start_time DESC",
			eventColumns,
			d.Datetime("start_time"), d.Datetime("?"),
		)
		args = []any{timeutil.Normalize(window.Start)}
	default:
		query = fmt.Sprintf(
			"SELECT %s FROM events WHERE end_time IS NULL OR %s > %s ORDER BY start_time DESC",
			eventColumns,
			d.Datetime("end_time"), d.Datetime("?"),
		)
		args = []any{timeutil.Format(time.Now())}
	}

	rows, err := r.store.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, scanEvent(row))
	}
	return events, nil
}

// Create inserts a new event and returns the storage-assigned id.
// created_time is left to the column default; it is never
// client-supplied.
func (r *EventRepository) Create(ctx context.Context, input models.EventInput) (int64, error) {
	if input.Latitude == nil || input.Longitude == nil {
		return 0, errs.Validation("latitude/longitude", "coordinates are required")
	}

	args := []any{
		*input.Latitude,
		*input.Longitude,
		nullableTime(input.StartTime),
		nullableTime(input.EndTime),
		input.Note,
		input.Type,
	}

	stmt := "INSERT INTO events (latitude, longitude, start_time, end_time, note, type) VALUES (?, ?, ?, ?, ?, ?)"
	if r.store.Dialect().InsertReturning {
		rows, err := r.store.Query(ctx, stmt+" RETURNING id", args...)
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			return 0, errors.New("insert returned no id")
		}
		return rows[0].Int("id"), nil
	}

	res, err := r.store.Execute(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertID, nil
}

// Delete removes an event by id. A non-empty startTimeGuard additionally
// requires an exact date-normalized start_time match; without one, id
// alone suffices. No matching row reports not-found.
func (r *EventRepository) Delete(ctx context.Context, id int64, startTimeGuard string) error {
	d := r.store.Dialect()

	stmt := "DELETE FROM events WHERE id = ?"
	args := []any{id}
	if startTimeGuard != "" {
		stmt += fmt.Sprintf(" AND %s = %s", d.Datetime("start_time"), d.Datetime("?"))
		args = append(args, timeutil.Normalize(startTimeGuard))
	}

	res, err := r.store.Execute(ctx, stmt, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return &errs.NotFoundError{Resource: "event"}
	}
	return nil
}

// PruneExpired deletes events whose end_time passed before the cutoff
// and returns how many rows went away.
func (r *EventRepository) PruneExpired(ctx context.Context, before time.Time) (int64, error) {
	d := r.store.Dialect()

	stmt := fmt.Sprintf(
		"DELETE FROM events WHERE end_time IS NOT NULL AND %s < %s",
		d.Datetime("end_time"), d.Datetime("?"),
	)
	res, err := r.store.Execute(ctx, stmt, timeutil.Format(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func scanEvent(row storage.Row) models.Event {
	return models.Event{
		ID:          row.Int("id"),
		Latitude:    row.Float("latitude"),
		Longitude:   row.Float("longitude"),
		CreatedTime: timeutil.TruncateDisplay(row.String("created_time")),
		StartTime:   timeutil.TruncateDisplay(row.String("start_time")),
		EndTime:     timeutil.TruncateDisplay(row.String("end_time")),
		Note:        row.String("note"),
		Type:        row.String("type"),
	}
}

func nullableTime(value string) any {
	if value == "" {
		return nil
	}
	return timeutil.Normalize(value)
}
