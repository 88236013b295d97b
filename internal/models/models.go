package models

// Event is a geo-located traffic incident record. Timestamps are carried
// as strings in the canonical storage format and truncated to minute
// precision before leaving the API.
type Event struct {
	ID          int64   `json:"id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CreatedTime string  `json:"created_time"`
	StartTime   string  `json:"start_time,omitempty"`
	EndTime     string  `json:"end_time,omitempty"`
	Note        string  `json:"note"`
	Type        string  `json:"type"`
}

// EventInput is a candidate event on its way into storage, either from a
// direct API create or from the text-to-event adapter. Coordinates are
// pointers so an absent field can be told apart from a zero value.
type EventInput struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	StartTime string   `json:"start_time,omitempty"`
	EndTime   string   `json:"end_time,omitempty"`
	Note      string   `json:"note,omitempty"`
	Type      string   `json:"type" validate:"required"`
}

// EventDraft is the structured record proposed by the text-to-event
// adapter. It is an ordinary create payload plus the adapter's defaults.
type EventDraft struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Status    string  `json:"status"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Note      string  `json:"note"`
}

// Input converts a draft into a create payload.
func (d *EventDraft) Input() EventInput {
	lat, lng := d.Latitude, d.Longitude
	return EventInput{
		Latitude:  &lat,
		Longitude: &lng,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Note:      d.Note,
		Type:      d.Status,
	}
}
