package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vkivaturi/traffis/internal/errs"
	"github.com/vkivaturi/traffis/internal/models"
	"github.com/vkivaturi/traffis/internal/services"
)

// EventsHandler handles the event CRUD routes.
type EventsHandler struct {
	service *services.EventService
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(service *services.EventService) *EventsHandler {
	return &EventsHandler{service: service}
}

// createEventRequest accepts both the long and the short coordinate
// field names used by existing front ends.
type createEventRequest struct {
	Latitude  *float64 `json:"latitude"`
	Lat       *float64 `json:"lat"`
	Longitude *float64 `json:"longitude"`
	Long      *float64 `json:"long"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Note      string   `json:"note"`
	Type      string   `json:"type"`
}

func (r *createEventRequest) input() models.EventInput {
	lat := r.Latitude
	if lat == nil {
		lat = r.Lat
	}
	lng := r.Longitude
	if lng == nil {
		lng = r.Long
	}
	return models.EventInput{
		Latitude:  lat,
		Longitude: lng,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Note:      r.Note,
		Type:      r.Type,
	}
}

type deleteEventRequest struct {
	StartTime string `json:"start_time"`
}

// ListEvents handles GET /api/events.
func (h *EventsHandler) ListEvents(c *gin.Context) {
	events, err := h.service.ListEvents(c.Request.Context(), c.Query("start_time"), c.Query("end_time"))
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent handles POST /api/events.
func (h *EventsHandler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.service.CreateEvent(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      id,
		"message": "Event created successfully",
	})
}

// DeleteEvent handles DELETE /api/events/:id. An optional JSON body may
// carry a start_time that must match the stored record exactly.
func (h *EventsHandler) DeleteEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req deleteEventRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.service.DeleteEvent(c.Request.Context(), id, req.StartTime); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

// respondError maps the error taxonomy onto HTTP statuses. Backend
// detail is logged and never echoed to the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errs.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errs.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
