package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vkivaturi/traffis/internal/services"
)

// LLMHandler handles the text-to-event drafting route.
type LLMHandler struct {
	service *services.EventService
}

// NewLLMHandler creates a new LLM handler
func NewLLMHandler(service *services.EventService) *LLMHandler {
	return &LLMHandler{service: service}
}

type draftRequest struct {
	Prompt string `json:"prompt"`
}

// DraftEvent handles POST /api/llm: free text in, candidate event
// record out. The caller submits the draft through the ordinary create
// route if it looks right.
func (h *LLMHandler) DraftEvent(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	draft, err := h.service.DraftFromText(c.Request.Context(), req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}
