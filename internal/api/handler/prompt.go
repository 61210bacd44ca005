package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/drawmatch/internal/domain"
)

// PromptProvider serves random prompts.
type PromptProvider interface {
	RandomPrompt(ctx context.Context) (*domain.Prompt, error)
}

// PromptHandler handles prompt endpoints.
type PromptHandler struct {
	prompts PromptProvider
}

// NewPromptHandler creates a new prompt handler.
func NewPromptHandler(prompts PromptProvider) *PromptHandler {
	return &PromptHandler{prompts: prompts}
}

// RandomPromptResponse is the body of GET /api/getRandomPrompt.
type RandomPromptResponse struct {
	PromptID    string `json:"promptId"`
	Text        string `json:"text"`
	Description string `json:"description"`
}

// GetRandomPrompt handles GET /api/getRandomPrompt.
func (h *PromptHandler) GetRandomPrompt(c *gin.Context) {
	prompt, err := h.prompts.RandomPrompt(c.Request.Context())
	if err != nil {
		respondError(c, err, "No prompts available")
		return
	}
	c.JSON(http.StatusOK, RandomPromptResponse{
		PromptID:    prompt.ID,
		Text:        prompt.Name,
		Description: prompt.Description,
	})
}
