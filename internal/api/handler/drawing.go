package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/logger"
	"github.com/timmy/drawmatch/internal/service"
)

// DrawingEvaluator scores a drawing against its prompt.
type DrawingEvaluator interface {
	Evaluate(ctx context.Context, req *service.EvaluationRequest) (*domain.EvaluationResult, error)
}

// DrawingHandler handles drawing submissions.
type DrawingHandler struct {
	evaluator DrawingEvaluator
}

// NewDrawingHandler creates a new drawing handler.
func NewDrawingHandler(evaluator DrawingEvaluator) *DrawingHandler {
	return &DrawingHandler{evaluator: evaluator}
}

// CheckDrawingRequest is the body of POST /api/checkDrawing.
type CheckDrawingRequest struct {
	PromptID string `json:"promptId"`
	Drawing  string `json:"drawing"`
}

// CheckDrawing handles POST /api/checkDrawing.
func (h *DrawingHandler) CheckDrawing(c *gin.Context) {
	var req CheckDrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}
	if strings.TrimSpace(req.Drawing) == "" {
		respondError(c, domain.ErrNoDrawing, "")
		return
	}

	ctx := logger.WithField(c.Request.Context(), logger.FieldPromptID, req.PromptID)
	c.Request = c.Request.WithContext(ctx)

	result, err := h.evaluator.Evaluate(ctx, &service.EvaluationRequest{
		PromptID: req.PromptID,
		Drawing:  req.Drawing,
	})
	if err != nil {
		respondError(c, err, "Prompt not found")
		return
	}
	c.JSON(http.StatusOK, result)
}
