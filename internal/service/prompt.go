package service

import (
	"context"

	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/logger"
)

// PromptSampler picks a random prompt.
type PromptSampler interface {
	Random(ctx context.Context) (*domain.Prompt, error)
}

// PromptService serves drawing prompts to players.
type PromptService struct {
	prompts PromptSampler
}

// NewPromptService creates a new prompt service.
func NewPromptService(prompts PromptSampler) *PromptService {
	return &PromptService{prompts: prompts}
}

// RandomPrompt returns a uniformly sampled prompt, or an error wrapping
// domain.ErrNotFound when none exist.
func (s *PromptService) RandomPrompt(ctx context.Context) (*domain.Prompt, error) {
	prompt, err := s.prompts.Random(ctx)
	if err != nil {
		return nil, err
	}
	logger.With(logger.Fields{logger.FieldPromptID: prompt.ID}).Debug(ctx, "Served prompt %q", prompt.Name)
	return prompt, nil
}
