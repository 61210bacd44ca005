package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/drawmatch/internal/domain"
)

const DefaultModerationConfidence = 60.0

// SafetyGate decides whether a drawing may be scored.
type SafetyGate struct {
	vision        VisionClient
	minConfidence float64
	timeout       time.Duration
}

// NewSafetyGate creates a gate flagging moderation labels at or above minConfidence.
func NewSafetyGate(vision VisionClient, minConfidence float64, timeout time.Duration) *SafetyGate {
	if minConfidence <= 0 {
		minConfidence = DefaultModerationConfidence
	}
	return &SafetyGate{vision: vision, minConfidence: minConfidence, timeout: timeout}
}

// Moderate reports the drawing appropriate iff no moderation label reaches the
// confidence floor. Adapter failures and timeouts wrap domain.ErrUpstreamUnavailable.
func (g *SafetyGate) Moderate(ctx context.Context, image []byte) (*domain.ModerationResult, error) {
	ctx, cancel := withOptionalTimeout(ctx, g.timeout)
	defer cancel()

	labels, err := g.vision.DetectModerationLabels(ctx, image, g.minConfidence)
	if err != nil {
		return nil, fmt.Errorf("%w: moderation: %w", domain.ErrUpstreamUnavailable, err)
	}

	flagged := make([]string, 0, len(labels))
	for _, l := range labels {
		if l.Confidence >= g.minConfidence {
			flagged = append(flagged, l.Name)
		}
	}
	return &domain.ModerationResult{
		IsAppropriate: len(flagged) == 0,
		FlaggedLabels: flagged,
	}, nil
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
