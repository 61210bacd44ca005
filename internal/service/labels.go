package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/drawmatch/internal/domain"
)

const (
	DefaultMaxLabels       = 10
	DefaultLabelConfidence = 75.0
)

// LabelExtractor names what a drawing depicts.
type LabelExtractor struct {
	vision        VisionClient
	maxLabels     int
	minConfidence float64
	timeout       time.Duration
}

// NewLabelExtractor creates an extractor returning at most maxLabels labels
// with confidence at or above minConfidence.
func NewLabelExtractor(vision VisionClient, maxLabels int, minConfidence float64, timeout time.Duration) *LabelExtractor {
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabels
	}
	if minConfidence <= 0 {
		minConfidence = DefaultLabelConfidence
	}
	return &LabelExtractor{
		vision:        vision,
		maxLabels:     maxLabels,
		minConfidence: minConfidence,
		timeout:       timeout,
	}
}

// ExtractLabels returns label names in the adapter's order. An empty result
// is valid.
func (e *LabelExtractor) ExtractLabels(ctx context.Context, image []byte) ([]string, error) {
	ctx, cancel := withOptionalTimeout(ctx, e.timeout)
	defer cancel()

	detected, err := e.vision.DetectLabels(ctx, image, e.maxLabels, e.minConfidence)
	if err != nil {
		return nil, fmt.Errorf("%w: labels: %w", domain.ErrUpstreamUnavailable, err)
	}

	labels := make([]string, 0, len(detected))
	for _, l := range detected {
		if l.Confidence < e.minConfidence || l.Name == "" {
			continue
		}
		labels = append(labels, l.Name)
		if len(labels) == e.maxLabels {
			break
		}
	}
	return labels, nil
}
