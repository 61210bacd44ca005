package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrZeroVector is returned when a vector has zero magnitude and no angle exists.
	ErrZeroVector = errors.New("zero magnitude vector")

	// ErrDimensionMismatch is returned when two vectors differ in length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// CosineSimilarity returns dot(a,b) / (|a|*|b|), in [-1,1].
// Returns ErrZeroVector if either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push identical vectors slightly past 1.
	return math.Max(-1, math.Min(1, sim)), nil
}

// PromptKeywords splits a prompt name into distinct lowercase keywords.
func PromptKeywords(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	seen := make(map[string]struct{}, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		keywords = append(keywords, f)
	}
	return keywords
}

// LexicalOverlap counts the labels whose lowercase form contains at least one
// keyword and divides by the keyword count, clamped to [0,1].
// Returns 0 when there are no keywords.
func LexicalOverlap(labels, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	matched := 0
	for _, label := range labels {
		lower := strings.ToLower(label)
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched++
				break
			}
		}
	}
	overlap := float64(matched) / float64(len(keywords))
	return math.Min(overlap, 1)
}
