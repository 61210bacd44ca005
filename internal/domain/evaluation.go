package domain

// EvaluationStage is a step of the checkDrawing pipeline.
type EvaluationStage string

const (
	StageReceived  EvaluationStage = "received"
	StageModerated EvaluationStage = "moderated"
	StageLabeled   EvaluationStage = "labeled"
	StageEmbedded  EvaluationStage = "embedded"
	StageScored    EvaluationStage = "scored"
	StageResponded EvaluationStage = "responded"
	StageRejected  EvaluationStage = "rejected"
)

// ScoringPath records which scoring route produced a result.
type ScoringPath string

const (
	ScoringPathWeighted        ScoringPath = "weighted"
	ScoringPathNearest         ScoringPath = "nearest"
	ScoringPathLexicalFallback ScoringPath = "lexical-fallback"
)

// ModerationResult is the safety gate verdict for one image.
type ModerationResult struct {
	IsAppropriate bool     `json:"isAppropriate"`
	FlaggedLabels []string `json:"flaggedLabels"`
}

// EvaluationResult is returned to the caller of checkDrawing. It is not persisted.
type EvaluationResult struct {
	EvaluationID       string      `json:"evaluationId"`
	Score              int         `json:"score"`
	Similarity         *float64    `json:"similarity,omitempty"`
	AdjustedSimilarity *float64    `json:"adjustedSimilarity,omitempty"`
	LabelMatchScore    *float64    `json:"labelMatchScore,omitempty"`
	Explanation        string      `json:"explanation"`
	PromptText         string      `json:"promptText"`
	PromptName         string      `json:"promptName"`
	MatchedPromptName  string      `json:"matchedPromptName,omitempty"`
	Labels             []string    `json:"labels"`
	ScoringPath        ScoringPath `json:"scoringPath"`
	DrawingURL         string      `json:"drawingUrl,omitempty"`
}
