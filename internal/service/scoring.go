package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/repository"
)

// ErrNoCandidates is returned by a policy that found nothing to compare against.
var ErrNoCandidates = errors.New("no scoring candidates")

const maxScore = 100

// ScoreRequest carries what a policy needs to score one drawing.
type ScoreRequest struct {
	Prompt          *domain.Prompt
	Labels          []string
	LabelVector     []float32
	LabelMatchScore float64 // lexical overlap * 100
}

// ScoreOutcome is a policy's verdict.
type ScoreOutcome struct {
	Score              int
	Similarity         float64
	AdjustedSimilarity *float64
	MatchedPromptName  string
	Path               domain.ScoringPath
}

// ScoringPolicy turns a drawing's label embedding into a score.
// Returning ErrZeroVector or ErrNoCandidates makes the caller fall back to
// lexical scoring; any other error fails the evaluation.
type ScoringPolicy interface {
	Name() domain.ScoringPath
	Score(ctx context.Context, req *ScoreRequest) (*ScoreOutcome, error)
}

// PromptEmbedder resolves a prompt field's embedding, computing it if absent.
type PromptEmbedder interface {
	EmbedPromptField(ctx context.Context, prompt *domain.Prompt, field domain.PromptField) ([]float32, error)
}

// PromptIndex finds the prompts closest to a vector.
type PromptIndex interface {
	SearchNearest(ctx context.Context, vector []float32, limit int) ([]repository.PromptMatch, error)
}

// CombineScores maps cosine similarity and the lexical match score onto 0..100.
// Similarity contributes up to 50 points and lexical overlap up to 50.
func CombineScores(similarity, labelMatchScore float64) (adjusted float64, final int) {
	similarity = math.Max(-1, math.Min(1, similarity))
	adjusted = (similarity + 1) / 2
	labelMatchScore = math.Max(0, math.Min(100, labelMatchScore))
	return adjusted, clampScore(math.Round(adjusted*50 + labelMatchScore/2))
}

// LexicalScore is the score used when no embedding signal is available.
func LexicalScore(labelMatchScore float64) int {
	return clampScore(math.Round(labelMatchScore))
}

func clampScore(v float64) int {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > maxScore:
		return maxScore
	default:
		return int(v)
	}
}

// WeightedPolicy compares the label embedding with the prompt's name
// embedding and blends the cosine similarity with lexical overlap.
type WeightedPolicy struct {
	prompts PromptEmbedder
}

// NewWeightedPolicy creates the default scoring policy.
func NewWeightedPolicy(prompts PromptEmbedder) *WeightedPolicy {
	return &WeightedPolicy{prompts: prompts}
}

// Name returns the scoring path reported for this policy.
func (p *WeightedPolicy) Name() domain.ScoringPath {
	return domain.ScoringPathWeighted
}

// Score implements ScoringPolicy.
func (p *WeightedPolicy) Score(ctx context.Context, req *ScoreRequest) (*ScoreOutcome, error) {
	nameVec, err := p.prompts.EmbedPromptField(ctx, req.Prompt, domain.PromptFieldName)
	if err != nil {
		return nil, err
	}
	sim, err := CosineSimilarity(req.LabelVector, nameVec)
	if err != nil {
		return nil, err
	}
	adjusted, final := CombineScores(sim, req.LabelMatchScore)
	return &ScoreOutcome{
		Score:              final,
		Similarity:         sim,
		AdjustedSimilarity: &adjusted,
		MatchedPromptName:  req.Prompt.Name,
		Path:               domain.ScoringPathWeighted,
	}, nil
}

// NearestPromptPolicy searches every prompt's description embedding and
// reports the top hit's similarity as the score, whichever prompt it is.
type NearestPromptPolicy struct {
	index   PromptIndex
	limit   int
	timeout time.Duration
}

// NewNearestPromptPolicy creates the vector-search scoring policy. A positive
// timeout bounds each index search.
func NewNearestPromptPolicy(index PromptIndex, timeout time.Duration) *NearestPromptPolicy {
	return &NearestPromptPolicy{index: index, limit: 1, timeout: timeout}
}

// Name returns the scoring path reported for this policy.
func (p *NearestPromptPolicy) Name() domain.ScoringPath {
	return domain.ScoringPathNearest
}

// Score implements ScoringPolicy.
func (p *NearestPromptPolicy) Score(ctx context.Context, req *ScoreRequest) (*ScoreOutcome, error) {
	ctx, cancel := withOptionalTimeout(ctx, p.timeout)
	defer cancel()

	matches, err := p.index.SearchNearest(ctx, req.LabelVector, p.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: prompt index: %w", domain.ErrUpstreamUnavailable, err)
	}
	if len(matches) == 0 {
		return nil, ErrNoCandidates
	}
	top := matches[0]
	sim := float64(top.Score)
	return &ScoreOutcome{
		Score:             clampScore(math.Round(sim * 100)),
		Similarity:        sim,
		MatchedPromptName: top.Name,
		Path:              domain.ScoringPathNearest,
	}, nil
}
