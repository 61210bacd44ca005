package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/logger"
	"github.com/timmy/drawmatch/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// PromptLookup loads a prompt by ID.
type PromptLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Prompt, error)
}

// Moderator is the content safety gate.
type Moderator interface {
	Moderate(ctx context.Context, image []byte) (*domain.ModerationResult, error)
}

// Labeler extracts labels from a drawing.
type Labeler interface {
	ExtractLabels(ctx context.Context, image []byte) ([]string, error)
}

// Archiver stores a drawing and returns its URL.
type Archiver interface {
	Save(ctx context.Context, promptID, evaluationID string, d *Drawing) (string, error)
}

// EvaluationConfig wires the collaborators of EvaluationService.
// Embedder and Archive are optional; without an embedder every drawing is
// scored lexically.
type EvaluationConfig struct {
	Prompts   PromptLookup
	Moderator Moderator
	Labeler   Labeler
	Embedder  Embedder
	Policy    ScoringPolicy
	Archive   Archiver
	Metrics   *metrics.Manager
	// FailOpen treats a moderation failure as "appropriate" instead of
	// failing the evaluation.
	FailOpen bool
}

// EvaluationRequest is one checkDrawing submission.
type EvaluationRequest struct {
	PromptID string
	Drawing  string
}

// EvaluationService scores a drawing against a prompt:
// received -> moderated -> labeled -> embedded -> scored -> responded.
type EvaluationService struct {
	prompts   PromptLookup
	moderator Moderator
	labeler   Labeler
	embedder  Embedder
	policy    ScoringPolicy
	archive   Archiver
	metrics   *metrics.Manager
	failOpen  bool
}

// NewEvaluationService creates a new evaluation service.
func NewEvaluationService(cfg *EvaluationConfig) *EvaluationService {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Default()
	}
	return &EvaluationService{
		prompts:   cfg.Prompts,
		moderator: cfg.Moderator,
		labeler:   cfg.Labeler,
		embedder:  cfg.Embedder,
		policy:    cfg.Policy,
		archive:   cfg.Archive,
		metrics:   m,
		failOpen:  cfg.FailOpen,
	}
}

// Evaluate runs the full pipeline for one drawing.
// Parameters:
//   - ctx: request context carrying the request logger.
//   - req: prompt ID and base64 drawing.
//
// Returns:
//   - *domain.EvaluationResult: score with its signals and explanation.
//   - error: wraps one of the domain error sentinels.
func (s *EvaluationService) Evaluate(ctx context.Context, req *EvaluationRequest) (*domain.EvaluationResult, error) {
	start := time.Now()
	evaluationID := uuid.NewString()
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent:    "evaluation",
		logger.FieldEvaluationID: evaluationID,
		logger.FieldPromptID:     req.PromptID,
	})
	stage(ctx, domain.StageReceived)

	result, err := s.evaluate(ctx, evaluationID, req)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		s.metrics.RecordEvaluation(outcomeOf(err), latency)
		logger.With(logger.Fields{logger.FieldStage: string(domain.StageRejected)}).
			WithDuration(start).
			Warn(ctx, "Evaluation failed: %v", err)
		return nil, err
	}

	s.metrics.RecordEvaluation(metrics.OutcomeScored, latency)
	s.metrics.RecordScore(string(result.ScoringPath), result.Score)
	logger.With(logger.Fields{
		logger.FieldStage: string(domain.StageResponded),
		logger.FieldScore: result.Score,
	}).WithDuration(start).Info(ctx, "Evaluation complete: path=%s", result.ScoringPath)
	return result, nil
}

func (s *EvaluationService) evaluate(ctx context.Context, evaluationID string, req *EvaluationRequest) (*domain.EvaluationResult, error) {
	if strings.TrimSpace(req.Drawing) == "" {
		return nil, domain.ErrNoDrawing
	}
	if _, err := uuid.Parse(req.PromptID); err != nil {
		return nil, fmt.Errorf("%w: invalid prompt id %q", domain.ErrInvalidInput, req.PromptID)
	}

	prompt, err := s.prompts.GetByID(ctx, req.PromptID)
	if err != nil {
		return nil, err
	}

	drawing, err := DecodeDrawing(req.Drawing)
	if err != nil {
		return nil, err
	}
	defer drawing.Release()

	moderation, labels, err := s.moderateAndLabel(ctx, drawing.Data)
	if err != nil {
		return nil, err
	}
	if !moderation.IsAppropriate {
		return nil, fmt.Errorf("%w: flagged %s", domain.ErrInappropriateContent, strings.Join(moderation.FlaggedLabels, ", "))
	}
	stage(ctx, domain.StageModerated)
	logger.With(logger.Fields{logger.FieldStage: string(domain.StageLabeled)}).
		WithCount(len(labels)).
		Debug(ctx, "Labels: %v", labels)

	labelMatch := LexicalOverlap(labels, PromptKeywords(prompt.Name)) * 100
	outcome, err := s.score(ctx, prompt, labels, labelMatch)
	if err != nil {
		return nil, err
	}
	stage(ctx, domain.StageScored)

	result := &domain.EvaluationResult{
		EvaluationID:       evaluationID,
		Score:              outcome.Score,
		AdjustedSimilarity: outcome.AdjustedSimilarity,
		LabelMatchScore:    &labelMatch,
		Explanation:        explain(labels, outcome.Path),
		PromptText:         prompt.Description,
		PromptName:         prompt.Name,
		MatchedPromptName:  outcome.MatchedPromptName,
		Labels:             labels,
		ScoringPath:        outcome.Path,
	}
	if outcome.Path != domain.ScoringPathLexicalFallback {
		sim := outcome.Similarity
		result.Similarity = &sim
	}

	if s.archive != nil {
		url, err := s.archive.Save(ctx, prompt.ID, evaluationID, drawing)
		if err != nil {
			logger.CtxWarn(ctx, "Failed to archive drawing: error=%v", err)
		} else {
			result.DrawingURL = url
		}
	}
	return result, nil
}

// moderateAndLabel runs both vision calls concurrently. The moderation
// verdict is always inspected before the labels are used.
func (s *EvaluationService) moderateAndLabel(ctx context.Context, image []byte) (*domain.ModerationResult, []string, error) {
	var (
		moderation    *domain.ModerationResult
		moderationErr error
		labels        []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		moderation, moderationErr = s.moderator.Moderate(gctx, image)
		return nil
	})
	g.Go(func() error {
		var err error
		labels, err = s.labeler.ExtractLabels(gctx, image)
		return err
	})
	labelErr := g.Wait()

	if moderationErr != nil {
		s.metrics.RecordUpstreamError("moderation")
		if !s.failOpen {
			return nil, nil, moderationErr
		}
		logger.CtxWarn(ctx, "Moderation unavailable, treating drawing as appropriate: error=%v", moderationErr)
		moderation = &domain.ModerationResult{IsAppropriate: true}
	}
	if !moderation.IsAppropriate {
		return moderation, nil, nil
	}
	if labelErr != nil {
		s.metrics.RecordUpstreamError("labels")
		return nil, nil, labelErr
	}
	return moderation, labels, nil
}

// score runs the embedding policy and falls back to lexical overlap when no
// embedding signal exists.
func (s *EvaluationService) score(ctx context.Context, prompt *domain.Prompt, labels []string, labelMatch float64) (*ScoreOutcome, error) {
	if s.embedder == nil || s.policy == nil || len(labels) == 0 {
		return lexicalOutcome(labelMatch), nil
	}

	labelVec, err := s.embedder.Embed(ctx, labelEmbeddingText(labels))
	if err != nil {
		s.metrics.RecordUpstreamError("embedding")
		return nil, err
	}
	stage(ctx, domain.StageEmbedded)

	outcome, err := s.policy.Score(ctx, &ScoreRequest{
		Prompt:          prompt,
		Labels:          labels,
		LabelVector:     labelVec,
		LabelMatchScore: labelMatch,
	})
	switch {
	case err == nil:
		return outcome, nil
	case errors.Is(err, ErrZeroVector), errors.Is(err, ErrNoCandidates), errors.Is(err, ErrDimensionMismatch):
		logger.CtxWarn(ctx, "Falling back to lexical scoring: policy=%s, reason=%v", s.policy.Name(), err)
		return lexicalOutcome(labelMatch), nil
	default:
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			s.metrics.RecordUpstreamError(string(s.policy.Name()))
		}
		return nil, err
	}
}

func lexicalOutcome(labelMatch float64) *ScoreOutcome {
	return &ScoreOutcome{
		Score: LexicalScore(labelMatch),
		Path:  domain.ScoringPathLexicalFallback,
	}
}

func explain(labels []string, path domain.ScoringPath) string {
	detected := "none"
	if len(labels) > 0 {
		detected = strings.Join(labels, ", ")
	}
	return fmt.Sprintf("Drawing labels: %s (scored by %s)", detected, path)
}

func stage(ctx context.Context, st domain.EvaluationStage) {
	logger.With(logger.Fields{logger.FieldStage: string(st)}).Debug(ctx, "Evaluation stage")
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInappropriateContent):
		return metrics.OutcomeRejected
	case errors.Is(err, domain.ErrInvalidInput):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return metrics.OutcomeUpstreamFail
	default:
		return metrics.OutcomeError
	}
}
