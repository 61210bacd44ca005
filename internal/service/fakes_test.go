package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/metrics"
	"github.com/timmy/drawmatch/internal/repository"
)

func testMetrics() *metrics.Manager {
	return metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
}

// pngDataURL returns a small valid PNG drawing as a data URL.
func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fakeVision struct {
	labels        []VisionLabel
	moderation    []VisionLabel
	labelErr      error
	moderationErr error
}

func (f *fakeVision) DetectLabels(_ context.Context, _ []byte, maxLabels int, minConfidence float64) ([]VisionLabel, error) {
	if f.labelErr != nil {
		return nil, f.labelErr
	}
	return f.labels, nil
}

func (f *fakeVision) DetectModerationLabels(_ context.Context, _ []byte, _ float64) ([]VisionLabel, error) {
	if f.moderationErr != nil {
		return nil, f.moderationErr
	}
	return f.moderation, nil
}

// fakeEmbedder returns vectors from a table, or a default vector.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	def     []float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Model() string { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.def, nil
}

func (f *fakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePromptStore is an in-memory prompt repository.
type fakePromptStore struct {
	mu      sync.Mutex
	prompts map[string]*domain.Prompt
	writes  int
}

func newFakePromptStore(prompts ...*domain.Prompt) *fakePromptStore {
	s := &fakePromptStore{prompts: map[string]*domain.Prompt{}}
	for _, p := range prompts {
		s.prompts[p.ID] = p
	}
	return s
}

func (s *fakePromptStore) GetByID(_ context.Context, id string) (*domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prompts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePromptStore) Random(_ context.Context) (*domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.prompts {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s *fakePromptStore) SetEmbedding(_ context.Context, id string, field domain.PromptField, vec domain.FloatVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prompts[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.SetEmbedding(field, vec)
	s.writes++
	return nil
}

type fakeIndex struct {
	matches []repository.PromptMatch
	err     error
}

func (f *fakeIndex) SearchNearest(context.Context, []float32, int) ([]repository.PromptMatch, error) {
	return f.matches, f.err
}

// blockingIndex never answers before the caller gives up.
type blockingIndex struct{}

func (blockingIndex) SearchNearest(ctx context.Context, _ []float32, _ int) ([]repository.PromptMatch, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) Save(_ context.Context, promptID, evaluationID string, d *Drawing) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := DrawingKey(promptID, evaluationID, d.Extension())
	f.keys = append(f.keys, key)
	return "https://cdn.example/" + key, nil
}
