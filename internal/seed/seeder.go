package seed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/logger"
)

// PromptStore is the prompt persistence used by the seeder.
type PromptStore interface {
	DeleteAll(ctx context.Context) (int64, error)
	UpsertByName(ctx context.Context, prompt *domain.Prompt) (bool, error)
	List(ctx context.Context, limit, offset int) ([]domain.Prompt, error)
}

// FieldEmbedder computes a prompt field embedding if it is not cached yet.
type FieldEmbedder interface {
	EmbedPromptField(ctx context.Context, prompt *domain.Prompt, field domain.PromptField) ([]float32, error)
}

// VectorIndex receives prompt vectors for nearest-prompt search.
type VectorIndex interface {
	UpsertPrompt(ctx context.Context, promptID, name string, vector []float32) error
}

// Options selects what a seeding run does besides upserting cards.
type Options struct {
	Reset bool // delete all prompts first
	Embed bool // precompute name and description embeddings
	Index bool // push description embeddings into the vector index
}

// Stats holds statistics for a seeding run.
type Stats struct {
	Cards     int64
	Inserted  int64
	Updated   int64
	Skipped   int64
	Embedded  int64
	Indexed   int64
	Failed    int64
	StartTime time.Time
	EndTime   time.Time
}

// Seeder loads the card deck into the prompt store.
type Seeder struct {
	prompts  PromptStore
	embedder FieldEmbedder
	index    VectorIndex
	workers  int
}

// Config holds the optional collaborators of a Seeder.
type Config struct {
	Embedder FieldEmbedder
	Index    VectorIndex
	Workers  int
}

// NewSeeder creates a new seeder.
func NewSeeder(prompts PromptStore, cfg *Config) *Seeder {
	s := &Seeder{prompts: prompts, workers: 4}
	if cfg != nil {
		s.embedder = cfg.Embedder
		s.index = cfg.Index
		if cfg.Workers > 0 {
			s.workers = cfg.Workers
		}
	}
	return s
}

// Run upserts cards by name, then optionally embeds and indexes every stored
// prompt. Per-prompt embedding failures are counted, not fatal.
func (s *Seeder) Run(ctx context.Context, cards []Card, opts Options) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	ctx = logger.SetComponent(ctx, "seed")

	if (opts.Embed || opts.Index) && s.embedder == nil {
		return nil, fmt.Errorf("seed: embedding requested but no embedder configured")
	}
	if opts.Index && s.index == nil {
		return nil, fmt.Errorf("seed: indexing requested but no vector index configured")
	}

	if opts.Reset {
		n, err := s.prompts.DeleteAll(ctx)
		if err != nil {
			return nil, err
		}
		logger.With(logger.Fields{logger.FieldCount: n}).Info(ctx, "Cleared existing prompts")
	}

	seen := make(map[string]struct{}, len(cards))
	for _, card := range cards {
		stats.Cards++
		name := strings.TrimSpace(card.Name)
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup || name == "" {
			stats.Skipped++
			continue
		}
		seen[key] = struct{}{}

		inserted, err := s.prompts.UpsertByName(ctx, &domain.Prompt{Name: name, Description: card.Description})
		if err != nil {
			return nil, err
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}

	if opts.Embed || opts.Index {
		if err := s.embedAll(ctx, stats, opts.Index); err != nil {
			return nil, err
		}
	}

	stats.EndTime = time.Now()
	logger.With(logger.Fields{
		"inserted": stats.Inserted,
		"updated":  stats.Updated,
		"skipped":  stats.Skipped,
		"embedded": stats.Embedded,
		"indexed":  stats.Indexed,
		"failed":   stats.Failed,
	}).WithDuration(stats.StartTime).Info(ctx, "Seeding completed")
	return stats, nil
}

func (s *Seeder) embedAll(ctx context.Context, stats *Stats, index bool) error {
	prompts, err := s.prompts.List(ctx, 0, 0)
	if err != nil {
		return err
	}

	work := make(chan *domain.Prompt, s.workers*2)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range work {
				if err := s.embedOne(ctx, p, index, stats); err != nil {
					atomic.AddInt64(&stats.Failed, 1)
					logger.With(logger.Fields{logger.FieldPromptID: p.ID}).
						Warn(ctx, "Failed to embed prompt %q: %v", p.Name, err)
				}
			}
		}()
	}

feed:
	for i := range prompts {
		select {
		case <-ctx.Done():
			break feed
		case work <- &prompts[i]:
		}
	}
	close(work)
	wg.Wait()
	return ctx.Err()
}

func (s *Seeder) embedOne(ctx context.Context, p *domain.Prompt, index bool, stats *Stats) error {
	if _, err := s.embedder.EmbedPromptField(ctx, p, domain.PromptFieldName); err != nil {
		return err
	}
	desc, err := s.embedder.EmbedPromptField(ctx, p, domain.PromptFieldDescription)
	if err != nil {
		return err
	}
	atomic.AddInt64(&stats.Embedded, 1)

	if !index {
		return nil
	}
	if err := s.index.UpsertPrompt(ctx, p.ID, p.Name, desc); err != nil {
		return err
	}
	atomic.AddInt64(&stats.Indexed, 1)
	return nil
}
