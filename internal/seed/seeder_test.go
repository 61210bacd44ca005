package seed

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/timmy/drawmatch/internal/domain"
)

type memStore struct {
	mu      sync.Mutex
	byName  map[string]*domain.Prompt
	cleared int
}

func newMemStore() *memStore {
	return &memStore{byName: make(map[string]*domain.Prompt)}
}

func (m *memStore) DeleteAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.byName))
	m.byName = make(map[string]*domain.Prompt)
	m.cleared++
	return n, nil
}

func (m *memStore) UpsertByName(_ context.Context, p *domain.Prompt) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byName[p.Name]; ok {
		existing.Description = p.Description
		return false, nil
	}
	cp := *p
	cp.ID = uuid.NewString()
	m.byName[p.Name] = &cp
	return true, nil
}

func (m *memStore) List(context.Context, int, int) ([]domain.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Prompt, 0, len(m.byName))
	for _, p := range m.byName {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type countingEmbedder struct {
	mu     sync.Mutex
	fields map[domain.PromptField]int
	failOn string
}

func (c *countingEmbedder) EmbedPromptField(_ context.Context, p *domain.Prompt, field domain.PromptField) ([]float32, error) {
	if p.Name == c.failOn {
		return nil, errors.New("upstream down")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fields == nil {
		c.fields = make(map[domain.PromptField]int)
	}
	c.fields[field]++
	return []float32{float32(len(p.Name)), 1}, nil
}

type memIndex struct {
	mu    sync.Mutex
	names []string
}

func (m *memIndex) UpsertPrompt(_ context.Context, _ string, name string, _ []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, name)
	return nil
}

func TestDefaultCardsDeck(t *testing.T) {
	cards := DefaultCards()
	if len(cards) != 38 {
		t.Fatalf("deck size = %d, want 38", len(cards))
	}
	for _, c := range cards {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Description) == "" {
			t.Errorf("incomplete card %+v", c)
		}
	}
}

func TestSeederSkipsDuplicateNames(t *testing.T) {
	store := newMemStore()
	stats, err := NewSeeder(store, nil).Run(context.Background(), DefaultCards(), Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Inserted != 37 || stats.Skipped != 1 || stats.Cards != 38 {
		t.Errorf("stats = %+v", stats)
	}
	if got := store.byName["Tree"].Description; !strings.HasPrefix(got, "A perennial plant") {
		t.Errorf("Tree should keep the first description, got %q", got)
	}
}

func TestSeederIsIdempotent(t *testing.T) {
	store := newMemStore()
	seeder := NewSeeder(store, nil)
	cards := []Card{{Name: "Cat", Description: "v1"}, {Name: "Dog", Description: "d"}}
	if _, err := seeder.Run(context.Background(), cards, Options{}); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	cards[0].Description = "v2"
	stats, err := seeder.Run(context.Background(), cards, Options{})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if stats.Inserted != 0 || stats.Updated != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if store.byName["Cat"].Description != "v2" {
		t.Errorf("description not refreshed")
	}
}

func TestSeederResetEmbedIndex(t *testing.T) {
	store := newMemStore()
	_, _ = store.UpsertByName(context.Background(), &domain.Prompt{Name: "Stale"})
	embedder := &countingEmbedder{failOn: "Dog"}
	index := &memIndex{}

	stats, err := NewSeeder(store, &Config{Embedder: embedder, Index: index, Workers: 3}).Run(
		context.Background(),
		[]Card{{Name: "Cat", Description: "c"}, {Name: "Dog", Description: "d"}, {Name: "Sun", Description: "s"}},
		Options{Reset: true, Embed: true, Index: true},
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if store.cleared != 1 || store.byName["Stale"] != nil {
		t.Error("reset should clear existing prompts")
	}
	if stats.Embedded != 2 || stats.Indexed != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if embedder.fields[domain.PromptFieldName] != 2 || embedder.fields[domain.PromptFieldDescription] != 2 {
		t.Errorf("embedded fields = %v", embedder.fields)
	}
	sort.Strings(index.names)
	if strings.Join(index.names, ",") != "Cat,Sun" {
		t.Errorf("indexed = %v", index.names)
	}
}

func TestSeederRequiresCollaborators(t *testing.T) {
	if _, err := NewSeeder(newMemStore(), nil).Run(context.Background(), nil, Options{Embed: true}); err == nil {
		t.Error("expected error without embedder")
	}
	if _, err := NewSeeder(newMemStore(), &Config{Embedder: &countingEmbedder{}}).Run(context.Background(), nil, Options{Index: true}); err == nil {
		t.Error("expected error without index")
	}
}
