package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/drawmatch/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PromptRepository handles prompt data operations.
type PromptRepository struct {
	db *gorm.DB
}

// NewPromptRepository creates a new PromptRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *PromptRepository: repository instance bound to db.
func NewPromptRepository(db *gorm.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

// UpsertByName creates a prompt or refreshes the description of the one with
// the same name. Cached embeddings of an existing prompt are left untouched.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - prompt: prompt to create or update.
//
// Returns:
//   - bool: true if a new row was inserted.
//   - error: non-nil if the upsert fails.
func (r *PromptRepository) UpsertByName(ctx context.Context, prompt *domain.Prompt) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(prompt)
	if result.Error != nil {
		return false, fmt.Errorf("%w: upsert prompt: %w", domain.ErrPersistence, result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	err := r.db.WithContext(ctx).Model(&domain.Prompt{}).
		Where("name = ?", prompt.Name).
		Update("description", prompt.Description).Error
	if err != nil {
		return false, fmt.Errorf("%w: update prompt description: %w", domain.ErrPersistence, err)
	}
	return false, nil
}

// GetByID retrieves a prompt by its ID.
// Returns an error wrapping domain.ErrNotFound if no such prompt exists.
func (r *PromptRepository) GetByID(ctx context.Context, id string) (*domain.Prompt, error) {
	var prompt domain.Prompt
	if err := r.db.WithContext(ctx).First(&prompt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("prompt %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get prompt: %w", domain.ErrPersistence, err)
	}
	return &prompt, nil
}

// Random returns one uniformly sampled prompt.
// Returns an error wrapping domain.ErrNotFound if the collection is empty.
func (r *PromptRepository) Random(ctx context.Context) (*domain.Prompt, error) {
	var prompts []domain.Prompt
	if err := r.db.WithContext(ctx).
		Order("RANDOM()").
		Limit(1).
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("%w: sample prompt: %w", domain.ErrPersistence, err)
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("no prompts available: %w", domain.ErrNotFound)
	}
	return &prompts[0], nil
}

// List returns prompts ordered by name with pagination.
func (r *PromptRepository) List(ctx context.Context, limit, offset int) ([]domain.Prompt, error) {
	var prompts []domain.Prompt
	query := r.db.WithContext(ctx).Order("name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("%w: list prompts: %w", domain.ErrPersistence, err)
	}
	return prompts, nil
}

// Count returns the number of stored prompts.
func (r *PromptRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Prompt{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: count prompts: %w", domain.ErrPersistence, err)
	}
	return count, nil
}

// SetEmbedding stores vec on the prompt's field with a single column update.
// Concurrent writers for the same field simply overwrite each other.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: prompt ID.
//   - field: which embedding column to set.
//   - vec: embedding to persist.
//
// Returns:
//   - error: wraps domain.ErrNotFound if the prompt does not exist.
func (r *PromptRepository) SetEmbedding(ctx context.Context, id string, field domain.PromptField, vec domain.FloatVector) error {
	column, err := field.Column()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	result := r.db.WithContext(ctx).Model(&domain.Prompt{}).
		Where("id = ?", id).
		Update(column, vec)
	if result.Error != nil {
		return fmt.Errorf("%w: set %s: %w", domain.ErrPersistence, column, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("prompt %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteAll removes every prompt. Used by the seeder's reset mode.
func (r *PromptRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Prompt{})
	if result.Error != nil {
		return 0, fmt.Errorf("%w: delete prompts: %w", domain.ErrPersistence, result.Error)
	}
	return result.RowsAffected, nil
}
