package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromptField names an embeddable text field of a prompt.
type PromptField string

const (
	PromptFieldName        PromptField = "name"
	PromptFieldDescription PromptField = "description"
)

// Column returns the prompts table column caching the field's embedding.
func (f PromptField) Column() (string, error) {
	switch f {
	case PromptFieldName:
		return "name_embedding", nil
	case PromptFieldDescription:
		return "description_embedding", nil
	default:
		return "", errors.New("unknown prompt field: " + string(f))
	}
}

// FloatVector stores an embedding as a JSON array column.
// A nil FloatVector is written as SQL NULL so "absent" stays distinguishable.
type FloatVector []float32

// Value implements the driver.Valuer interface for database serialization.
func (v FloatVector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (v *FloatVector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	var raw []byte
	switch val := value.(type) {
	case []byte:
		raw = val
	case string:
		raw = []byte(val)
	default:
		return errors.New("failed to scan FloatVector")
	}
	var out []float32
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*v = out
	return nil
}

// Prompt is a drawing card: the thing a player is asked to draw.
// Embeddings are attached lazily and never recomputed once stored.
type Prompt struct {
	ID                   string      `gorm:"type:text;primaryKey" json:"id"`
	Name                 string      `gorm:"type:text;not null;uniqueIndex:idx_prompts_name" json:"name"`
	Description          string      `gorm:"type:text;not null" json:"description"`
	NameEmbedding        FloatVector `gorm:"type:text" json:"-"`
	DescriptionEmbedding FloatVector `gorm:"type:text" json:"-"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Prompt.
func (Prompt) TableName() string {
	return "prompts"
}

// Embedding returns the cached embedding for field, or nil when absent.
func (p *Prompt) Embedding(field PromptField) FloatVector {
	switch field {
	case PromptFieldName:
		return p.NameEmbedding
	case PromptFieldDescription:
		return p.DescriptionEmbedding
	}
	return nil
}

// SetEmbedding attaches vec to field on the in-memory prompt.
func (p *Prompt) SetEmbedding(field PromptField, vec FloatVector) {
	switch field {
	case PromptFieldName:
		p.NameEmbedding = vec
	case PromptFieldDescription:
		p.DescriptionEmbedding = vec
	}
}

// BeforeCreate assigns a UUID when the caller did not.
func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
