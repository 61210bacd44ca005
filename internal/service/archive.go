package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/timmy/drawmatch/internal/storage"
)

// DrawingArchive keeps submitted drawings in object storage.
type DrawingArchive struct {
	store   storage.ObjectStorage
	timeout time.Duration
}

// NewDrawingArchive creates an archive over store.
func NewDrawingArchive(store storage.ObjectStorage, timeout time.Duration) *DrawingArchive {
	return &DrawingArchive{store: store, timeout: timeout}
}

// DrawingKey returns the object key for one evaluation's drawing.
func DrawingKey(promptID, evaluationID, ext string) string {
	return fmt.Sprintf("drawings/%s/%s.%s", promptID, evaluationID, ext)
}

// Save uploads the drawing and returns its public URL.
func (a *DrawingArchive) Save(ctx context.Context, promptID, evaluationID string, d *Drawing) (string, error) {
	ctx, cancel := withOptionalTimeout(ctx, a.timeout)
	defer cancel()

	key := DrawingKey(promptID, evaluationID, d.Extension())
	if err := a.store.Upload(ctx, key, bytes.NewReader(d.Data), int64(len(d.Data)), d.ContentType()); err != nil {
		return "", err
	}
	return a.store.GetURL(key), nil
}
