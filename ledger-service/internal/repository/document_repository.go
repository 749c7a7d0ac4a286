package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/eaglebank/ledger/shared/models"
)

// DocumentRepository is the single writer in front of a DocumentStore. Every
// Update runs load, mutate and persist as one critical section, so concurrent
// requests can no longer overwrite each other's changes.
type DocumentRepository struct {
	mu    sync.RWMutex
	store DocumentStore
}

func NewDocumentRepository(store DocumentStore) *DocumentRepository {
	return &DocumentRepository{store: store}
}

// Update loads the latest document, hands it to fn and persists the result.
// If fn returns an error nothing is persisted and that error is returned as is.
func (r *DocumentRepository) Update(ctx context.Context, fn func(doc *models.Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := r.store.Persist(ctx, doc); err != nil {
		return fmt.Errorf("failed to persist document: %w", err)
	}
	return nil
}

// View hands fn the latest document for reading. Changes fn makes are never
// persisted.
func (r *DocumentRepository) View(ctx context.Context, fn func(doc *models.Document) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	return fn(doc)
}
