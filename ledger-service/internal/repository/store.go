package repository

import (
	"context"
	"errors"

	"github.com/eaglebank/ledger/shared/models"
)

// ErrVersionConflict is returned by Persist when the stored document changed
// since it was loaded.
var ErrVersionConflict = errors.New("document was modified concurrently")

// DocumentStore is the durable home of the ledger document.
//
// Load returns the latest snapshot, creating and storing an empty one when
// none exists; repeated loads with no Persist in between return equal
// documents. Persist replaces the stored snapshot with doc and bumps its
// Version.
type DocumentStore interface {
	Load(ctx context.Context) (*models.Document, error)
	Persist(ctx context.Context, doc *models.Document) error
}
