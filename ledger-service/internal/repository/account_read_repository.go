package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/eaglebank/ledger/shared/models"
	sharedredis "github.com/eaglebank/ledger/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const (
	ownerAccountsKeyPrefix = "accounts:owner:"
	ownerAccountsTTL       = 10 * time.Minute
)

// ownerAccountsEntry is the Redis representation of one owner's account list.
type ownerAccountsEntry struct {
	OwnerID  int64            `json:"ownerId"`
	Accounts []models.Account `json:"accounts"`
}

// AccountReadRepository serves account reads. Per-owner lists come from the
// Redis read model when one is configured and fall back to the document,
// warming the cache on every cold read.
//
// Warming happens under the document read lock and invalidation under the
// write lock (see InvalidateOwner), so a stale list can never be cached after
// a write has been persisted.
type AccountReadRepository struct {
	docs  *DocumentRepository
	cache *sharedredis.ViewCache[ownerAccountsEntry]
}

// NewAccountReadRepository builds the read side; redisClient may be nil.
func NewAccountReadRepository(docs *DocumentRepository, redisClient *goredis.Client) *AccountReadRepository {
	return &AccountReadRepository{
		docs:  docs,
		cache: sharedredis.NewViewCache[ownerAccountsEntry](redisClient, ownerAccountsTTL),
	}
}

func ownerKey(ownerID int64) string {
	return ownerAccountsKeyPrefix + strconv.FormatInt(ownerID, 10)
}

// ListByOwner returns the owner's accounts in store order, never nil.
func (r *AccountReadRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Account, error) {
	if entry, ok := r.cache.Get(ctx, ownerKey(ownerID)); ok && entry.Accounts != nil {
		return entry.Accounts, nil
	}

	var accounts []models.Account
	err := r.docs.View(ctx, func(doc *models.Document) error {
		accounts = doc.AccountsByOwner(ownerID)
		r.cache.Set(ctx, ownerKey(ownerID), &ownerAccountsEntry{OwnerID: ownerID, Accounts: accounts})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListAll returns every account in store order.
func (r *AccountReadRepository) ListAll(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := r.docs.View(ctx, func(doc *models.Document) error {
		accounts = make([]models.Account, len(doc.Accounts))
		copy(accounts, doc.Accounts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// InvalidateOwner drops the cached list for an owner. Call it from inside a
// DocumentRepository.Update function.
func (r *AccountReadRepository) InvalidateOwner(ctx context.Context, ownerID int64) {
	r.cache.Delete(ctx, ownerKey(ownerID))
}
