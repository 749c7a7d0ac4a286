package query

import (
	"context"
	"log"

	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
)

type AccountQueryService struct {
	readRepo *repository.AccountReadRepository
}

func NewAccountQueryService(readRepo *repository.AccountReadRepository) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo}
}

// ListAccounts returns every account in store order.
func (s *AccountQueryService) ListAccounts(ctx context.Context, _ cqrs.ListAccountsQuery) ([]models.Account, error) {
	return s.readRepo.ListAll(ctx)
}

// ListUserAccounts returns the owner's accounts in store order; an owner with
// no accounts gets an empty list, not an error.
func (s *AccountQueryService) ListUserAccounts(ctx context.Context, q cqrs.ListUserAccountsQuery) ([]models.Account, error) {
	return s.readRepo.ListByOwner(ctx, q.OwnerID)
}

// HandleAccountEvent drops the owner's cached list whenever another instance
// changed one of their accounts. Writes made by this process have already
// invalidated the entry under the write lock; this catches replicas sharing
// a SQL store whose cold reads raced a remote write.
func (s *AccountQueryService) HandleAccountEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.AccountCreated, events.AccountHistoryUpdated, events.AccountDeleted:
	default:
		return nil
	}
	var data struct {
		OwnerID int64 `json:"ownerId"`
	}
	if err := events.DecodeData(event, &data); err != nil {
		return err
	}
	if data.OwnerID == 0 {
		log.Printf("Ignoring %s event without owner", event.Type)
		return nil
	}
	s.readRepo.InvalidateOwner(ctx, data.OwnerID)
	return nil
}
