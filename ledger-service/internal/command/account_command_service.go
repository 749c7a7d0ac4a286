package command

import (
	"context"
	"log"

	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
)

// EventPublisher emits domain events after a change has been persisted.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// AccountCommandService owns every account mutation. Each operation runs as a
// single load, mutate, persist step on the document repository and keeps the
// owner read model in sync.
type AccountCommandService struct {
	docs      *repository.DocumentRepository
	readRepo  *repository.AccountReadRepository
	publisher EventPublisher
}

func NewAccountCommandService(
	docs *repository.DocumentRepository,
	readRepo *repository.AccountReadRepository,
	publisher EventPublisher,
) *AccountCommandService {
	return &AccountCommandService{
		docs:      docs,
		readRepo:  readRepo,
		publisher: publisher,
	}
}

// CreateAccount adds an account for the owner unless one already carries the
// same name once trimmed and upper-cased.
func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	if !ledger.SupportsType(cmd.AccountType) {
		return nil, ledger.Fail(ledger.UnsupportedAccountType, "Account type %q is not supported.", string(cmd.AccountType))
	}
	normalized := utils.NormalizeAccountName(cmd.Name)

	var account models.Account
	err := s.docs.Update(ctx, func(doc *models.Document) error {
		for _, existing := range doc.Accounts {
			if existing.OwnerID == cmd.OwnerID && utils.NormalizeAccountName(existing.Name) == normalized {
				return ledger.Fail(ledger.DuplicateAccountName, "Account name %s already exists for this user.", cmd.Name)
			}
		}
		account = models.Account{
			ID:             doc.AllocateAccountID(),
			OwnerID:        cmd.OwnerID,
			Name:           cmd.Name,
			Type:           cmd.AccountType,
			MonthlyHistory: []models.MonthlyRecord{},
		}
		doc.Accounts = append(doc.Accounts, account)
		s.readRepo.InvalidateOwner(ctx, cmd.OwnerID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountID:   account.ID,
		OwnerID:     account.OwnerID,
		Name:        account.Name,
		AccountType: string(account.Type),
	})
	return &account, nil
}

// UpdateMonthlyHistory upserts one month on the account through the ledger engine.
func (s *AccountCommandService) UpdateMonthlyHistory(ctx context.Context, cmd cqrs.UpdateMonthlyHistoryCommand) (*models.MonthlyRecord, ledger.Outcome, error) {
	var (
		record  models.MonthlyRecord
		outcome ledger.Outcome
		ownerID int64
	)
	err := s.docs.Update(ctx, func(doc *models.Document) error {
		account := doc.FindAccount(cmd.AccountID)
		if account == nil {
			return ledger.Fail(ledger.AccountNotFound, "Account with ID %d not found.", cmd.AccountID)
		}
		var err error
		record, outcome, err = ledger.Upsert(account, cmd.MonthKey, cmd.Fields)
		if err != nil {
			return err
		}
		ownerID = account.OwnerID
		s.readRepo.InvalidateOwner(ctx, ownerID)
		return nil
	})
	if err != nil {
		return nil, outcome, err
	}

	s.publish(ctx, events.AccountEventsStream, events.AccountHistoryUpdated, events.AccountHistoryUpdatedEvent{
		AccountID: cmd.AccountID,
		OwnerID:   ownerID,
		MonthKey:  cmd.MonthKey,
		Created:   outcome == ledger.Created,
	})
	return &record, outcome, nil
}

// DeleteAccount removes exactly the account matching both id and owner. A
// missing account and a foreign account fail with different kinds.
func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	err := s.docs.Update(ctx, func(doc *models.Document) error {
		account := doc.FindAccount(cmd.AccountID)
		if account == nil {
			return ledger.Fail(ledger.NotFound, "Account with ID %d not found.", cmd.AccountID)
		}
		if account.OwnerID != cmd.RequestingUserID {
			return ledger.Fail(ledger.AuthorizationFailed, "Authorization failed: Account found but does not belong to the user.")
		}
		doc.RemoveAccount(cmd.AccountID, cmd.RequestingUserID)
		s.readRepo.InvalidateOwner(ctx, cmd.RequestingUserID)
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.AccountEventsStream, events.AccountDeleted, events.AccountDeletedEvent{
		AccountID: cmd.AccountID,
		OwnerID:   cmd.RequestingUserID,
	})
	return nil
}

// DeleteAllUserAccounts removes every account of the owner and returns how
// many went. Zero matches is not an error.
func (s *AccountCommandService) DeleteAllUserAccounts(ctx context.Context, ownerID int64) (int, error) {
	var removed []models.Account
	err := s.docs.Update(ctx, func(doc *models.Document) error {
		removed = s.removeOwnerAccounts(ctx, doc, ownerID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.publishCascade(ctx, removed)
	return len(removed), nil
}

// removeOwnerAccounts is the in-document half of DeleteAllUserAccounts, shared
// with the user cascade so both land in one persisted snapshot.
func (s *AccountCommandService) removeOwnerAccounts(ctx context.Context, doc *models.Document, ownerID int64) []models.Account {
	removed := doc.RemoveAccountsByOwner(ownerID)
	s.readRepo.InvalidateOwner(ctx, ownerID)
	return removed
}

func (s *AccountCommandService) publishCascade(ctx context.Context, removed []models.Account) {
	for _, a := range removed {
		s.publish(ctx, events.AccountEventsStream, events.AccountDeleted, events.AccountDeletedEvent{
			AccountID: a.ID,
			OwnerID:   a.OwnerID,
			Cascade:   true,
		})
	}
}

func (s *AccountCommandService) publish(ctx context.Context, stream, eventType string, data any) {
	if err := s.publisher.Publish(ctx, stream, eventType, data); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
