package command

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
)

// UserCommandService registers users and coordinates user deletion together
// with the cascade over their accounts.
type UserCommandService struct {
	docs      *repository.DocumentRepository
	accounts  *AccountCommandService
	publisher EventPublisher
}

func NewUserCommandService(
	docs *repository.DocumentRepository,
	accounts *AccountCommandService,
	publisher EventPublisher,
) *UserCommandService {
	return &UserCommandService{
		docs:      docs,
		accounts:  accounts,
		publisher: publisher,
	}
}

func (s *UserCommandService) RegisterUser(ctx context.Context, cmd cqrs.RegisterUserCommand) (*models.User, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, ledger.Fail(ledger.ValidationError, "Name is required.")
	}
	secretHash, err := utils.HashPassword(cmd.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	var user models.User
	err = s.docs.Update(ctx, func(doc *models.Document) error {
		if doc.FindUserByName(name) != nil {
			return ledger.Fail(ledger.UserExists, "User %s already exists.", name)
		}
		user = models.User{
			ID:         doc.AllocateUserID(),
			Name:       name,
			SecretHash: secretHash,
			CreatedAt:  time.Now().UTC(),
		}
		doc.Users = append(doc.Users, user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Name:   user.Name,
	}); err != nil {
		log.Printf("Failed to publish user.created event: %v", err)
	}
	return &user, nil
}

// DeleteUser verifies the secret, then removes the user and all of their
// accounts in one persisted snapshot. A wrong secret or unknown name changes
// nothing. Returns the number of accounts removed.
func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) (int, error) {
	var (
		userID  int64
		removed []models.Account
	)
	err := s.docs.Update(ctx, func(doc *models.Document) error {
		user := doc.FindUserByName(strings.TrimSpace(cmd.Name))
		if user == nil || !utils.CheckPassword(cmd.Secret, user.SecretHash) {
			return ledger.Fail(ledger.AuthorizationFailed, "Authorization failed: invalid credentials.")
		}
		userID = user.ID
		doc.RemoveUser(userID)
		removed = s.accounts.removeOwnerAccounts(ctx, doc, userID)
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("User %d deleted, %d accounts removed", userID, len(removed))
	s.accounts.publishCascade(ctx, removed)
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserDeleted, events.UserDeletedEvent{
		UserID:          userID,
		DeletedAccounts: len(removed),
	}); err != nil {
		log.Printf("Failed to publish user.deleted event: %v", err)
	}
	return len(removed), nil
}
