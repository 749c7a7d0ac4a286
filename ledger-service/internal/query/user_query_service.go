package query

import (
	"context"
	"strings"

	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
)

// UserQueryService handles login and user listing. Login lives on the query
// side because it does not mutate the store.
type UserQueryService struct {
	docs   *repository.DocumentRepository
	tokens *middleware.TokenIssuer
}

func NewUserQueryService(docs *repository.DocumentRepository, tokens *middleware.TokenIssuer) *UserQueryService {
	return &UserQueryService{docs: docs, tokens: tokens}
}

func (s *UserQueryService) Login(ctx context.Context, q cqrs.LoginQuery) (string, error) {
	var user *models.User
	err := s.docs.View(ctx, func(doc *models.Document) error {
		if u := doc.FindUserByName(strings.TrimSpace(q.Name)); u != nil {
			found := *u
			user = &found
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if user == nil || !utils.CheckPassword(q.Secret, user.SecretHash) {
		return "", ledger.Fail(ledger.AuthorizationFailed, "Invalid credentials.")
	}
	return s.tokens.Issue(user.ID, user.Name)
}

func (s *UserQueryService) ListUsers(ctx context.Context) ([]models.UserView, error) {
	var users []models.UserView
	err := s.docs.View(ctx, func(doc *models.Document) error {
		users = make([]models.UserView, 0, len(doc.Users))
		for _, u := range doc.Users {
			users = append(users, models.ToUserView(u))
		}
		return nil
	})
	return users, err
}

// Snapshot returns the whole store with credentials stripped.
func (s *UserQueryService) Snapshot(ctx context.Context) (*models.SnapshotView, error) {
	var view *models.SnapshotView
	err := s.docs.View(ctx, func(doc *models.Document) error {
		view = models.ToSnapshotView(doc)
		return nil
	})
	return view, err
}
