package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRepository(t *testing.T) *repository.DocumentRepository {
	t.Helper()
	store, err := repository.NewFileStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	docs := repository.NewDocumentRepository(store)

	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)

	err = docs.Update(context.Background(), func(doc *models.Document) error {
		doc.Users = append(doc.Users, models.User{ID: doc.AllocateUserID(), Name: "alice", SecretHash: hash, CreatedAt: time.Now().UTC()})
		doc.Accounts = append(doc.Accounts,
			models.Account{ID: doc.AllocateAccountID(), OwnerID: 1, Name: "HOLIDAY FUND", Type: models.AccountTypeSaving, MonthlyHistory: []models.MonthlyRecord{}},
			models.Account{ID: doc.AllocateAccountID(), OwnerID: 2, Name: "MORTGAGE LOAN", Type: models.AccountTypeLoan, MonthlyHistory: []models.MonthlyRecord{}},
			models.Account{ID: doc.AllocateAccountID(), OwnerID: 1, Name: "RAINY DAY", Type: models.AccountTypeSaving, MonthlyHistory: []models.MonthlyRecord{}},
		)
		return nil
	})
	require.NoError(t, err)
	return docs
}

func TestListAccountsInStoreOrder(t *testing.T) {
	svc := NewAccountQueryService(repository.NewAccountReadRepository(seededRepository(t), nil))

	accounts, err := svc.ListAccounts(context.Background(), cqrs.ListAccountsQuery{})
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{accounts[0].ID, accounts[1].ID, accounts[2].ID})
}

func TestListUserAccounts(t *testing.T) {
	svc := NewAccountQueryService(repository.NewAccountReadRepository(seededRepository(t), nil))
	ctx := context.Background()

	accounts, err := svc.ListUserAccounts(ctx, cqrs.ListUserAccountsQuery{OwnerID: 1})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "HOLIDAY FUND", accounts[0].Name)
	assert.Equal(t, "RAINY DAY", accounts[1].Name)

	none, err := svc.ListUserAccounts(ctx, cqrs.ListUserAccountsQuery{OwnerID: 42})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestHandleAccountEvent(t *testing.T) {
	svc := NewAccountQueryService(repository.NewAccountReadRepository(seededRepository(t), nil))
	ctx := context.Background()

	assert.NoError(t, svc.HandleAccountEvent(ctx, events.Event{
		Type: events.AccountDeleted,
		Data: map[string]any{"accountId": 1, "ownerId": 1},
	}))
	assert.NoError(t, svc.HandleAccountEvent(ctx, events.Event{Type: events.UserCreated, Data: "ignored"}))
	assert.Error(t, svc.HandleAccountEvent(ctx, events.Event{
		Type: events.AccountCreated,
		Data: map[string]any{"ownerId": "not-a-number"},
	}))
}

func TestHandleAccountEventDropsCachedList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	svc := NewAccountQueryService(repository.NewAccountReadRepository(seededRepository(t), client))
	ctx := context.Background()

	for _, eventType := range []string{events.AccountCreated, events.AccountHistoryUpdated, events.AccountDeleted} {
		t.Run(eventType, func(t *testing.T) {
			accounts, err := svc.ListUserAccounts(ctx, cqrs.ListUserAccountsQuery{OwnerID: 1})
			require.NoError(t, err)
			require.Len(t, accounts, 2)
			require.True(t, mr.Exists("accounts:owner:1"))

			require.NoError(t, svc.HandleAccountEvent(ctx, events.Event{
				Type: eventType,
				Data: map[string]any{"accountId": 1, "ownerId": 1},
			}))
			assert.False(t, mr.Exists("accounts:owner:1"))
		})
	}
}

func TestHandleAccountEventLeavesOtherOwners(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	svc := NewAccountQueryService(repository.NewAccountReadRepository(seededRepository(t), client))
	ctx := context.Background()

	_, err := svc.ListUserAccounts(ctx, cqrs.ListUserAccountsQuery{OwnerID: 2})
	require.NoError(t, err)

	require.NoError(t, svc.HandleAccountEvent(ctx, events.Event{
		Type: events.AccountDeleted,
		Data: map[string]any{"accountId": 1, "ownerId": 1},
	}))
	assert.True(t, mr.Exists("accounts:owner:2"))

	// Non-account events leave the cache alone.
	require.NoError(t, svc.HandleAccountEvent(ctx, events.Event{Type: events.UserDeleted, Data: map[string]any{"userId": 2}}))
	assert.True(t, mr.Exists("accounts:owner:2"))
}

func newUserQueryService(t *testing.T) (*UserQueryService, *middleware.TokenIssuer) {
	t.Helper()
	tokens, err := middleware.NewTokenIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	return NewUserQueryService(seededRepository(t), tokens), tokens
}

func TestLogin(t *testing.T) {
	svc, tokens := newUserQueryService(t)

	token, err := svc.Login(context.Background(), cqrs.LoginQuery{Name: "alice", Secret: "correct-horse"})
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "alice", claims.Name)
}

func TestLoginTrimsName(t *testing.T) {
	svc, tokens := newUserQueryService(t)

	token, err := svc.Login(context.Background(), cqrs.LoginQuery{Name: "  alice ", Secret: "correct-horse"})
	require.NoError(t, err)
	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Name)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newUserQueryService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, cqrs.LoginQuery{Name: "alice", Secret: "wrong"})
	assert.True(t, ledger.IsKind(err, ledger.AuthorizationFailed))

	_, err = svc.Login(ctx, cqrs.LoginQuery{Name: "nobody", Secret: "correct-horse"})
	assert.True(t, ledger.IsKind(err, ledger.AuthorizationFailed))
}

func TestListUsersAndSnapshot(t *testing.T) {
	svc, _ := newUserQueryService(t)
	ctx := context.Background()

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Name)

	view, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Version)
	assert.Len(t, view.Users, 1)
	assert.Len(t, view.Accounts, 3)
}
