package command

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type publishedEvent struct {
	stream    string
	eventType string
	data      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, stream, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{stream: stream, eventType: eventType, data: data})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

// CommandTestSuite runs the command services against a file store in a
// temporary directory with the Redis read model disabled.
type CommandTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *repository.FileStore
	docs      *repository.DocumentRepository
	publisher *recordingPublisher
	accounts  *AccountCommandService
	users     *UserCommandService
}

func (s *CommandTestSuite) SetupTest() {
	store, err := repository.NewFileStore(filepath.Join(s.T().TempDir(), "db.json"))
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.store = store
	s.docs = repository.NewDocumentRepository(store)
	s.publisher = &recordingPublisher{}
	readRepo := repository.NewAccountReadRepository(s.docs, nil)
	s.accounts = NewAccountCommandService(s.docs, readRepo, s.publisher)
	s.users = NewUserCommandService(s.docs, s.accounts, s.publisher)
}

func (s *CommandTestSuite) load() *models.Document {
	doc, err := s.store.Load(s.ctx)
	s.Require().NoError(err)
	return doc
}

func (s *CommandTestSuite) createAccount(ownerID int64, name string, typ models.AccountType) *models.Account {
	account, err := s.accounts.CreateAccount(s.ctx, cqrs.CreateAccountCommand{OwnerID: ownerID, Name: name, AccountType: typ})
	s.Require().NoError(err)
	return account
}

func (s *CommandTestSuite) registerUser(name, secret string) *models.User {
	user, err := s.users.RegisterUser(s.ctx, cqrs.RegisterUserCommand{Name: name, Secret: secret})
	s.Require().NoError(err)
	return user
}

func TestCommandTestSuite(t *testing.T) {
	suite.Run(t, new(CommandTestSuite))
}

// ---- accounts ----

func (s *CommandTestSuite) TestCreateAccountPersists() {
	account := s.createAccount(7, "Holiday Fund", models.AccountTypeSaving)

	s.Equal(int64(1), account.ID)
	s.Equal("Holiday Fund", account.Name)
	s.NotNil(account.MonthlyHistory)
	s.Empty(account.MonthlyHistory)

	doc := s.load()
	s.Require().Len(doc.Accounts, 1)
	s.Equal(int64(7), doc.Accounts[0].OwnerID)
	s.Equal([]string{events.AccountCreated}, s.publisher.types())
}

func (s *CommandTestSuite) TestCreateAccountAllocatesDistinctIDs() {
	first := s.createAccount(7, "Holiday Fund", models.AccountTypeSaving)
	second := s.createAccount(7, "Mortgage Loan", models.AccountTypeLoan)
	s.NotEqual(first.ID, second.ID)
}

func (s *CommandTestSuite) TestCreateAccountRejectsDuplicateName() {
	s.createAccount(7, "Holiday Fund", models.AccountTypeSaving)

	for _, name := range []string{"Holiday Fund", "holiday fund", "  HOLIDAY FUND  "} {
		_, err := s.accounts.CreateAccount(s.ctx, cqrs.CreateAccountCommand{OwnerID: 7, Name: name, AccountType: models.AccountTypeLoan})
		s.True(ledger.IsKind(err, ledger.DuplicateAccountName), "name %q: %v", name, err)
	}
	s.Len(s.load().Accounts, 1)
}

func (s *CommandTestSuite) TestCreateAccountSameNameOtherOwner() {
	s.createAccount(7, "Holiday Fund", models.AccountTypeSaving)
	s.createAccount(8, "Holiday Fund", models.AccountTypeSaving)
	s.Len(s.load().Accounts, 2)
}

func (s *CommandTestSuite) TestCreateAccountRejectsUnsupportedType() {
	_, err := s.accounts.CreateAccount(s.ctx, cqrs.CreateAccountCommand{OwnerID: 7, Name: "Everyday", AccountType: "CHECKING"})
	s.True(ledger.IsKind(err, ledger.UnsupportedAccountType))
	s.Empty(s.load().Accounts)
	s.Empty(s.publisher.types())
}

func (s *CommandTestSuite) TestUpdateMonthlyHistory() {
	account := s.createAccount(7, "Holiday Fund", models.AccountTypeSaving)
	fields := models.MonthlyFields{
		OpeningBalance: decimal.NewFromInt(100),
		Contribution:   decimal.NewFromInt(50),
		ClosingBalance: decimal.NewFromInt(150),
	}

	record, outcome, err := s.accounts.UpdateMonthlyHistory(s.ctx, cqrs.UpdateMonthlyHistoryCommand{AccountID: account.ID, MonthKey: "2024-01", Fields: fields})
	s.Require().NoError(err)
	s.Equal(ledger.Created, outcome)
	s.True(record.ExchangeRate.Equal(decimal.NewFromInt(1)))

	fields.ClosingBalance = decimal.NewFromInt(175)
	_, outcome, err = s.accounts.UpdateMonthlyHistory(s.ctx, cqrs.UpdateMonthlyHistoryCommand{AccountID: account.ID, MonthKey: "2024-01", Fields: fields})
	s.Require().NoError(err)
	s.Equal(ledger.Updated, outcome)

	_, _, err = s.accounts.UpdateMonthlyHistory(s.ctx, cqrs.UpdateMonthlyHistoryCommand{AccountID: account.ID, MonthKey: "2023-12", Fields: fields})
	s.Require().NoError(err)

	stored := s.load().FindAccount(account.ID)
	s.Require().NotNil(stored)
	s.Require().Len(stored.MonthlyHistory, 2)
	s.Equal("2023-12", stored.MonthlyHistory[0].MonthKey)
	s.Equal("2024-01", stored.MonthlyHistory[1].MonthKey)
	s.True(stored.MonthlyHistory[1].ClosingBalance.Equal(decimal.NewFromInt(175)))
}

func (s *CommandTestSuite) TestUpdateMonthlyHistoryUnknownAccount() {
	_, _, err := s.accounts.UpdateMonthlyHistory(s.ctx, cqrs.UpdateMonthlyHistoryCommand{AccountID: 404, MonthKey: "2024-01"})
	s.True(ledger.IsKind(err, ledger.AccountNotFound))
}

func (s *CommandTestSuite) TestUpdateMonthlyHistoryLoanValidationKeepsStore() {
	account := s.createAccount(7, "Mortgage Loan", models.AccountTypeLoan)
	before := s.load().Version

	_, _, err := s.accounts.UpdateMonthlyHistory(s.ctx, cqrs.UpdateMonthlyHistoryCommand{
		AccountID: account.ID,
		MonthKey:  "2024-01",
		Fields:    models.MonthlyFields{OpeningBalance: decimal.NewFromInt(1000)},
	})
	s.True(ledger.IsKind(err, ledger.ValidationError))

	doc := s.load()
	s.Equal(before, doc.Version)
	s.Empty(doc.FindAccount(account.ID).MonthlyHistory)
}

func (s *CommandTestSuite) TestDeleteAccount() {
	account := s.createAccount(7, "Holiday Fund", models.AccountTypeSaving)

	err := s.accounts.DeleteAccount(s.ctx, cqrs.DeleteAccountCommand{AccountID: account.ID, RequestingUserID: 7})
	s.Require().NoError(err)
	s.Empty(s.load().Accounts)
}

func (s *CommandTestSuite) TestDeleteAccountOtherOwner() {
	account := s.createAccount(7, "Holiday Fund", models.AccountTypeSaving)

	err := s.accounts.DeleteAccount(s.ctx, cqrs.DeleteAccountCommand{AccountID: account.ID, RequestingUserID: 8})
	s.True(ledger.IsKind(err, ledger.AuthorizationFailed))
	s.Len(s.load().Accounts, 1)
}

func (s *CommandTestSuite) TestDeleteAccountNotFound() {
	err := s.accounts.DeleteAccount(s.ctx, cqrs.DeleteAccountCommand{AccountID: 404, RequestingUserID: 7})
	s.True(ledger.IsKind(err, ledger.NotFound))
}

func (s *CommandTestSuite) TestDeleteAllUserAccounts() {
	s.createAccount(7, "Holiday Fund", models.AccountTypeSaving)
	s.createAccount(7, "Mortgage Loan", models.AccountTypeLoan)
	kept := s.createAccount(8, "Holiday Fund", models.AccountTypeSaving)

	removed, err := s.accounts.DeleteAllUserAccounts(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(2, removed)

	doc := s.load()
	s.Require().Len(doc.Accounts, 1)
	s.Equal(kept.ID, doc.Accounts[0].ID)
}

func (s *CommandTestSuite) TestDeleteAllUserAccountsNoMatches() {
	removed, err := s.accounts.DeleteAllUserAccounts(s.ctx, 99)
	s.Require().NoError(err)
	s.Zero(removed)
}

// ---- users ----

func (s *CommandTestSuite) TestRegisterUser() {
	user := s.registerUser("  alice ", "correct-horse")

	s.Equal("alice", user.Name)
	s.NotEqual("correct-horse", user.SecretHash)
	s.False(user.CreatedAt.IsZero())
	s.NotNil(s.load().FindUserByName("alice"))
}

func (s *CommandTestSuite) TestRegisterUserRejectsDuplicate() {
	s.registerUser("alice", "correct-horse")
	_, err := s.users.RegisterUser(s.ctx, cqrs.RegisterUserCommand{Name: "alice", Secret: "another-one"})
	s.True(ledger.IsKind(err, ledger.UserExists))
}

func (s *CommandTestSuite) TestDeleteUserCascadesAccounts() {
	alice := s.registerUser("alice", "correct-horse")
	bob := s.registerUser("bob", "battery-staple")
	s.createAccount(alice.ID, "Holiday Fund", models.AccountTypeSaving)
	s.createAccount(alice.ID, "Mortgage Loan", models.AccountTypeLoan)
	s.createAccount(bob.ID, "Holiday Fund", models.AccountTypeSaving)

	removed, err := s.users.DeleteUser(s.ctx, cqrs.DeleteUserCommand{Name: "alice", Secret: "correct-horse"})
	s.Require().NoError(err)
	s.Equal(2, removed)

	doc := s.load()
	s.Nil(doc.FindUserByName("alice"))
	s.Empty(doc.AccountsByOwner(alice.ID))
	s.Len(doc.AccountsByOwner(bob.ID), 1)
	s.Contains(s.publisher.types(), events.UserDeleted)
}

func (s *CommandTestSuite) TestDeleteUserWrongSecretChangesNothing() {
	alice := s.registerUser("alice", "correct-horse")
	s.createAccount(alice.ID, "Holiday Fund", models.AccountTypeSaving)
	before := s.load().Version

	_, err := s.users.DeleteUser(s.ctx, cqrs.DeleteUserCommand{Name: "alice", Secret: "wrong"})
	s.True(ledger.IsKind(err, ledger.AuthorizationFailed))

	doc := s.load()
	s.Equal(before, doc.Version)
	s.NotNil(doc.FindUserByName("alice"))
	s.Len(doc.AccountsByOwner(alice.ID), 1)
}

func (s *CommandTestSuite) TestDeleteUserWithPaddedName() {
	s.registerUser(" alice ", "correct-horse")

	_, err := s.users.DeleteUser(s.ctx, cqrs.DeleteUserCommand{Name: " alice ", Secret: "correct-horse"})
	s.Require().NoError(err)
	s.Nil(s.load().FindUserByName("alice"))
}

func (s *CommandTestSuite) TestDeleteUnknownUser() {
	_, err := s.users.DeleteUser(s.ctx, cqrs.DeleteUserCommand{Name: "nobody", Secret: "whatever"})
	s.True(ledger.IsKind(err, ledger.AuthorizationFailed))
}
