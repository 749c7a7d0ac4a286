package cqrs

import "github.com/eaglebank/ledger/shared/models"

type RegisterUserCommand struct {
	Name   string
	Secret string
}

// DeleteUserCommand removes a user and every account they own once Secret
// matches the stored credential.
type DeleteUserCommand struct {
	Name   string
	Secret string
}

type CreateAccountCommand struct {
	OwnerID     int64
	Name        string
	AccountType models.AccountType
}

type UpdateMonthlyHistoryCommand struct {
	AccountID int64
	MonthKey  string
	Fields    models.MonthlyFields
}

type DeleteAccountCommand struct {
	AccountID        int64
	RequestingUserID int64
}
