package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Balances and rates travel as JSON numbers, both on the wire and in the stored document.
	decimal.MarshalJSONWithoutQuotes = true
}

// AccountType selects the shape of an account's monthly records.
type AccountType string

const (
	AccountTypeSaving AccountType = "SAVING"
	AccountTypeLoan   AccountType = "LOAN"
)

type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	SecretHash string    `json:"secretHash"`
	CreatedAt  time.Time `json:"createdTimestamp"`
}

type Account struct {
	ID             int64           `json:"id"`
	OwnerID        int64           `json:"ownerId"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	MonthlyHistory []MonthlyRecord `json:"monthlyHistory"`
}

// MonthlyRecord is one month of an account's ledger. InterestRate and TermsLeft
// are only ever set on loan accounts.
type MonthlyRecord struct {
	MonthKey       string           `json:"monthKey"`
	OpeningBalance decimal.Decimal  `json:"openingBalance"`
	Contribution   decimal.Decimal  `json:"contribution"`
	InterestRate   *decimal.Decimal `json:"interestRate,omitempty"`
	TermsLeft      *int             `json:"termsLeft,omitempty"`
	ClosingBalance decimal.Decimal  `json:"closingBalance"`
	ExchangeRate   decimal.Decimal  `json:"exchangeRate"`
}

// MonthlyFields is the set of values submitted for one month. Which members
// are read depends on the account type.
type MonthlyFields struct {
	OpeningBalance decimal.Decimal
	Contribution   decimal.Decimal
	ClosingBalance decimal.Decimal
	ExchangeRate   *decimal.Decimal
	InterestRate   *decimal.Decimal
	TermsLeft      *int
}
