// Package ledger maintains one account's monthly record history.
//
// A history holds at most one record per month key and is always sorted
// ascending by month key. "YYYY-MM" keys sort lexicographically in calendar
// order, so plain string comparison is enough.
package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
)

const MonthKeyLayout = "2006-01"

// Outcome reports whether Upsert created a record or overwrote one.
type Outcome int

const (
	Created Outcome = iota
	Updated
)

func (o Outcome) String() string {
	if o == Created {
		return "created"
	}
	return "updated"
}

// recordShape writes the fields carried by one account type. Every supported
// type has exactly one shape; shapeOf is the single place a new type is added.
type recordShape interface {
	validate(f models.MonthlyFields) error
	apply(rec *models.MonthlyRecord, f models.MonthlyFields)
}

type savingShape struct{}

func (savingShape) validate(models.MonthlyFields) error { return nil }

func (savingShape) apply(rec *models.MonthlyRecord, f models.MonthlyFields) {
	applyCommon(rec, f)
}

type loanShape struct{}

func (loanShape) validate(f models.MonthlyFields) error {
	if f.InterestRate == nil || f.TermsLeft == nil {
		return Fail(ValidationError, "interestRate and termsLeft are required for LOAN accounts.")
	}
	if *f.TermsLeft < 0 {
		return Fail(ValidationError, "termsLeft must not be negative.")
	}
	return nil
}

func (loanShape) apply(rec *models.MonthlyRecord, f models.MonthlyFields) {
	applyCommon(rec, f)
	rate := *f.InterestRate
	terms := *f.TermsLeft
	rec.InterestRate = &rate
	rec.TermsLeft = &terms
}

func applyCommon(rec *models.MonthlyRecord, f models.MonthlyFields) {
	rec.OpeningBalance = f.OpeningBalance
	rec.Contribution = f.Contribution
	rec.ClosingBalance = f.ClosingBalance
	rec.ExchangeRate = decimal.NewFromInt(1)
	if f.ExchangeRate != nil {
		rec.ExchangeRate = *f.ExchangeRate
	}
}

func shapeOf(t models.AccountType) (recordShape, error) {
	switch t {
	case models.AccountTypeSaving:
		return savingShape{}, nil
	case models.AccountTypeLoan:
		return loanShape{}, nil
	default:
		return nil, Fail(UnsupportedAccountType, "Account type %q is not supported.", string(t))
	}
}

// SupportsType reports whether records can be kept for accounts of type t.
func SupportsType(t models.AccountType) bool {
	_, err := shapeOf(t)
	return err == nil
}

// ValidateMonthKey checks the "YYYY-MM" form the ordering relies on.
func ValidateMonthKey(monthKey string) error {
	if len(monthKey) != len(MonthKeyLayout) {
		return Fail(ValidationError, "Month key %q must use the YYYY-MM format.", monthKey)
	}
	if _, err := time.Parse(MonthKeyLayout, monthKey); err != nil {
		return Fail(ValidationError, "Month key %q must use the YYYY-MM format.", monthKey)
	}
	return nil
}

// Upsert writes the month's record into account.MonthlyHistory, creating it
// when the month is new and overwriting only the type's fields otherwise, then
// restores the ordering. It returns a copy of the resulting record.
//
// On error the account is left untouched. Persisting the account is the
// caller's job.
func Upsert(account *models.Account, monthKey string, f models.MonthlyFields) (models.MonthlyRecord, Outcome, error) {
	shape, err := shapeOf(account.Type)
	if err != nil {
		return models.MonthlyRecord{}, Updated, err
	}
	if err := ValidateMonthKey(monthKey); err != nil {
		return models.MonthlyRecord{}, Updated, err
	}
	if err := shape.validate(f); err != nil {
		return models.MonthlyRecord{}, Updated, err
	}

	outcome := Updated
	idx := slices.IndexFunc(account.MonthlyHistory, func(r models.MonthlyRecord) bool {
		return r.MonthKey == monthKey
	})
	if idx == -1 {
		account.MonthlyHistory = append(account.MonthlyHistory, models.MonthlyRecord{MonthKey: monthKey})
		idx = len(account.MonthlyHistory) - 1
		outcome = Created
	}
	shape.apply(&account.MonthlyHistory[idx], f)
	record := account.MonthlyHistory[idx]

	Sort(account.MonthlyHistory)
	return record, outcome, nil
}

// Sort orders a history ascending by month key.
func Sort(history []models.MonthlyRecord) {
	slices.SortStableFunc(history, func(a, b models.MonthlyRecord) int {
		return strings.Compare(a.MonthKey, b.MonthKey)
	})
}
