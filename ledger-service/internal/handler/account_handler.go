package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.Account, error)
	UpdateMonthlyHistory(context.Context, cqrs.UpdateMonthlyHistoryCommand) (*models.MonthlyRecord, ledger.Outcome, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	ListAccounts(context.Context, cqrs.ListAccountsQuery) ([]models.Account, error)
	ListUserAccounts(context.Context, cqrs.ListUserAccountsQuery) ([]models.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

type CreateAccountRequest struct {
	OwnerID *int64 `json:"ownerId" validate:"omitempty,gt=0"`
	Name    string `json:"name" validate:"required,min=6"`
	Type    string `json:"type" validate:"required,oneof=SAVING LOAN"`
}

type UpdateHistoryRequest struct {
	AccountID      int64            `json:"accountId" validate:"required,gt=0"`
	MonthKey       string           `json:"monthKey" validate:"required,datetime=2006-01"`
	OpeningBalance *decimal.Decimal `json:"openingBalance" validate:"required"`
	Contribution   *decimal.Decimal `json:"contribution" validate:"required"`
	InterestRate   *decimal.Decimal `json:"interestRate"`
	TermsLeft      *int             `json:"termsLeft" validate:"omitempty,gte=0"`
	ClosingBalance *decimal.Decimal `json:"closingBalance" validate:"required"`
	ExchangeRate   *decimal.Decimal `json:"exchangeRate"`
}

type DeleteAccountRequest struct {
	OwnerID *int64 `json:"ownerId" validate:"omitempty,gt=0"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

// resolveOwner picks the owner a request acts for: the body ownerId when sent,
// otherwise the authenticated user. A body ownerId naming someone other than
// the authenticated user is refused. It writes the error response itself.
func resolveOwner(c *gin.Context, fromBody *int64) (int64, bool) {
	userID, authenticated := middleware.GetUserID(c)
	if fromBody == nil {
		if !authenticated {
			middleware.RespondWithError(c, http.StatusBadRequest, "ownerId is required")
		}
		return userID, authenticated
	}
	if authenticated && *fromBody != userID {
		middleware.RespondWithError(c, http.StatusForbidden, "Authorization failed: ownerId does not match the authenticated user.")
		return 0, false
	}
	return *fromBody, true
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}
	ownerID, ok := resolveOwner(c, req.OwnerID)
	if !ok {
		return
	}

	account, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		OwnerID:     ownerID,
		Name:        req.Name,
		AccountType: models.AccountType(req.Type),
	})
	if err != nil {
		if f, ok := ledger.AsFailure(err); ok && f.Kind == ledger.DuplicateAccountName {
			respondSoftFailure(c, f.Message)
			return
		}
		respondWithFailure(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusCreated, "Account created", account.ID)
}

func (h *AccountHandler) UpdateMonthlyHistory(c *gin.Context) {
	var req UpdateHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	record, outcome, err := h.commands.UpdateMonthlyHistory(c.Request.Context(), cqrs.UpdateMonthlyHistoryCommand{
		AccountID: req.AccountID,
		MonthKey:  req.MonthKey,
		Fields: models.MonthlyFields{
			OpeningBalance: *req.OpeningBalance,
			Contribution:   *req.Contribution,
			ClosingBalance: *req.ClosingBalance,
			ExchangeRate:   req.ExchangeRate,
			InterestRate:   req.InterestRate,
			TermsLeft:      req.TermsLeft,
		},
	})
	if err != nil {
		if ledger.IsKind(err, ledger.AccountNotFound) {
			respondSoftFailure(c, "Account history not updated")
			return
		}
		respondWithFailure(c, err)
		return
	}

	message := "Account history updated"
	if outcome == ledger.Created {
		message = "Account history created"
	}
	middleware.RespondWithData(c, http.StatusCreated, message, record)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	accountID, ok := paramID(c, "accountId")
	if !ok {
		return
	}
	// The body is optional here.
	var req DeleteAccountRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}
	ownerID, ok := resolveOwner(c, req.OwnerID)
	if !ok {
		return
	}

	err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{
		AccountID:        accountID,
		RequestingUserID: ownerID,
	})
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, fmt.Sprintf("Account ID %d successfully deleted.", accountID), nil)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.queries.ListAccounts(c.Request.Context(), cqrs.ListAccountsQuery{})
	if err != nil {
		respondWithFailure(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, "", accounts)
}

func (h *AccountHandler) ListUserAccounts(c *gin.Context) {
	ownerID, ok := paramID(c, "ownerId")
	if !ok {
		return
	}

	accounts, err := h.queries.ListUserAccounts(c.Request.Context(), cqrs.ListUserAccountsQuery{OwnerID: ownerID})
	if err != nil {
		respondWithFailure(c, err)
		return
	}
	if len(accounts) == 0 {
		middleware.RespondWithData(c, http.StatusOK, fmt.Sprintf("No accounts found for owner ID %d.", ownerID), []models.Account{})
		return
	}
	middleware.RespondWithData(c, http.StatusOK, fmt.Sprintf("Accounts returned for owner ID %d.", ownerID), accounts)
}
