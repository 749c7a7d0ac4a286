package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	RegisterUser(context.Context, cqrs.RegisterUserCommand) (*models.User, error)
	DeleteUser(context.Context, cqrs.DeleteUserCommand) (int, error)
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	Login(context.Context, cqrs.LoginQuery) (string, error)
	ListUsers(context.Context) ([]models.UserView, error)
	Snapshot(context.Context) (*models.SnapshotView, error)
}

// UserHandler routes user requests to the command or query service.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type CredentialsRequest struct {
	Name   string `json:"name" validate:"required"`
	Secret string `json:"secret" validate:"required"`
}

type RegisterUserRequest struct {
	Name   string `json:"name" validate:"required"`
	Secret string `json:"secret" validate:"required,min=8"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

type DeleteUserResponse struct {
	DeletedAccounts int `json:"deletedAccounts"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.RegisterUser(c.Request.Context(), cqrs.RegisterUserCommand{
		Name:   req.Name,
		Secret: req.Secret,
	})
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusCreated, "User created", models.ToUserView(*user))
}

func (h *UserHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	token, err := h.queries.Login(c.Request.Context(), cqrs.LoginQuery{
		Name:   req.Name,
		Secret: req.Secret,
	})
	if err != nil {
		if ledger.IsKind(err, ledger.AuthorizationFailed) {
			middleware.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondWithFailure(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, "Login successful", AuthResponse{Token: token})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.queries.ListUsers(c.Request.Context())
	if err != nil {
		respondWithFailure(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, "", users)
}

// DeleteUser removes the user named in the body, and all of their accounts,
// once the secret checks out.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	deleted, err := h.commands.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{
		Name:   req.Name,
		Secret: req.Secret,
	})
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	middleware.RespondWithData(c, http.StatusOK, "User deleted", DeleteUserResponse{DeletedAccounts: deleted})
}

func (h *UserHandler) Health(c *gin.Context) {
	middleware.RespondWithData(c, http.StatusOK, "API is running", nil)
}

// Snapshot serves the database viewer: the whole store without credentials.
func (h *UserHandler) Snapshot(c *gin.Context) {
	view, err := h.queries.Snapshot(c.Request.Context())
	if err != nil {
		respondWithFailure(c, err)
		return
	}
	middleware.RespondWithData(c, http.StatusOK, "", view)
}
