package handler

import (
	"net/http"
	"strconv"

	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/gin-gonic/gin"
)

// failureStatus maps a business failure onto the HTTP status the boundary
// reports for it.
func failureStatus(kind ledger.FailureKind) int {
	switch kind {
	case ledger.NotFound, ledger.AccountNotFound:
		return http.StatusNotFound
	case ledger.AuthorizationFailed:
		return http.StatusForbidden
	case ledger.DuplicateAccountName, ledger.UserExists:
		return http.StatusConflict
	case ledger.ValidationError, ledger.UnsupportedAccountType:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// respondWithFailure answers business failures with their own message and
// hides everything else behind a generic 500.
func respondWithFailure(c *gin.Context, err error) {
	if f, ok := ledger.AsFailure(err); ok {
		middleware.RespondWithError(c, failureStatus(f.Kind), f.Message)
		return
	}
	_ = c.Error(err)
	middleware.RespondWithError(c, http.StatusInternalServerError, "Internal Server Error")
}

// respondSoftFailure keeps the observed behaviour of some endpoints: the
// request is acknowledged with 201 and success=false.
func respondSoftFailure(c *gin.Context, message string) {
	c.JSON(http.StatusCreated, middleware.Envelope{Success: false, Message: message, Data: nil})
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	middleware.RespondWithError(c, http.StatusNotFound, "Endpoint not found")
}
