package ledger

import (
	"errors"
	"fmt"
)

// FailureKind classifies an expected business failure.
type FailureKind string

const (
	ValidationError        FailureKind = "ValidationError"
	DuplicateAccountName   FailureKind = "DuplicateAccountName"
	AccountNotFound        FailureKind = "AccountNotFound"
	NotFound               FailureKind = "NotFound"
	UnsupportedAccountType FailureKind = "UnsupportedAccountType"
	AuthorizationFailed    FailureKind = "AuthorizationFailed"
	UserExists             FailureKind = "UserExists"
)

// Failure is the structured result of an operation that was refused for a
// business reason. Nothing is persisted when one is returned. Any other error
// reaching a caller is unexpected (store or I/O).
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string { return f.Message }

func Fail(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsFailure unwraps err into a *Failure when it is one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func IsKind(err error, kind FailureKind) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == kind
}
