package domain

import (
	"errors"
	"fmt"
)

// Store-level errors returned by repository implementations.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrConflict    = errors.New("resource already exists")
	ErrUnavailable = errors.New("backend unavailable")
)

// ErrorKind classifies failures of the review operations.
type ErrorKind string

const (
	KindUnauthenticated          ErrorKind = "unauthenticated"
	KindPermissionDenied         ErrorKind = "permission_denied"
	KindInvalidPayload           ErrorKind = "invalid_payload"
	KindApplicationNotFound      ErrorKind = "application_not_found"
	KindInvalidTransition        ErrorKind = "invalid_transition"
	KindMembershipCreationFailed ErrorKind = "membership_creation_failed"
	KindRoleUpdateFailed         ErrorKind = "role_update_failed"
	KindShopRecordCreationFailed ErrorKind = "shop_record_creation_failed"
	KindStatusUpdateFailed       ErrorKind = "status_update_failed"
	KindInternal                 ErrorKind = "internal"
)

// ApprovalError is the error type returned by the approval service.
// Err holds the originating store error, if any.
type ApprovalError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ApprovalError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ApprovalError) Unwrap() error { return e.Err }

// Is matches any ApprovalError of the same kind, so the sentinels below work with errors.Is.
func (e *ApprovalError) Is(target error) bool {
	t, ok := target.(*ApprovalError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated          = &ApprovalError{Kind: KindUnauthenticated}
	ErrPermissionDenied         = &ApprovalError{Kind: KindPermissionDenied}
	ErrInvalidPayload           = &ApprovalError{Kind: KindInvalidPayload}
	ErrApplicationNotFound      = &ApprovalError{Kind: KindApplicationNotFound}
	ErrInvalidTransition        = &ApprovalError{Kind: KindInvalidTransition}
	ErrMembershipCreationFailed = &ApprovalError{Kind: KindMembershipCreationFailed}
	ErrRoleUpdateFailed         = &ApprovalError{Kind: KindRoleUpdateFailed}
	ErrShopRecordCreationFailed = &ApprovalError{Kind: KindShopRecordCreationFailed}
	ErrStatusUpdateFailed       = &ApprovalError{Kind: KindStatusUpdateFailed}
)

// NewError builds an ApprovalError of the given kind.
func NewError(kind ErrorKind, message string, cause error) *ApprovalError {
	return &ApprovalError{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of err, or KindInternal when err is not an ApprovalError.
func KindOf(err error) ErrorKind {
	var ae *ApprovalError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
