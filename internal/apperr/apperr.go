package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping and caller retry policy.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindConflict
	KindNotFound
)

// Error is a machine-readable application error. Code is stable and is what
// API clients switch on; Message is for humans.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Claim arbiter conflicts. Each one means "refresh and retry against new
// state", never "the write may have half-applied".
var (
	ErrAlreadyClaimed  = New(KindConflict, "ALREADY_CLAIMED", "session is already claimed by another host")
	ErrSessionStarted  = New(KindConflict, "SESSION_STARTED", "session has already started")
	ErrSlotTaken       = New(KindConflict, "SLOT_TAKEN", "slot is already taken")
	ErrAlreadyAssigned = New(KindConflict, "ALREADY_ASSIGNED", "user already holds a slot on this session")
	ErrSlotOutOfRange  = New(KindValidation, "SLOT_OUT_OF_RANGE", "slot index is out of range")
	ErrNotOwner        = New(KindConflict, "NOT_OWNER", "session is not claimed by this user")
	ErrSessionEnded    = New(KindConflict, "SESSION_ENDED", "session has already ended")
	ErrNotAssignee     = New(KindConflict, "NOT_ASSIGNEE", "slot is not claimed by this user")
)

// Activity tracker outcomes.
var (
	ErrAlreadyActive   = New(KindConflict, "ALREADY_ACTIVE", "activity session already initialized")
	ErrNoActiveSession = New(KindConflict, "NO_ACTIVE_SESSION", "no active activity session found")
)

var (
	ErrForbidden = New(KindForbidden, "FORBIDDEN", "missing required role or permission")
	ErrNotFound  = New(KindNotFound, "NOT_FOUND", "resource not found")
)

// KindOf returns the Kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of err, or "INTERNAL" for untyped errors.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "INTERNAL"
}

// HTTPStatus maps an error kind to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
