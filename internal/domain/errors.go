package domain

import "errors"

// Kind classifies engine errors so HTTP handlers can map them to status
// codes without inspecting message text.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindForbidden   Kind = "forbidden"
	KindConflict    Kind = "conflict"
	KindRateLimited Kind = "rate_limited"
	KindInternal    Kind = "internal"
)

// Error - типизированная ошибка движка
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a typed error with the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError attaches a kind to an underlying error.
func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors are
// treated as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Shared sentinels. Compared with errors.Is, so они должны возвращаться
// как есть или через %w.
var (
	ErrRoomNotFound  = NewError(KindNotFound, "room not found")
	ErrMatchNotFound = NewError(KindNotFound, "match not found")

	ErrNotParty        = NewError(KindForbidden, "caller is not a party to this room")
	ErrAlreadyJoined   = NewError(KindConflict, "room already has a joiner")
	ErrActiveMatch     = NewError(KindConflict, "already has an active match")
	ErrMatchCompleted  = NewError(KindConflict, "match already completed")
	ErrMatchAbandoned  = NewError(KindConflict, "match already abandoned")
	ErrInvalidMatch    = NewError(KindConflict, "invalid match state")
	ErrAbandonThrottle = NewError(KindRateLimited, "excessive abandonment patterns")
)
