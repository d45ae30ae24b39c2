package domain

import "errors"

var (
	// ErrInvalidValue indicates malformed or out-of-domain input.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnknownRole indicates a role key outside the configured enumeration.
	ErrUnknownRole = errors.New("unknown role")
	// ErrRoleTaken indicates the role is bound to a different identity.
	ErrRoleTaken = errors.New("role already taken")
	// ErrAlreadyRegistered indicates the identity is bound to a different role.
	ErrAlreadyRegistered = errors.New("identity already registered")
	// ErrDuplicateForDay indicates an entry for the role and day already exists.
	ErrDuplicateForDay = errors.New("entry already exists for day")
	// ErrPositionNotFound indicates a correction target that no longer exists.
	ErrPositionNotFound = errors.New("entry not found")
	// ErrNotRegistered indicates an identity that holds no role.
	ErrNotRegistered = errors.New("identity not registered")
	// ErrPersistence wraps failures reading or writing the document.
	ErrPersistence = errors.New("persistence failure")
)

// ErrorKind groups errors by how callers should react to them.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Persistence wins over anything it wraps.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case errors.Is(err, ErrInvalidValue):
		return KindValidation
	case errors.Is(err, ErrRoleTaken), errors.Is(err, ErrAlreadyRegistered), errors.Is(err, ErrDuplicateForDay):
		return KindConflict
	case errors.Is(err, ErrUnknownRole), errors.Is(err, ErrPositionNotFound), errors.Is(err, ErrNotRegistered):
		return KindNotFound
	default:
		return KindUnknown
	}
}
