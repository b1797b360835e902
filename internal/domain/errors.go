package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Callers compare with errors.Is.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
)

// Query-composer errors. Each wraps ErrBadRequest so callers can match the
// specific rule or the general class.
var (
	ErrInvalidFilter            = fmt.Errorf("%w: filter contains invalid field or operator", ErrBadRequest)
	ErrMultipleInequalityFields = fmt.Errorf("%w: inequality filter is allowed on only one field", ErrBadRequest)
	ErrInequalityNotAllowed     = fmt.Errorf("%w: inequality filter not allowed on this field", ErrBadRequest)
	ErrDuplicateField           = fmt.Errorf("%w: cannot query multiple filters on one field", ErrBadRequest)
	ErrQueryTooComplex          = fmt.Errorf("%w: query too complex", ErrBadRequest)
)

// ErrTransient marks a failure that is worth a single retry, such as an
// index write hitting a momentary outage.
var ErrTransient = errors.New("transient failure")
