package domain

import (
	"errors"
	"fmt"
)

// --- ERREURS DU DOMAINE ---
var (
	ErrSourceUnavailable = errors.New("content source unavailable")
	ErrSchemaMismatch    = errors.New("source schema mismatch")
	ErrRateLimited       = errors.New("rate limited")
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidCursor     = errors.New("invalid cursor")
	ErrGraphUnavailable  = errors.New("social graph unavailable")
)

// SourceError porte le nom de la source en échec.
// errors.Is fonctionne à la fois sur ErrSourceUnavailable et sur la cause.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}
