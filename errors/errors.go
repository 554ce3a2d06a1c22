// Package errors provides error handling for ontomap.
//
// It re-exports github.com/cockroachdb/errors so every package gets stack
// traces, wrapping and user hints from a single import:
//
//	if err := loader.Load(ctx, target); err != nil {
//	    return errors.Wrapf(err, "load ontology %s", target)
//	}
//
//	return errors.WithHint(err, "pass --bioportal-apikey or set ONTOMAP_BIOPORTAL_API_KEY")
//
// Sentinels below are matched with errors.Is and survive wrapping.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New           = crdb.New
	Newf          = crdb.Newf
	Wrap          = crdb.Wrap
	Wrapf         = crdb.Wrapf
	WithStack     = crdb.WithStack
	WithMessage   = crdb.WithMessage
	WithMessagef  = crdb.WithMessagef
	Mark          = crdb.Mark
	CombineErrors = crdb.CombineErrors
)

// User-facing hints and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// GetStack returns the reportable stack trace attached to err, if any.
var GetStack = crdb.GetReportableStackTrace

// Sentinel errors shared across packages.
var (
	// ErrNotFound indicates the requested ontology, term or cache entry does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates malformed options or input
	ErrInvalidRequest = New("invalid request")

	// ErrServiceUnavailable indicates a remote service (Zooma, BioPortal, bioregistry) failed
	ErrServiceUnavailable = New("service unavailable")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = New("operation timed out")

	// ErrCacheMiss indicates a cached ontology could not be read
	ErrCacheMiss = New("cache does not exist")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsCacheMiss checks if an error is or wraps ErrCacheMiss
func IsCacheMiss(err error) bool {
	return err != nil && Is(err, ErrCacheMiss)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRequest, format, args...)
}

// WrapCacheMiss marks cause as a cache miss for acronym, keeping cause in the chain.
func WrapCacheMiss(cause error, acronym string) error {
	return Wrapf(Mark(cause, ErrCacheMiss), "cache %s does not exist", acronym)
}
