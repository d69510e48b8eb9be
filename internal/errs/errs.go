// Package errs defines the error kinds shared across the ingestion
// pipeline and the query engine. Callers classify failures with the
// Is* predicates instead of matching on message text.
package errs

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Sentinel kinds. Wrap them with context via the constructors below;
// errors.Is against the sentinel still matches through the chain.
var (
	// ErrNotFound: a requested geography id or name has no matching
	// record. Recoverable; surfaced to callers as "no such resource".
	ErrNotFound = errors.New("not found")

	// ErrValidation: malformed or missing required input (bad zipcode
	// string, feature missing a required attribute). Recoverable.
	ErrValidation = errors.New("validation")

	// ErrGeometry: a polygon failed normalization (empty, degenerate,
	// or still self-intersecting after repair). Recoverable at the
	// single-feature granularity; the batch continues.
	ErrGeometry = errors.New("geometry")

	// ErrIntegrity: hierarchy construction could not resolve a required
	// parent link. Fatal for the ingestion run.
	ErrIntegrity = errors.New("integrity")
)

// NotFoundf returns a NotFound-kind error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return eris.Wrapf(ErrNotFound, format, args...)
}

// Validationf returns a Validation-kind error with a formatted message.
func Validationf(format string, args ...any) error {
	return eris.Wrapf(ErrValidation, format, args...)
}

// Geometryf returns a Geometry-kind error with a formatted message.
func Geometryf(format string, args ...any) error {
	return eris.Wrapf(ErrGeometry, format, args...)
}

// Integrityf returns an Integrity-kind error with a formatted message.
func Integrityf(format string, args ...any) error {
	return eris.Wrapf(ErrIntegrity, format, args...)
}

// IsNotFound reports whether any error in the chain is NotFound-kind.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether any error in the chain is Validation-kind.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsGeometry reports whether any error in the chain is Geometry-kind.
func IsGeometry(err error) bool { return errors.Is(err, ErrGeometry) }

// IsIntegrity reports whether any error in the chain is Integrity-kind.
func IsIntegrity(err error) bool { return errors.Is(err, ErrIntegrity) }
