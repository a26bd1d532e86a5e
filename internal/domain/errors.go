package domain

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError: a package, hotel or city could not be resolved. Fatal to
// the specific request.
type NotFoundError struct {
	Kind string // "package" | "hotel" | "city"
	Key  string
	// Samples carries up to a few known values to aid debugging, e.g.
	// supplier city names for an unresolvable city.
	Samples []string
}

func (e *NotFoundError) Error() string {
	if len(e.Samples) > 0 {
		return fmt.Sprintf("%s %q not found (known: %s)", e.Kind, e.Key, strings.Join(e.Samples, ", "))
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// ValidationError: required inputs are missing or malformed. Fatal to the
// specific request.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// SupplierError: transport, auth or rate-limit failure from the external
// gateway. Recovered locally by falling back to static pricing.
type SupplierError struct {
	Op  string
	Err error
}

func (e *SupplierError) Error() string { return fmt.Sprintf("supplier %s: %v", e.Op, e.Err) }
func (e *SupplierError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
