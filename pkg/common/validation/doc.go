// Package validation provides common validation utilities for constructor
// and operator arguments across the rxflow library.
//
// Every helper returns a *errors.ValidationError so callers get consistent
// messages, and errors.Is(err, errors.ErrInvalidConfiguration) holds for all
// of them.
package validation
