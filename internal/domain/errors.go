package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing country code, exit date before entry date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidDate is returned when a caller-supplied date string cannot be
// parsed as a calendar date. Dates are validated at the boundary so the
// visa engine never sees a malformed date.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrInvalidDate = errors.New("invalid date")
