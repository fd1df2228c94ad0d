/*
errors.go - Centralized error types for the restriction engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Higher layers wrap these with context; HTTP handlers map them to
  status codes via the helpers at the bottom of this file.

ERROR CATEGORIES:
  1. Data integrity - rule data that cannot be evaluated (bad weekday,
     malformed season marker, unusable max-stay). Carries the rule code.
  2. Invalid request - caller input rejected before evaluation begins.
  3. Store errors - missing slots.

Nothing here is retryable: every error is a deterministic function of
the input and reproduces identically.

USAGE:
  if errors.Is(err, generic.ErrDataIntegrity) {
      var die *generic.DataIntegrityError
      errors.As(err, &die)
      log.Warn().Str("rule", die.RuleCode).Msg("fix upstream data")
  }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDataIntegrity is returned when rule data cannot be evaluated as-is.
	ErrDataIntegrity = errors.New("rule data integrity violation")

	// ErrInvalidRequest is returned when a checkin request is rejected.
	ErrInvalidRequest = errors.New("invalid checkin request")

	// ErrMalformedMonthDay is returned when a season marker is not "MM-DD".
	ErrMalformedMonthDay = errors.New("malformed month-day marker")

	// ErrSlotNotFound is returned when a referenced parking slot doesn't exist.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrCacheMiss is returned by caches when no entry exists for a key.
	ErrCacheMiss = errors.New("cache miss")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DataIntegrityError identifies the rule whose data could not be used.
type DataIntegrityError struct {
	RuleCode string
	Field    string // e.g. "season_start", "max_stay_minutes", "agenda"
	Detail   string
}

func (e *DataIntegrityError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("rule %q: %s", e.RuleCode, e.Detail)
	}
	return fmt.Sprintf("rule %q: %s: %s", e.RuleCode, e.Field, e.Detail)
}

func (e *DataIntegrityError) Unwrap() error {
	return ErrDataIntegrity
}

// NewDataIntegrityError wraps cause (may be nil) for the given rule and field.
func NewDataIntegrityError(ruleCode, field string, cause error) *DataIntegrityError {
	detail := "unusable value"
	if cause != nil {
		detail = cause.Error()
	}
	return &DataIntegrityError{RuleCode: ruleCode, Field: field, Detail: detail}
}

// InvalidRequestError describes why a checkin request was rejected.
type InvalidRequestError struct {
	Field  string
	Detail string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Detail)
}

func (e *InvalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsDataIntegrity returns true if stored rule data is at fault.
func IsDataIntegrity(err error) bool {
	return errors.Is(err, ErrDataIntegrity)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSlotNotFound)
}
