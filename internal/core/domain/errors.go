package domain

import (
	"fmt"
	"strings"
)

// Stable violation codes returned to callers. Translation into localized
// messages happens at the presentation boundary, never here.
const (
	CodeRequired = "required"
	CodeBlank    = "blank"

	CodeInvalidCredentials     = "invalid_credentials"
	CodeActivationLinkInvalid  = "activation_link_invalid"
	CodeResetPasswordLinkInval = "reset_password_link_invalid"

	CodePasswordTooShort        = "password_too_short"
	CodePasswordTooCommon       = "password_too_common"
	CodePasswordEntirelyNumeric = "password_entirely_numeric"
	CodePasswordTooSimilar      = "password_too_similar"
)

// UniqueCode returns the field-scoped uniqueness violation code, e.g.
// "email_unique" for the email field.
func UniqueCode(field string) string {
	return field + "_unique"
}

// FieldError is a single field-scoped violation.
type FieldError struct {
	Field string
	Code  string
}

// Error implements error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Code)
}

// ValidationError aggregates every violation found for a request so the
// caller can display all problems at once.
type ValidationError struct {
	Violations []FieldError
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a violation to the error.
func (e *ValidationError) Add(field, code string) {
	e.Violations = append(e.Violations, FieldError{Field: field, Code: code})
}

// HasViolations reports whether any violation was recorded.
func (e *ValidationError) HasViolations() bool {
	return e != nil && len(e.Violations) > 0
}

// ByField groups violation codes by field name for serialization.
func (e *ValidationError) ByField() map[string][]string {
	if e == nil {
		return nil
	}
	out := make(map[string][]string, len(e.Violations))
	for _, v := range e.Violations {
		out[v.Field] = append(out[v.Field], v.Code)
	}
	return out
}
