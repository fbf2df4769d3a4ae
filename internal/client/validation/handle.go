// Package validation checks user input before it is sent to the backend.
package validation

import (
	"errors"
	"regexp"
)

const MaxHandleLength = 253

var (
	ErrHandleRequired = errors.New("handle is required")
	ErrHandleTooLong  = errors.New("handle must be at most 253 characters")
	ErrHandleInvalid  = errors.New("handle may only contain letters, digits, dots and hyphens")
)

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)

// ValidateHandle applies the strict handle rules.
func ValidateHandle(handle string) error {
	if handle == "" {
		return ErrHandleRequired
	}
	if len(handle) > MaxHandleLength {
		return ErrHandleTooLong
	}
	if !handlePattern.MatchString(handle) {
		return ErrHandleInvalid
	}
	return nil
}

// ValidateHandleLenient only rejects an empty handle; email identifiers and
// anything else are left for the server to judge.
func ValidateHandleLenient(handle string) error {
	if handle == "" {
		return ErrHandleRequired
	}
	return nil
}

// HandleValidator picks the strict or lenient rule set.
func HandleValidator(lenient bool) func(string) error {
	if lenient {
		return ValidateHandleLenient
	}
	return ValidateHandle
}
