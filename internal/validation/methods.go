package validation

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "insurecow/internal/errors"
)

// At most 15 characters including the leading +, matching the mobile_number columns.
var mobileRegex = regexp.MustCompile(`^(\+[0-9]{7,14}|[0-9]{7,15})$`)

// Validator collects per-field messages
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error to the validator. The first message per field wins.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Err returns the collected messages as a validation error, or nil.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return apperrors.Validation(v.Errors)
}

// Required checks if a string is not blank
func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "this field is required")
}

// MinLength checks if a string has at least n characters
func (v *Validator) MinLength(field string, value string, n int) {
	v.Check(len(value) >= n, field, fmt.Sprintf("must be at least %d characters long", n))
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Mobile validates the mobile number format: at least 7 digits, an optional
// leading +, and 15 characters at most.
func (v *Validator) Mobile(field, mobile string) {
	v.Check(mobileRegex.MatchString(mobile), field, "must be a valid mobile number")
}

// Password validates password strength
func (v *Validator) Password(field, password string) {
	v.MinLength(field, password, MinPasswordLength)
	v.MaxLength(field, password, MaxPasswordLength)
	v.Check(HasSpecialChar(password), field, "must contain at least one special character")
}

// IsMobile reports whether mobile is well-formed.
func IsMobile(mobile string) bool {
	return mobileRegex.MatchString(mobile)
}
