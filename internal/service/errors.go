package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInternal           = errors.New("internal error")
)

// Validation codes. Handlers send them as the error code.
const (
	CodeAllFieldsRequired   = "all_fields_required"
	CodeUsernameTooShort    = "username_too_short"
	CodeUsernameTooLong     = "username_too_long"
	CodePasswordTooShort    = "password_too_short"
	CodePasswordMismatch    = "password_mismatch"
	CodeCredentialsRequired = "credentials_required"
	CodeTitleRequired       = "title_required"
	CodeInvalidPriority     = "invalid_priority"
	CodeInvalidStatus       = "invalid_status"
)

// ValidationError is a user-facing input problem. errors.Is(err, ErrValidation) holds.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(code, field, msg string) error {
	return &ValidationError{Code: code, Field: field, Message: msg}
}

// internal keeps the cause for logs while matching ErrInternal.
func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
