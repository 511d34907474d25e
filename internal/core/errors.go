package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrStoreUnavailable = errors.New("transaction store unavailable")

	ErrInvalidAmount   = errors.New("amount must be a non-negative number")
	ErrAmountTooSmall  = errors.New("amount is below the minimum")
	ErrEmptyCategory   = errors.New("category is required")
	ErrUnknownCategory = errors.New("category is not configured")
	ErrInvalidType     = errors.New("type must be Expense or Income")
	ErrInvalidMonth    = errors.New("month must be 1-12 or all")
	ErrInvalidYear     = errors.New("year must be 1-9999 or all")
)

// NotFoundError names the id a delete could not find.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports a rejected write.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DateError is returned on read when a stored row carries a date that
// does not parse. The whole computation fails; no row is dropped.
type DateError struct {
	Row   string
	Value string
	Err   error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("row %s: unparseable date %q: %v", e.Row, e.Value, e.Err)
}

func (e *DateError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a rejected-input error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
