package models

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ValidationError is returned before any mutation when the input breaks a
// constraint, e.g. a duplicate folder or tag name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func duplicateName(name string) error {
	return &ValidationError{Field: "name", Message: fmt.Sprintf("%q already exists", name)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// isUniqueViolation reports whether err comes from a unique index
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// SQLite and MySQL wording, TranslateError is not enabled
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
