package repos

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound indicates the requested record does not exist.
// Use errors.Is to check for it.
var ErrNotFound = errors.New("record not found")

// wrapErr adds context to a database error and maps missing records to ErrNotFound
func wrapErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
