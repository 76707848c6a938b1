package ledger

import (
	"errors"
	"fmt"
)

// ValidationError is a rejected request that never reached the store.
// Field names the offending input so the caller can report it inline.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RemoteWriteError wraps a patch the store refused. Nothing was applied.
type RemoteWriteError struct {
	Err error
}

func (e *RemoteWriteError) Error() string {
	return "stock update failed: " + e.Err.Error()
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
