package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a ledger record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden is returned for cross-office or role violations.
	ErrForbidden = errors.New("access denied")
)

// ValidationError is a caller-correctable rejection. It is raised before any
// write, so no partial state exists when it surfaces.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError.
func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UnbalancedError is an internal invariant violation: entries were created
// but the transaction does not balance. It always aborts the atomic scope.
type UnbalancedError struct {
	TransactionID int64
	TotalDebit    string
	TotalCredit   string
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("transaction %d is not balanced: debit %s, credit %s",
		e.TransactionID, e.TotalDebit, e.TotalCredit)
}
