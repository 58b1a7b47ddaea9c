// Package apperr defines the error taxonomy shared by the core operations.
// Every error here is detected inside the owning transaction and causes a
// full rollback before reaching the handler layer, which maps it to an HTTP
// status.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrOrderNumberConflict  = errors.New("order number already exists")
)

// InsufficientStockError is returned when an outbound or sale mutation
// requests more than the product's current stock. The message names the
// offending product so clients can render it directly.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// ValidationError is returned for malformed input, e.g. a non-positive
// quantity or an unrecognized sort key.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
