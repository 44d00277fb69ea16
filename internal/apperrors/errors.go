package apperrors

import (
	"errors"
	"fmt"
)

// Domain errors surfaced to handlers
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired verification token")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrAccountInactive       = errors.New("account is deactivated")
)

// InsufficientStockError names the product that cannot be fulfilled.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		name, e.Available, e.Requested)
}

// IsInsufficientStock reports whether err wraps an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
