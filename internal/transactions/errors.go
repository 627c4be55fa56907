package transactions

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyItems      = errors.New("items array is required and cannot be empty")
	ErrInvalidQuantity = errors.New("item quantity must be a positive integer")
	ErrOrderNotFound   = errors.New("transaction not found")
)

// BookNotFoundError names the first requested book that does not exist
// (or is soft-deleted).
type BookNotFoundError struct {
	ID string
}

func (e BookNotFoundError) Error() string {
	return fmt.Sprintf("book with ID %s not found", e.ID)
}

// InsufficientStockError names the first book whose stock cannot cover the
// requested quantity. Also returned when the in-transaction decrement guard
// trips under a concurrent placement.
type InsufficientStockError struct {
	Title string
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book: %q", e.Title)
}
