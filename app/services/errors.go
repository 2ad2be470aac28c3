package services

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports malformed input, rejected before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NotFoundError reports a referenced id that does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// StockShortfall describes one item that cannot cover a requested depletion.
type StockShortfall struct {
	ItemID    uint    `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Unit      string  `json:"unit"`
	Required  float64 `json:"required"`
	Available float64 `json:"available"`
}

// InsufficientStockError reports a stock check failure. The operation that
// raised it has been fully rolled back; Shortfalls lists every item that was
// short, not just the first one found.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortfalls) == 0 {
		return "insufficient stock"
	}
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = fmt.Sprintf("%s: need %.2f %s, have %.2f", s.ItemName, s.Required, s.Unit, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// StorageError wraps a failure from the storage engine. The whole operation
// was rolled back; the caller retries the entire operation or surfaces it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err unless it already belongs to the service taxonomy, so
// domain errors pass through transaction boundaries untouched.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var nf *NotFoundError
	var is *InsufficientStockError
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &is) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsInsufficientStock reports whether err is an InsufficientStockError
func IsInsufficientStock(err error) bool {
	var e *InsufficientStockError
	return errors.As(err, &e)
}
