package services

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// validate checks the struct tags on service input types
var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs struct validation and translates the first failure into
// the service error taxonomy
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	first := validationErrors[0]
	return &ValidationError{
		Field:   first.Field(),
		Message: fmt.Sprintf("failed %s constraint", first.Tag()),
	}
}

// BaseService provides common functionality for all services
type BaseService struct {
	db *gorm.DB
}

// GetDB returns the database connection
func (b *BaseService) GetDB() *gorm.DB {
	return b.db
}

// SetDB sets the database connection (useful for testing)
func (b *BaseService) SetDB(db *gorm.DB) {
	b.db = db
}

// EnsureDB checks if database is initialized and returns an error if not
func (b *BaseService) EnsureDB() error {
	if b.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return nil
}

// WithTransaction executes a function within a database transaction
func (b *BaseService) WithTransaction(fn func(tx *gorm.DB) error) error {
	if err := b.EnsureDB(); err != nil {
		return err
	}
	return b.db.Transaction(fn)
}
