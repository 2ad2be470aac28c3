package services

import (
	"errors"
	"time"

	"InventoryApp/app/database"
	"InventoryApp/app/models"

	"gorm.io/gorm"
)

// ItemService handles catalog management for stocked items. Quantity and the
// cost fields are owned by the stock ledger; catalog updates never touch them.
type ItemService struct {
	BaseService
}

// NewItemService creates a new item service
func NewItemService() *ItemService {
	s := &ItemService{}
	s.db = database.GetDB()
	return s
}

// CreateItemInput describes a new catalog item. Quantity and Cost describe
// the opening stock; when Quantity is positive they are posted as an initial
// "in" transaction so the ledger stays the single source of stock history.
type CreateItemInput struct {
	Name           string     `json:"name" validate:"required"`
	Category       string     `json:"category"`
	Quantity       float64    `json:"quantity" validate:"gte=0"`
	Unit           string     `json:"unit"`
	Cost           float64    `json:"cost" validate:"gte=0"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Location       string     `json:"location"`
}

// UpdateItemInput carries the catalog fields an update may change
type UpdateItemInput struct {
	ID             uint       `json:"id" validate:"required"`
	Name           string     `json:"name" validate:"required"`
	Category       string     `json:"category"`
	Unit           string     `json:"unit"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Location       string     `json:"location"`
}

// ItemFilter narrows ListItems results
type ItemFilter struct {
	Category string
	Location string
}

// CreateItem creates a catalog item. Opening stock is recorded through the
// stock ledger in the same transaction.
func (s *ItemService) CreateItem(input CreateItemInput) (*models.Item, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	unit := input.Unit
	if unit == "" {
		unit = "units"
	}

	item := &models.Item{
		Name:           input.Name,
		Category:       input.Category,
		Unit:           unit,
		ExpirationDate: input.ExpirationDate,
		Location:       input.Location,
	}

	err := s.WithTransaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return storageErr("create item", err)
		}

		if input.Quantity > 0 {
			if _, err := recordStockTransactionTx(tx, StockTransactionInput{
				ItemID:    item.ID,
				Type:      models.TransactionIn,
				Quantity:  input.Quantity,
				TotalCost: input.Cost,
				Notes:     "Initial stock",
			}); err != nil {
				return err
			}
		}

		return tx.First(item, item.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// GetItem retrieves a single item by ID
func (s *ItemService) GetItem(id uint) (*models.Item, error) {
	var item models.Item
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "item", ID: id}
		}
		return nil, storageErr("load item", err)
	}
	return &item, nil
}

// ListItems retrieves items, optionally filtered by category and location
func (s *ItemService) ListItems(filter ItemFilter) ([]models.Item, error) {
	query := s.db.Order("name ASC")
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}

	var items []models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, storageErr("list items", err)
	}
	return items, nil
}

// UpdateItem updates the catalog fields of an item. Quantity, cost and
// cost_per_unit are write-only through the stock ledger and stay untouched.
func (s *ItemService) UpdateItem(input UpdateItemInput) (*models.Item, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	item := &models.Item{}
	err := s.WithTransaction(func(tx *gorm.DB) error {
		if err := tx.First(item, input.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "item", ID: input.ID}
			}
			return storageErr("load item", err)
		}

		updates := map[string]interface{}{
			"name":            input.Name,
			"category":        input.Category,
			"expiration_date": input.ExpirationDate,
			"location":        input.Location,
		}
		// An omitted unit keeps the stored one: transactions and the
		// recipe ingredients recorded against it stay interpretable.
		if input.Unit != "" {
			updates["unit"] = input.Unit
		}
		if err := tx.Model(item).Updates(updates).Error; err != nil {
			return storageErr("update item", err)
		}

		return tx.First(item, input.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// DeleteItem removes an item and its ledger history. Deletion is rejected
// while any recipe still references the item, so recipe costing never sees
// an orphaned ingredient.
func (s *ItemService) DeleteItem(id uint) error {
	return s.WithTransaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "item", ID: id}
			}
			return storageErr("load item", err)
		}

		var refs int64
		if err := tx.Model(&models.RecipeIngredient{}).Where("item_id = ?", id).Count(&refs).Error; err != nil {
			return storageErr("check item references", err)
		}
		if refs > 0 {
			return &ValidationError{Field: "ID", Message: "item is used by one or more recipes"}
		}

		if err := tx.Where("item_id = ?", id).Delete(&models.InventoryTransaction{}).Error; err != nil {
			return storageErr("delete item transactions", err)
		}
		if err := tx.Delete(&models.Item{}, id).Error; err != nil {
			return storageErr("delete item", err)
		}
		return nil
	})
}
