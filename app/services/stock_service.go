package services

import (
	"errors"
	"fmt"
	"time"

	"InventoryApp/app/database"
	"InventoryApp/app/models"

	"gorm.io/gorm"
)

// StockService is the append-only stock ledger. Every change to an item's
// quantity goes through here as an immutable transaction row; item rows are
// never edited directly.
type StockService struct {
	BaseService
	events EventPublisher
}

// NewStockService creates a new stock service
func NewStockService() *StockService {
	s := &StockService{}
	s.db = database.GetDB()
	return s
}

// SetEventPublisher sets the publisher used for stock update broadcasts
func (s *StockService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// StockTransactionInput describes one ledger entry to record. Quantity is a
// magnitude; the sign comes from Type. TotalCost is the total cost of the
// received stock and only applies to "in" transactions.
type StockTransactionInput struct {
	ItemID    uint                   `json:"item_id" validate:"required"`
	Type      models.TransactionType `json:"type" validate:"required"`
	Quantity  float64                `json:"quantity" validate:"required,gt=0"`
	TotalCost float64                `json:"total_cost" validate:"gte=0"`
	Date      time.Time              `json:"date"`
	Notes     string                 `json:"notes"`
}

// RecordTransaction applies one stock movement atomically: the availability
// check, the item quantity/cost update, the dependent recipe cost recompute
// and the ledger append either all happen or none do.
func (s *StockService) RecordTransaction(input StockTransactionInput) (*models.InventoryTransaction, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, &ValidationError{Field: "Type", Message: fmt.Sprintf("unknown transaction type %q", input.Type)}
	}

	var txn *models.InventoryTransaction
	err := s.WithTransaction(func(tx *gorm.DB) error {
		var err error
		txn, err = recordStockTransactionTx(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.PublishStockUpdate(txn.ItemID)
	}

	return txn, nil
}

// recordStockTransactionTx records one ledger entry inside the caller's
// transaction. The order processor reuses it so a whole order shares one
// transactional boundary with its depletions.
func recordStockTransactionTx(tx *gorm.DB, input StockTransactionInput) (*models.InventoryTransaction, error) {
	var item models.Item
	if err := tx.First(&item, input.ItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "item", ID: input.ItemID}
		}
		return nil, storageErr("load item", err)
	}

	switch input.Type {
	case models.TransactionOut:
		if input.Quantity > item.Quantity {
			return nil, &InsufficientStockError{Shortfalls: []StockShortfall{{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Unit:      item.Unit,
				Required:  input.Quantity,
				Available: item.Quantity,
			}}}
		}

		// Guarded decrement: a concurrent writer that depleted the item
		// between the read above and this update leaves zero rows affected,
		// so the stale availability check can never oversell.
		res := tx.Model(&models.Item{}).
			Where("id = ? AND quantity >= ?", item.ID, input.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", input.Quantity))
		if res.Error != nil {
			return nil, storageErr("deplete item", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, &InsufficientStockError{Shortfalls: []StockShortfall{{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Unit:      item.Unit,
				Required:  input.Quantity,
				Available: item.Quantity,
			}}}
		}

	case models.TransactionIn:
		if err := restockItemTx(tx, item.ID, input.Quantity, input.TotalCost); err != nil {
			return nil, err
		}

		// cost_per_unit changed: refresh the cached cost fields of every
		// recipe using this item, inside the same transaction.
		if err := recomputeRecipesForItemTx(tx, item.ID); err != nil {
			return nil, err
		}
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	txn := &models.InventoryTransaction{
		ItemID:          item.ID,
		TransactionType: input.Type,
		ChangeQuantity:  input.Quantity,
		TransactionDate: date,
		Notes:           input.Notes,
	}
	if err := tx.Create(txn).Error; err != nil {
		return nil, storageErr("create inventory transaction", err)
	}

	return txn, nil
}

// restockItemTx applies weighted-average costing for received stock: the
// existing cost basis is blended with the cost of the incoming units. All
// three columns are computed inside the UPDATE from the row's current values,
// so a depletion or another restock committed after our read cannot be lost:
// like the guarded decrement, the database evaluates the arithmetic against
// the row it actually locks, not against our snapshot.
func restockItemTx(tx *gorm.DB, itemID uint, quantity, totalCost float64) error {
	err := tx.Model(&models.Item{}).Where("id = ?", itemID).Updates(map[string]interface{}{
		"quantity":      gorm.Expr("quantity + ?", quantity),
		"cost":          gorm.Expr("quantity * cost_per_unit + ?", totalCost),
		"cost_per_unit": gorm.Expr("(quantity * cost_per_unit + ?) / (quantity + ?)", totalCost, quantity),
	}).Error
	if err != nil {
		return storageErr("restock item", err)
	}
	return nil
}

// GetItemTransactions retrieves the ledger entries of an item, newest first
func (s *StockService) GetItemTransactions(itemID uint) ([]models.InventoryTransaction, error) {
	var count int64
	if err := s.db.Model(&models.Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
		return nil, storageErr("check item", err)
	}
	if count == 0 {
		return nil, &NotFoundError{Entity: "item", ID: itemID}
	}

	var transactions []models.InventoryTransaction
	err := s.db.Where("item_id = ?", itemID).
		Order("transaction_date DESC, id DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, storageErr("list inventory transactions", err)
	}
	return transactions, nil
}
