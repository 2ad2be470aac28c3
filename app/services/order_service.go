package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"InventoryApp/app/database"
	"InventoryApp/app/models"

	"gorm.io/gorm"
)

// OrderService converts sales into stock depletions and income postings.
// Placing an order is all-or-nothing: the order, its items, every ledger
// depletion and the financial record share one transaction.
type OrderService struct {
	BaseService
	events EventPublisher
}

// NewOrderService creates a new order service
func NewOrderService() *OrderService {
	s := &OrderService{}
	s.db = database.GetDB()
	return s
}

// SetEventPublisher sets the publisher used for order broadcasts
func (s *OrderService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// OrderLineInput is one recipe line of an order request
type OrderLineInput struct {
	RecipeID uint `json:"recipe_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderInput describes an order to place
type PlaceOrderInput struct {
	OrderDate    time.Time        `json:"order_date"`
	CustomerInfo string           `json:"customer_info"`
	Notes        string           `json:"notes"`
	Lines        []OrderLineInput `json:"lines" validate:"required,min=1,dive"`
}

// itemRequirement aggregates how much of one item the whole order needs
type itemRequirement struct {
	item     models.Item
	required float64
}

// PlaceOrder places an order. Ingredient requirements are aggregated across
// every line and checked against stock before anything is written, so an
// order that is short on any item leaves no trace: no order, no order items,
// no ledger entries, no financial record.
func (s *OrderService) PlaceOrder(input PlaceOrderInput) (*models.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}

	order := &models.Order{
		OrderDate:    orderDate,
		CustomerInfo: input.CustomerInfo,
		Notes:        input.Notes,
	}

	err := s.WithTransaction(func(tx *gorm.DB) error {
		// Load every ordered recipe and snapshot its selling price.
		recipes := make(map[uint]*models.Recipe, len(input.Lines))
		for _, line := range input.Lines {
			if _, ok := recipes[line.RecipeID]; ok {
				continue
			}
			var recipe models.Recipe
			if err := tx.Preload("Ingredients.Item").First(&recipe, line.RecipeID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &NotFoundError{Entity: "recipe", ID: line.RecipeID}
				}
				return storageErr("load recipe", err)
			}
			recipes[line.RecipeID] = &recipe
		}

		// Aggregate ingredient requirements across all lines before any
		// depletion, so items shared between recipes are checked against the
		// full order, not line by line.
		requirements := make(map[uint]*itemRequirement)
		for _, line := range input.Lines {
			for _, ing := range recipes[line.RecipeID].Ingredients {
				if ing.Item == nil {
					continue
				}
				req, ok := requirements[ing.ItemID]
				if !ok {
					req = &itemRequirement{item: *ing.Item}
					requirements[ing.ItemID] = req
				}
				req.required += ing.Quantity * float64(line.Quantity)
			}
		}

		itemIDs := make([]uint, 0, len(requirements))
		for id := range requirements {
			itemIDs = append(itemIDs, id)
		}
		sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

		var shortfalls []StockShortfall
		for _, id := range itemIDs {
			req := requirements[id]
			if req.required > req.item.Quantity {
				shortfalls = append(shortfalls, StockShortfall{
					ItemID:    req.item.ID,
					ItemName:  req.item.Name,
					Unit:      req.item.Unit,
					Required:  req.required,
					Available: req.item.Quantity,
				})
			}
		}
		if len(shortfalls) > 0 {
			return &InsufficientStockError{Shortfalls: shortfalls}
		}

		// Create the order with its price-snapshot items.
		if err := tx.Create(order).Error; err != nil {
			return storageErr("create order", err)
		}

		var total float64
		totalUnits := 0
		for _, line := range input.Lines {
			recipe := recipes[line.RecipeID]
			item := models.OrderItem{
				OrderID:  order.ID,
				RecipeID: line.RecipeID,
				Quantity: line.Quantity,
				Price:    recipe.SellingPrice,
			}
			if err := tx.Create(&item).Error; err != nil {
				return storageErr("create order item", err)
			}
			total += item.Subtotal()
			totalUnits += line.Quantity
		}

		// Deplete stock through the ledger, one "out" entry per item.
		for _, id := range itemIDs {
			req := requirements[id]
			if _, err := recordStockTransactionTx(tx, StockTransactionInput{
				ItemID:   id,
				Type:     models.TransactionOut,
				Quantity: req.required,
				Date:     orderDate,
				Notes:    fmt.Sprintf("order #%d", order.ID),
			}); err != nil {
				return err
			}
		}

		if err := tx.Model(order).Update("total_amount", total).Error; err != nil {
			return storageErr("update order total", err)
		}
		order.TotalAmount = total

		// Exactly one income posting per order. The recipe link only makes
		// sense for single-recipe orders; mixed orders post without one.
		var recipeID *uint
		if len(recipes) == 1 {
			for id := range recipes {
				rid := id
				recipeID = &rid
			}
		}
		record := models.FinancialRecord{
			RecordType:  models.RecordIncome,
			Amount:      total,
			RecordDate:  orderDate,
			Description: fmt.Sprintf("Order #%d", order.ID),
			RecipeID:    recipeID,
			Quantity:    &totalUnits,
		}
		if err := tx.Create(&record).Error; err != nil {
			return storageErr("create financial record", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	placed, err := s.GetOrder(order.ID)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.PublishOrderPlaced(placed.ID)
	}

	return placed, nil
}

// GetOrder retrieves an order with its items and recipes
func (s *OrderService) GetOrder(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items.Recipe").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "order", ID: id}
		}
		return nil, storageErr("load order", err)
	}
	return &order, nil
}

// ListOrders retrieves orders within a date range, newest first
func (s *OrderService) ListOrders(from, to time.Time) ([]models.Order, error) {
	query := s.db.Preload("Items.Recipe").Order("order_date DESC, id DESC")
	if !from.IsZero() {
		query = query.Where("order_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("order_date < ?", to)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, storageErr("list orders", err)
	}
	return orders, nil
}
