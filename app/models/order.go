package models

import "time"

// Order represents a completed sale of one or more recipes.
// TotalAmount is derived from the order items at placement time.
type Order struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderDate    time.Time `gorm:"index" json:"order_date"`
	TotalAmount  float64   `gorm:"default:0" json:"total_amount"`
	CustomerInfo string    `json:"customer_info,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem is one line of an order. Price is a point-in-time copy of the
// recipe's selling price: later price changes never alter historical orders.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	RecipeID  uint      `gorm:"not null;index" json:"recipe_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Order  *Order  `gorm:"foreignKey:OrderID" json:"-"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
}

// Subtotal returns the line total at the snapshotted price
func (i OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// TableName specifies the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}
