package models

import "time"

// Recipe represents a sellable dish composed of catalog items.
// RecipeCost, Profit and ProfitMargin are derived fields cached in the row;
// they are recomputed inside the same transaction as every mutation that can
// change them (ingredient edits and "in" stock transactions on ingredients).
type Recipe struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null;index" json:"name"`
	Description  string    `json:"description,omitempty"`
	RecipeCost   float64   `gorm:"default:0" json:"recipe_cost"`
	SellingPrice float64   `gorm:"default:0" json:"selling_price"`
	Profit       float64   `gorm:"default:0" json:"profit"`
	ProfitMargin float64   `gorm:"default:0" json:"profit_margin"`
	Image        string    `json:"image,omitempty"` // blob-store key, not the bytes
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients,omitempty"`
}

// RecipeIngredient links a recipe to a catalog item with the quantity
// consumed per prepared unit. Owned by its recipe: deleted with it.
type RecipeIngredient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RecipeID  uint      `gorm:"not null;index" json:"recipe_id"`
	ItemID    uint      `gorm:"not null;index" json:"item_id"`
	Quantity  float64   `gorm:"not null" json:"quantity"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Recipe *Recipe `gorm:"foreignKey:RecipeID" json:"-"`
	Item   *Item   `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// RecipeCostBreakdown carries the three derived cost fields of a recipe
type RecipeCostBreakdown struct {
	RecipeCost   float64 `json:"recipe_cost"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profit_margin"`
}

// ComputeRecipeCost derives cost, profit and margin from the ingredient rows
// and the current cost_per_unit of their items. Pure function over loaded
// state so the same computation backs creation, recompute and tests.
func ComputeRecipeCost(sellingPrice float64, ingredients []RecipeIngredient) RecipeCostBreakdown {
	var cost float64
	for _, ing := range ingredients {
		if ing.Item == nil {
			continue
		}
		cost += ing.Quantity * ing.Item.CostPerUnit
	}

	breakdown := RecipeCostBreakdown{
		RecipeCost: cost,
		Profit:     sellingPrice - cost,
	}
	if sellingPrice != 0 {
		breakdown.ProfitMargin = breakdown.Profit / sellingPrice
	}
	return breakdown
}

// TableName specifies the table name for Recipe
func (Recipe) TableName() string {
	return "recipes"
}

// TableName specifies the table name for RecipeIngredient
func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
