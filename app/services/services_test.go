package services

import (
	"testing"

	"InventoryApp/app/database"
	"InventoryApp/app/storage"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database and runs the full migration sequence
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see its own empty :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// testServices bundles every service over one shared test database
type testServices struct {
	db      *gorm.DB
	items   *ItemService
	stock   *StockService
	recipes *RecipeService
	orders  *OrderService
	finance *FinanceService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := newTestDB(t)
	ts := &testServices{
		db:      db,
		items:   &ItemService{},
		stock:   &StockService{},
		recipes: &RecipeService{},
		orders:  &OrderService{},
		finance: &FinanceService{},
	}
	ts.items.SetDB(db)
	ts.stock.SetDB(db)
	ts.recipes.SetDB(db)
	ts.orders.SetDB(db)
	ts.finance.SetDB(db)

	store, err := storage.NewImageStoreAt(t.TempDir())
	require.NoError(t, err)
	ts.recipes.SetImageStore(store)

	return ts
}

// seedItem creates an item with opening stock through the normal create path
func (ts *testServices) seedItem(t *testing.T, name string, quantity, cost float64) uint {
	t.Helper()

	item, err := ts.items.CreateItem(CreateItemInput{
		Name:     name,
		Quantity: quantity,
		Cost:     cost,
	})
	require.NoError(t, err)
	return item.ID
}

// seedRecipe creates a recipe with one ingredient line per (itemID, quantity)
// pair
func (ts *testServices) seedRecipe(t *testing.T, name string, sellingPrice float64, lines map[uint]float64) uint {
	t.Helper()

	ingredients := make([]RecipeIngredientInput, 0, len(lines))
	for itemID, quantity := range lines {
		ingredients = append(ingredients, RecipeIngredientInput{ItemID: itemID, Quantity: quantity})
	}

	recipe, err := ts.recipes.CreateRecipe(CreateRecipeInput{
		Name:         name,
		SellingPrice: sellingPrice,
		Ingredients:  ingredients,
	})
	require.NoError(t, err)
	return recipe.ID
}
