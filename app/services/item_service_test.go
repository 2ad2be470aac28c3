package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItemDefaults(t *testing.T) {
	ts := newTestServices(t)

	item, err := ts.items.CreateItem(CreateItemInput{Name: "Yeast"})
	require.NoError(t, err)
	assert.Equal(t, "units", item.Unit)
	assert.Zero(t, item.Quantity)
	assert.Zero(t, item.CostPerUnit)

	// No opening stock means no ledger entries
	transactions, err := ts.stock.GetItemTransactions(item.ID)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestCreateItemValidation(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.items.CreateItem(CreateItemInput{})
	assert.True(t, IsValidation(err))

	_, err = ts.items.CreateItem(CreateItemInput{Name: "Flour", Quantity: -1})
	assert.True(t, IsValidation(err))

	_, err = ts.items.CreateItem(CreateItemInput{Name: "Flour", Cost: -1})
	assert.True(t, IsValidation(err))
}

func TestUpdateItemNeverTouchesStock(t *testing.T) {
	ts := newTestServices(t)
	itemID := ts.seedItem(t, "Flour", 10, 20)

	expiry := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	updated, err := ts.items.UpdateItem(UpdateItemInput{
		ID:             itemID,
		Name:           "Bread Flour",
		Category:       "baking",
		Unit:           "kg",
		ExpirationDate: &expiry,
		Location:       "shelf 2",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bread Flour", updated.Name)
	assert.Equal(t, "baking", updated.Category)
	assert.Equal(t, "kg", updated.Unit)
	assert.Equal(t, "shelf 2", updated.Location)
	// Stock and cost basis stay owned by the ledger
	assert.Equal(t, 10.0, updated.Quantity)
	assert.Equal(t, 20.0, updated.Cost)
	assert.Equal(t, 2.0, updated.CostPerUnit)
}

func TestUpdateItemKeepsUnitWhenOmitted(t *testing.T) {
	ts := newTestServices(t)

	item, err := ts.items.CreateItem(CreateItemInput{Name: "Flour", Unit: "kg"})
	require.NoError(t, err)
	require.Equal(t, "kg", item.Unit)

	// A partial update payload without a unit must not blank the stored one
	updated, err := ts.items.UpdateItem(UpdateItemInput{
		ID:   item.ID,
		Name: "Bread Flour",
	})
	require.NoError(t, err)
	assert.Equal(t, "kg", updated.Unit)

	// An explicit unit still wins
	updated, err = ts.items.UpdateItem(UpdateItemInput{
		ID:   item.ID,
		Name: "Bread Flour",
		Unit: "g",
	})
	require.NoError(t, err)
	assert.Equal(t, "g", updated.Unit)
}

func TestUpdateItemNotFound(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.items.UpdateItem(UpdateItemInput{ID: 404, Name: "Ghost"})
	assert.True(t, IsNotFound(err))
}

func TestListItemsFilters(t *testing.T) {
	ts := newTestServices(t)

	seed := []CreateItemInput{
		{Name: "Flour", Category: "baking", Location: "pantry"},
		{Name: "Sugar", Category: "baking", Location: "shelf 1"},
		{Name: "Milk", Category: "dairy", Location: "fridge"},
	}
	for _, input := range seed {
		_, err := ts.items.CreateItem(input)
		require.NoError(t, err)
	}

	all, err := ts.items.ListItems(ItemFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by name
	assert.Equal(t, "Flour", all[0].Name)
	assert.Equal(t, "Milk", all[1].Name)
	assert.Equal(t, "Sugar", all[2].Name)

	baking, err := ts.items.ListItems(ItemFilter{Category: "baking"})
	require.NoError(t, err)
	assert.Len(t, baking, 2)

	pantryBaking, err := ts.items.ListItems(ItemFilter{Category: "baking", Location: "pantry"})
	require.NoError(t, err)
	require.Len(t, pantryBaking, 1)
	assert.Equal(t, "Flour", pantryBaking[0].Name)
}

func TestDeleteItemRemovesLedger(t *testing.T) {
	ts := newTestServices(t)
	itemID := ts.seedItem(t, "Flour", 10, 20)

	require.NoError(t, ts.items.DeleteItem(itemID))

	_, err := ts.items.GetItem(itemID)
	assert.True(t, IsNotFound(err))

	var count int64
	require.NoError(t, ts.db.Table("inventory_transactions").Where("item_id = ?", itemID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteItemNotFound(t *testing.T) {
	ts := newTestServices(t)

	err := ts.items.DeleteItem(77)
	assert.True(t, IsNotFound(err))
}
