package services

import (
	"testing"
	"time"

	"InventoryApp/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordManualEntry(t *testing.T) {
	ts := newTestServices(t)

	record, err := ts.finance.RecordManualEntry(ManualEntryInput{
		Type:        models.RecordExpense,
		Amount:      120.5,
		Description: "Rent",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RecordExpense, record.RecordType)
	assert.Equal(t, 120.5, record.Amount)
	assert.False(t, record.RecordDate.IsZero())
	// Manual entries never carry order attribution
	assert.Nil(t, record.RecipeID)
	assert.Nil(t, record.Quantity)
}

func TestRecordManualEntryValidation(t *testing.T) {
	ts := newTestServices(t)

	cases := []struct {
		name  string
		input ManualEntryInput
	}{
		{"missing type", ManualEntryInput{Amount: 10}},
		{"unknown type", ManualEntryInput{Type: "refund", Amount: 10}},
		{"zero amount", ManualEntryInput{Type: models.RecordIncome}},
		{"negative amount", ManualEntryInput{Type: models.RecordIncome, Amount: -5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ts.finance.RecordManualEntry(tc.input)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestListRecordsFilters(t *testing.T) {
	ts := newTestServices(t)

	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	entries := []ManualEntryInput{
		{Type: models.RecordIncome, Amount: 100, Date: jan, Description: "jan income"},
		{Type: models.RecordExpense, Amount: 40, Date: jan, Description: "jan expense"},
		{Type: models.RecordIncome, Amount: 200, Date: feb, Description: "feb income"},
	}
	for _, entry := range entries {
		_, err := ts.finance.RecordManualEntry(entry)
		require.NoError(t, err)
	}

	all, err := ts.finance.ListRecords(time.Time{}, time.Time{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	income := models.RecordIncome
	onlyIncome, err := ts.finance.ListRecords(time.Time{}, time.Time{}, &income)
	require.NoError(t, err)
	assert.Len(t, onlyIncome, 2)

	janOnly, err := ts.finance.ListRecords(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		nil,
	)
	require.NoError(t, err)
	assert.Len(t, janOnly, 2)
}

func TestSummary(t *testing.T) {
	ts := newTestServices(t)

	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	entries := []ManualEntryInput{
		{Type: models.RecordIncome, Amount: 300, Date: date},
		{Type: models.RecordIncome, Amount: 50, Date: date},
		{Type: models.RecordExpense, Amount: 120, Date: date},
	}
	for _, entry := range entries {
		_, err := ts.finance.RecordManualEntry(entry)
		require.NoError(t, err)
	}

	summary, err := ts.finance.Summary(
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.InDelta(t, 350.0, summary.Income, 1e-9)
	assert.InDelta(t, 120.0, summary.Expense, 1e-9)
	assert.InDelta(t, 230.0, summary.Net, 1e-9)
}

func TestSummaryEmptyRange(t *testing.T) {
	ts := newTestServices(t)

	summary, err := ts.finance.Summary(
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Zero(t, summary.Income)
	assert.Zero(t, summary.Expense)
	assert.Zero(t, summary.Net)
}
