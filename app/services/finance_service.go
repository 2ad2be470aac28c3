package services

import (
	"fmt"
	"time"

	"InventoryApp/app/database"
	"InventoryApp/app/models"
)

// FinanceService is the append-only financial ledger. Order placement posts
// income records through the order processor; this service takes manual
// entries and read-only aggregation. Records are never edited or deleted:
// corrections are new offsetting entries.
type FinanceService struct {
	BaseService
}

// NewFinanceService creates a new finance service
func NewFinanceService() *FinanceService {
	s := &FinanceService{}
	s.db = database.GetDB()
	return s
}

// ManualEntryInput describes a manual income or expense entry
type ManualEntryInput struct {
	Type        models.RecordType `json:"type" validate:"required"`
	Amount      float64           `json:"amount" validate:"required,gt=0"`
	Date        time.Time         `json:"date"`
	Description string            `json:"description"`
}

// FinanceSummary aggregates a date range of the ledger
type FinanceSummary struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Income  float64   `json:"income"`
	Expense float64   `json:"expense"`
	Net     float64   `json:"net"`
}

// RecordManualEntry appends a manual entry with no recipe link
func (s *FinanceService) RecordManualEntry(input ManualEntryInput) (*models.FinancialRecord, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, &ValidationError{Field: "Type", Message: fmt.Sprintf("unknown record type %q", input.Type)}
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	record := &models.FinancialRecord{
		RecordType:  input.Type,
		Amount:      input.Amount,
		RecordDate:  date,
		Description: input.Description,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, storageErr("create financial record", err)
	}

	return record, nil
}

// ListRecords retrieves ledger entries within a date range, optionally
// filtered by type, newest first
func (s *FinanceService) ListRecords(from, to time.Time, recordType *models.RecordType) ([]models.FinancialRecord, error) {
	query := s.db.Order("record_date DESC, id DESC")
	if !from.IsZero() {
		query = query.Where("record_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("record_date < ?", to)
	}
	if recordType != nil {
		if !recordType.Valid() {
			return nil, &ValidationError{Field: "Type", Message: fmt.Sprintf("unknown record type %q", *recordType)}
		}
		query = query.Where("record_type = ?", *recordType)
	}

	var records []models.FinancialRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, storageErr("list financial records", err)
	}
	return records, nil
}

// Summary returns income, expense and net totals for a date range
func (s *FinanceService) Summary(from, to time.Time) (*FinanceSummary, error) {
	summary := &FinanceSummary{From: from, To: to}

	if err := s.sumByType(models.RecordIncome, from, to, &summary.Income); err != nil {
		return nil, err
	}
	if err := s.sumByType(models.RecordExpense, from, to, &summary.Expense); err != nil {
		return nil, err
	}
	summary.Net = summary.Income - summary.Expense

	return summary, nil
}

// sumByType totals one side of the ledger within the date range
func (s *FinanceService) sumByType(recordType models.RecordType, from, to time.Time, dest *float64) error {
	query := s.db.Model(&models.FinancialRecord{}).Where("record_type = ?", recordType)
	if !from.IsZero() {
		query = query.Where("record_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("record_date < ?", to)
	}

	err := query.Select("COALESCE(SUM(amount), 0)").Row().Scan(dest)
	if err != nil {
		return storageErr("sum financial records", err)
	}
	return nil
}
