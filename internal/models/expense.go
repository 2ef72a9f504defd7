package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendwise/backend/internal/recurrence"
	"github.com/spendwise/backend/internal/types"
	"gorm.io/gorm"
)

// Expense represents one financial transaction, or one occurrence of a
// recurring series.
//
// A recurring series is controlled by exactly one record with
// IsOriginal set. Only that record carries the schedule state in
// NextRecurrenceDate; the occurrences created from it are regular
// expenses with IsOriginal unset and are never materialized again.
type Expense struct {
	DefaultModel
	Name               string          `gorm:"index"`
	Amount             decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	CategoryID         *uuid.UUID      `gorm:"index"`
	IsRecurring        bool            `gorm:"index"`
	RecurringInterval  recurrence.Interval
	NextRecurrenceDate *types.Date `gorm:"index"`
	IsOriginal         bool        `gorm:"index"`
}

func (e *Expense) BeforeSave(_ *gorm.DB) error {
	e.Name = strings.TrimSpace(e.Name)

	// Only the original of an active series carries schedule state
	if !e.IsRecurring || !e.IsOriginal {
		e.NextRecurrenceDate = nil
	}

	return nil
}

// AfterSave validates the expense and maintains its schedule state.
//
// Validation happens after the save since partial updates are only
// merged into the model when the statement is built, so this is the
// earliest point where the final state is visible. An error here rolls
// back the statement's transaction.
//
// A recurring original without a schedule gets one seeded: the next
// occurrence is the earliest date after the record's creation date
// that matches the interval rule. This covers both newly created
// series and expenses edited into being recurring.
func (e *Expense) AfterSave(tx *gorm.DB) error {
	if e.Name == "" {
		return ErrExpenseNameEmpty
	}

	if !e.Amount.IsPositive() {
		return ErrExpenseAmountNotPositive
	}

	if e.IsRecurring && e.RecurringInterval == "" {
		return ErrRecurringIntervalRequired
	}

	if e.RecurringInterval != "" && !e.RecurringInterval.Valid() {
		return recurrence.ErrIntervalInvalid
	}

	if !e.IsRecurring || !e.IsOriginal {
		if e.NextRecurrenceDate != nil {
			// An update ended the series, drop the leftover schedule
			e.NextRecurrenceDate = nil
			return tx.Model(e).UpdateColumn("next_recurrence_date", nil).Error
		}

		return nil
	}

	if e.NextRecurrenceDate != nil {
		return nil
	}

	next, err := recurrence.Next(types.DateOf(e.CreatedAt), e.RecurringInterval)
	if err != nil {
		return err
	}

	e.NextRecurrenceDate = &next
	return tx.Model(e).UpdateColumn("next_recurrence_date", next).Error
}

// CategoryName resolves the display name of the expense's category.
// Expenses without a category resolve to the uncategorized sentinel.
func (e Expense) CategoryName(db *gorm.DB) (string, error) {
	if e.CategoryID == nil {
		return UncategorizedName, nil
	}

	var category Category
	err := db.First(&category, "id = ?", *e.CategoryID).Error
	if err != nil {
		return "", err
	}

	return category.Name, nil
}

// DueRecurringExpenses returns the recurring originals whose next
// occurrence falls on or before the given day, in UTC day boundaries.
// Past-due originals are included so that a series does not stall
// when a daily run was missed entirely.
//
// Recurring originals without a schedule are included so that callers
// can report them as integrity anomalies instead of silently never
// seeing them.
func DueRecurringExpenses(db *gorm.DB, asOf types.Date) ([]Expense, error) {
	var expenses []Expense

	err := db.
		Where("is_recurring = ? AND is_original = ?", true, true).
		Where(
			db.Where("next_recurrence_date <= ?", asOf.EndOfDay()).
				Or("next_recurrence_date IS NULL"),
		).
		Order("created_at ASC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}

	return expenses, nil
}

// ExpensesCreatedIn returns all expenses created in the given month.
// Used for the monthly report.
func ExpensesCreatedIn(db *gorm.DB, month types.Month) ([]Expense, error) {
	var expenses []Expense

	err := db.
		Where("created_at >= ? AND created_at <= ?", month.Start(), month.End()).
		Order("created_at ASC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}

	return expenses, nil
}
