package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/spendwise/backend/internal/models"
	"github.com/spendwise/backend/internal/recurrence"
	"github.com/spendwise/backend/internal/types"
	ez_uuid "github.com/spendwise/backend/internal/uuid"
)

// ExpenseEditable represents all user configurable parameters
type ExpenseEditable struct {
	Name              string              `json:"name" example:"Cappuccino" default:""`           // Name of the expense
	Amount            decimal.Decimal     `json:"amount" example:"3.50"`                          // The amount spent
	Category          string              `json:"category" example:"Groceries" default:""`        // Name of the category, created if it does not exist yet. Empty means uncategorized.
	IsRecurring       bool                `json:"isRecurring" example:"true" default:"false"`     // Does the expense repeat?
	RecurringInterval recurrence.Interval `json:"recurringInterval" example:"monthly" default:""` // daily, weekly or monthly. Required for recurring expenses.
}

func (editable ExpenseEditable) model(categoryID *uuid.UUID) models.Expense {
	return models.Expense{
		Name:              editable.Name,
		Amount:            editable.Amount,
		CategoryID:        categoryID,
		IsRecurring:       editable.IsRecurring,
		RecurringInterval: editable.RecurringInterval,
	}
}

type ExpenseLinks struct {
	Self string `json:"self" example:"https://example.com/v1/expenses/d430d7c3-d14c-4712-9336-ee56965a6673"` // The expense itself
}

type Expense struct {
	models.DefaultModel
	ExpenseEditable
	NextRecurrenceDate *types.Date  `json:"nextRecurrenceDate" example:"2025-07-01"` // Next date the expense materializes on. Only set on recurring originals.
	IsOriginal         bool         `json:"isOriginal" example:"true"`               // Is this the original of a recurring series?
	Links              ExpenseLinks `json:"links"`
}

func newExpense(c *gin.Context, db *gorm.DB, model models.Expense) (Expense, error) {
	url := c.GetString(string(models.DBContextURL))

	categoryName, err := model.CategoryName(db)
	if err != nil {
		return Expense{}, err
	}

	return Expense{
		DefaultModel: model.DefaultModel,
		ExpenseEditable: ExpenseEditable{
			Name:              model.Name,
			Amount:            model.Amount,
			Category:          categoryName,
			IsRecurring:       model.IsRecurring,
			RecurringInterval: model.RecurringInterval,
		},
		NextRecurrenceDate: model.NextRecurrenceDate,
		IsOriginal:         model.IsOriginal,
		Links: ExpenseLinks{
			Self: fmt.Sprintf("%s/v1/expenses/%s", url, model.ID),
		},
	}, nil
}

type ExpenseListResponse struct {
	Data       []Expense   `json:"data"`                                                          // List of expenses
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type ExpenseCreateResponse struct {
	Data  []ExpenseResponse `json:"data"`                                                          // List of the created expenses or their respective error
	Error *string           `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *ExpenseCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, ExpenseResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type ExpenseResponse struct {
	Data  *Expense `json:"data"`                                                          // Data for the expense
	Error *string  `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type ExpenseQueryFilter struct {
	Category    ez_uuid.UUID `form:"category" filterField:"false"` // By ID of the category. The Nil UUID filters for uncategorized expenses.
	Name        string       `form:"name" filterField:"false"`     // By name
	IsRecurring bool         `form:"recurring"`                    // Is the expense recurring?
	IsOriginal  bool         `form:"original"`                     // Is the expense the original of a recurring series?
	Search      string       `form:"search" filterField:"false"`   // By string in the name
	Offset      uint         `form:"offset" filterField:"false"`   // The offset of the first expense returned. Defaults to 0.
	Limit       int          `form:"limit" filterField:"false"`    // Maximum number of expenses to return. Defaults to 50.
}

func (f ExpenseQueryFilter) model() models.Expense {
	return models.Expense{
		IsRecurring: f.IsRecurring,
		IsOriginal:  f.IsOriginal,
	}
}
