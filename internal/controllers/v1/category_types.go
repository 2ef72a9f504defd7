package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/backend/internal/models"
)

// CategoryEditable represents all user configurable parameters
type CategoryEditable struct {
	Name string `json:"name" example:"Groceries" default:""`             // Name of the category, must be unique
	Note string `json:"note" example:"Everything bought at the market"` // Notes about the category
}

func (editable CategoryEditable) model() models.Category {
	return models.Category{
		Name: editable.Name,
		Note: editable.Note,
	}
}

type CategoryLinks struct {
	Self     string `json:"self" example:"https://example.com/v1/categories/3b1ea324-d438-4419-882a-2fc91d71772f"`              // The category itself
	Expenses string `json:"expenses" example:"https://example.com/v1/expenses?category=3b1ea324-d438-4419-882a-2fc91d71772f"` // Expenses in this category
}

type Category struct {
	models.DefaultModel
	CategoryEditable
	Links CategoryLinks `json:"links"`
}

func newCategory(c *gin.Context, model models.Category) Category {
	url := c.GetString(string(models.DBContextURL))

	return Category{
		DefaultModel: model.DefaultModel,
		CategoryEditable: CategoryEditable{
			Name: model.Name,
			Note: model.Note,
		},
		Links: CategoryLinks{
			Self:     fmt.Sprintf("%s/v1/categories/%s", url, model.ID),
			Expenses: fmt.Sprintf("%s/v1/expenses?category=%s", url, model.ID),
		},
	}
}

type CategoryListResponse struct {
	Data       []Category  `json:"data"`                                                          // List of categories
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type CategoryCreateResponse struct {
	Data  []CategoryResponse `json:"data"`                                                          // List of the created categories or their respective error
	Error *string            `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *CategoryCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, CategoryResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type CategoryResponse struct {
	Data  *Category `json:"data"`                                                          // Data for the category
	Error *string   `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type CategoryDeleteResponse struct {
	Data  *CategoryDeleteResult `json:"data"`                                                          // Result of the deletion
	Error *string               `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

// CategoryDeleteResult reports how many expenses were moved to the
// uncategorized state by the deletion.
type CategoryDeleteResult struct {
	Uncategorized int64 `json:"uncategorized" example:"3"` // Number of expenses that no longer reference the deleted category
}

type CategoryQueryFilter struct {
	Name   string `form:"name" filterField:"false"`   // By name
	Note   string `form:"note" filterField:"false"`   // By note
	Search string `form:"search" filterField:"false"` // By string in name or note
	Offset uint   `form:"offset" filterField:"false"` // The offset of the first category returned. Defaults to 0.
	Limit  int    `form:"limit" filterField:"false"`  // Maximum number of categories to return. Defaults to 50.
}
