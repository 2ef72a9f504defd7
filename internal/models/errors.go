package models

import (
	"errors"
)

var (
	// ErrGeneral is the fallback for errors we cannot translate into
	// something actionable for the user.
	ErrGeneral = errors.New("an error occurred on the server during your request")

	// ErrResourceNotFound is wrapped with the resource name by the
	// query callback, see database.go.
	ErrResourceNotFound = errors.New("there is no")

	ErrExpenseNameEmpty          = errors.New("the expense name must be set")
	ErrExpenseAmountNotPositive  = errors.New("the expense amount must be positive")
	ErrRecurringIntervalRequired = errors.New("a recurring interval is required for recurring expenses")

	ErrCategoryNameEmpty     = errors.New("the category name must be set")
	ErrCategoryNameNotUnique = errors.New("a category with this name already exists")

	// ErrScheduleMissing marks a recurring original without a next
	// occurrence date. Such records cannot be materialized and are
	// skipped and reported.
	ErrScheduleMissing = errors.New("the recurring expense has no next occurrence date")
)
