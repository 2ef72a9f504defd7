package jobs_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendwise/backend/internal/jobs"
	"github.com/spendwise/backend/internal/models"
	"github.com/spendwise/backend/internal/recurrence"
	"github.com/spendwise/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (suite *TestSuiteStandard) TestMaterializeDueCreatesClone() {
	asOf := types.NewDate(2025, 6, 15)

	category := suite.createTestCategory(models.Category{Name: "Subscriptions"})
	original := suite.createDueExpense(models.Expense{
		Name:              "Streaming flatrate",
		Amount:            decimal.NewFromFloat(12.99),
		CategoryID:        &category.ID,
		RecurringInterval: recurrence.IntervalMonthly,
	}, asOf)

	result, err := jobs.NewMaterializer(suite.db).MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)

	require.Len(suite.T(), result.Created, 1)
	assert.Equal(suite.T(), []uuid.UUID{original.ID}, result.Advanced)
	assert.Empty(suite.T(), result.Errors)

	var clone models.Expense
	require.Nil(suite.T(), suite.db.First(&clone, "id = ?", result.Created[0]).Error)
	assert.Equal(suite.T(), "Streaming flatrate", clone.Name)
	assert.True(suite.T(), clone.Amount.Equal(decimal.NewFromFloat(12.99)))
	assert.Equal(suite.T(), &category.ID, clone.CategoryID)
	assert.True(suite.T(), clone.IsRecurring)
	assert.False(suite.T(), clone.IsOriginal)
	assert.Nil(suite.T(), clone.NextRecurrenceDate, "clones must not carry a schedule")

	var reloaded models.Expense
	require.Nil(suite.T(), suite.db.First(&reloaded, "id = ?", original.ID).Error)
	require.NotNil(suite.T(), reloaded.NextRecurrenceDate)
	assert.Equal(suite.T(), types.NewDate(2025, 7, 15), *reloaded.NextRecurrenceDate)
}

func (suite *TestSuiteStandard) TestMaterializeDueIdempotent() {
	asOf := types.NewDate(2025, 6, 15)
	suite.createDueExpense(models.Expense{Name: "Gym"}, asOf)

	materializer := jobs.NewMaterializer(suite.db)

	first, err := materializer.MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)
	require.Len(suite.T(), first.Created, 1)

	second, err := materializer.MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)
	assert.Empty(suite.T(), second.Created, "rerun on the same day must not create anything")
	assert.Empty(suite.T(), second.Advanced)

	var clones int64
	require.Nil(suite.T(), suite.db.Model(&models.Expense{}).Where("is_original = ?", false).Count(&clones).Error)
	assert.Equal(suite.T(), int64(1), clones)
}

func (suite *TestSuiteStandard) TestMaterializeDueAdvancesPastRunDate() {
	asOf := types.NewDate(2025, 6, 15)

	for _, interval := range []recurrence.Interval{
		recurrence.IntervalDaily,
		recurrence.IntervalWeekly,
		recurrence.IntervalMonthly,
	} {
		expense := suite.createDueExpense(models.Expense{
			Name:              "Recurring " + string(interval),
			RecurringInterval: interval,
		}, asOf)

		_, err := jobs.NewMaterializer(suite.db).MaterializeDue(context.Background(), asOf)
		require.Nil(suite.T(), err)

		var reloaded models.Expense
		require.Nil(suite.T(), suite.db.First(&reloaded, "id = ?", expense.ID).Error)
		require.NotNil(suite.T(), reloaded.NextRecurrenceDate)
		assert.True(suite.T(), reloaded.NextRecurrenceDate.After(asOf), "schedule must move past the run date")
	}
}

func (suite *TestSuiteStandard) TestMaterializeDueCatchesUpMissedDays() {
	asOf := types.NewDate(2025, 6, 15)

	// The last run happened days ago, e.g. because the backend was
	// down over the weekend
	original := suite.createDueExpense(models.Expense{
		Name:              "Coffee beans",
		RecurringInterval: recurrence.IntervalDaily,
	}, types.NewDate(2025, 6, 13))

	result, err := jobs.NewMaterializer(suite.db).MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)

	assert.Len(suite.T(), result.Created, 3, "one clone per missed occurrence")
	assert.Equal(suite.T(), []uuid.UUID{original.ID}, result.Advanced)
	assert.Empty(suite.T(), result.Errors)

	var reloaded models.Expense
	require.Nil(suite.T(), suite.db.First(&reloaded, "id = ?", original.ID).Error)
	require.NotNil(suite.T(), reloaded.NextRecurrenceDate)
	assert.Equal(suite.T(), types.NewDate(2025, 6, 16), *reloaded.NextRecurrenceDate)

	// The caught-up series is not due anymore
	second, err := jobs.NewMaterializer(suite.db).MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)
	assert.Empty(suite.T(), second.Created)
}

func (suite *TestSuiteStandard) TestMaterializeDueEndOfMonthClamp() {
	asOf := types.NewDate(2025, 1, 31)
	original := suite.createDueExpense(models.Expense{
		Name:              "Rent",
		Amount:            decimal.NewFromFloat(950),
		RecurringInterval: recurrence.IntervalMonthly,
	}, asOf)

	_, err := jobs.NewMaterializer(suite.db).MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)

	var reloaded models.Expense
	require.Nil(suite.T(), suite.db.First(&reloaded, "id = ?", original.ID).Error)
	require.NotNil(suite.T(), reloaded.NextRecurrenceDate)
	assert.Equal(suite.T(), types.NewDate(2025, 2, 28), *reloaded.NextRecurrenceDate)
}

func (suite *TestSuiteStandard) TestMaterializeDueNothingDue() {
	asOf := types.NewDate(2025, 6, 15)

	// Plain expense and a series due in the future only
	suite.createTestExpense(models.Expense{Name: "One-off"})
	suite.createDueExpense(models.Expense{Name: "Later"}, types.NewDate(2025, 6, 16))

	result, err := jobs.NewMaterializer(suite.db).MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)

	assert.Empty(suite.T(), result.Created)
	assert.Empty(suite.T(), result.Advanced)
	assert.Empty(suite.T(), result.Errors)
}

func (suite *TestSuiteStandard) TestMaterializeDueMissingSchedule() {
	asOf := types.NewDate(2025, 6, 15)
	expense := suite.createDueExpense(models.Expense{Name: "Broken"}, asOf)

	// Simulate inconsistent stored data
	require.Nil(suite.T(), suite.db.Model(&expense).UpdateColumn("next_recurrence_date", nil).Error)

	result, err := jobs.NewMaterializer(suite.db).MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)

	assert.Empty(suite.T(), result.Created)
	require.Len(suite.T(), result.Errors, 1)
	assert.Equal(suite.T(), expense.ID, result.Errors[0].ID)
	assert.Contains(suite.T(), result.Errors[0].Error, models.ErrScheduleMissing.Error())
}

func (suite *TestSuiteStandard) TestMaterializeDueUnknownInterval() {
	asOf := types.NewDate(2025, 6, 15)
	expense := suite.createDueExpense(models.Expense{Name: "Odd"}, asOf)

	require.Nil(suite.T(), suite.db.Model(&expense).UpdateColumn("recurring_interval", "fortnightly").Error)

	result, err := jobs.NewMaterializer(suite.db).MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)

	assert.Empty(suite.T(), result.Created)
	require.Len(suite.T(), result.Errors, 1)
	assert.Equal(suite.T(), expense.ID, result.Errors[0].ID)

	// The series is untouched so the fix can be retried
	var reloaded models.Expense
	require.Nil(suite.T(), suite.db.First(&reloaded, "id = ?", expense.ID).Error)
	require.NotNil(suite.T(), reloaded.NextRecurrenceDate)
	assert.Equal(suite.T(), asOf, *reloaded.NextRecurrenceDate)

	var clones int64
	require.Nil(suite.T(), suite.db.Model(&models.Expense{}).Where("is_original = ?", false).Count(&clones).Error)
	assert.Equal(suite.T(), int64(0), clones)
}

func (suite *TestSuiteStandard) TestMaterializeDueOneFailureDoesNotStopRun() {
	asOf := types.NewDate(2025, 6, 15)

	broken := suite.createDueExpense(models.Expense{Name: "Broken"}, asOf)
	require.Nil(suite.T(), suite.db.Model(&broken).UpdateColumn("recurring_interval", "fortnightly").Error)

	healthy := suite.createDueExpense(models.Expense{Name: "Healthy"}, asOf)

	result, err := jobs.NewMaterializer(suite.db).MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)

	assert.Len(suite.T(), result.Created, 1)
	assert.Equal(suite.T(), []uuid.UUID{healthy.ID}, result.Advanced)
	require.Len(suite.T(), result.Errors, 1)
	assert.Equal(suite.T(), broken.ID, result.Errors[0].ID)
}

func (suite *TestSuiteStandard) TestMaterializeDueAtomicPerOriginal() {
	asOf := types.NewDate(2025, 6, 15)
	original := suite.createDueExpense(models.Expense{Name: "Atomic"}, asOf)

	// Fail the schedule advance so the clone creation has to roll back
	err := suite.db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(db *gorm.DB) {
		if db.Statement.Table == "expenses" {
			_ = db.AddError(errors.New("forced update failure"))
		}
	})
	require.Nil(suite.T(), err)

	defer func() {
		require.Nil(suite.T(), suite.db.Callback().Update().Remove("test:fail_update"))
	}()

	result, err := jobs.NewMaterializer(suite.db).MaterializeDue(context.Background(), asOf)
	require.Nil(suite.T(), err)

	assert.Empty(suite.T(), result.Created)
	require.Len(suite.T(), result.Errors, 1)
	assert.Equal(suite.T(), original.ID, result.Errors[0].ID)

	var clones int64
	require.Nil(suite.T(), suite.db.Model(&models.Expense{}).Where("is_original = ?", false).Count(&clones).Error)
	assert.Equal(suite.T(), int64(0), clones, "clone must be rolled back with the failed advance")

	var reloaded models.Expense
	require.Nil(suite.T(), suite.db.First(&reloaded, "id = ?", original.ID).Error)
	require.NotNil(suite.T(), reloaded.NextRecurrenceDate)
	assert.Equal(suite.T(), asOf, *reloaded.NextRecurrenceDate)
}

func (suite *TestSuiteStandard) TestMaterializeDueCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := jobs.NewMaterializer(suite.db).MaterializeDue(ctx, types.DateOf(time.Now()))
	assert.NotNil(suite.T(), err)
}
