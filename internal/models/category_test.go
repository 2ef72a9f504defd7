package models_test

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spendwise/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (suite *TestSuiteStandard) TestCategoryTrimWhitespace() {
	name := "\t Groceries   "
	note := " Everything the supermarket sells    "

	category := suite.createTestCategory(models.Category{Name: name, Note: note})

	assert.Equal(suite.T(), strings.TrimSpace(name), category.Name)
	assert.Equal(suite.T(), strings.TrimSpace(note), category.Note)
}

func (suite *TestSuiteStandard) TestCategoryNameEmpty() {
	err := suite.db.Create(&models.Category{Name: "   "}).Error
	assert.ErrorIs(suite.T(), err, models.ErrCategoryNameEmpty)
}

func (suite *TestSuiteStandard) TestCategoryNameUnique() {
	_ = suite.createTestCategory(models.Category{Name: "Groceries"})

	err := suite.db.Create(&models.Category{Name: "Groceries"}).Error
	assert.ErrorIs(suite.T(), err, models.ErrCategoryNameNotUnique)
}

func (suite *TestSuiteStandard) TestCategoryByNameOrCreate() {
	existing := suite.createTestCategory(models.Category{Name: "Rent"})

	category, err := models.CategoryByNameOrCreate(suite.db, "Rent")
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), existing.ID, category.ID)

	// An unknown name creates the category implicitly
	category, err = models.CategoryByNameOrCreate(suite.db, " Utilities ")
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), "Utilities", category.Name)
	assert.NotEqual(suite.T(), uuid.Nil, category.ID)

	var count int64
	suite.db.Model(&models.Category{}).Count(&count)
	assert.Equal(suite.T(), int64(2), count)
}

func (suite *TestSuiteStandard) TestRenameCategory() {
	category := suite.createTestCategory(models.Category{Name: "Food"})
	expense := suite.createTestExpense(models.Expense{CategoryID: &category.ID})

	renamed, err := models.RenameCategory(suite.db, category.ID, "Eating out")
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), "Eating out", renamed.Name)

	// The expense still references the category by ID, the new name
	// resolves at read time
	name, err := expense.CategoryName(suite.db)
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), "Eating out", name)
}

func (suite *TestSuiteStandard) TestRenameCategoryConflict() {
	_ = suite.createTestCategory(models.Category{Name: "Food"})
	category := suite.createTestCategory(models.Category{Name: "Travel"})

	_, err := models.RenameCategory(suite.db, category.ID, "Food")
	assert.ErrorIs(suite.T(), err, models.ErrCategoryNameNotUnique)

	// The category is unchanged
	var reloaded models.Category
	require.Nil(suite.T(), suite.db.First(&reloaded, "id = ?", category.ID).Error)
	assert.Equal(suite.T(), "Travel", reloaded.Name)
}

func (suite *TestSuiteStandard) TestRenameCategorySameName() {
	category := suite.createTestCategory(models.Category{Name: "Food"})

	// Renaming a category to its own name is not a conflict
	renamed, err := models.RenameCategory(suite.db, category.ID, "Food")
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), "Food", renamed.Name)
}

func (suite *TestSuiteStandard) TestRenameCategoryNotFound() {
	_, err := models.RenameCategory(suite.db, uuid.New(), "Anything")
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestDeleteCategoryCascade() {
	category := suite.createTestCategory(models.Category{Name: "Subscriptions"})
	other := suite.createTestCategory(models.Category{Name: "Rent"})

	for i := 0; i < 3; i++ {
		_ = suite.createTestExpense(models.Expense{CategoryID: &category.ID})
	}
	untouched := suite.createTestExpense(models.Expense{CategoryID: &other.ID})

	deleted, repointed, err := models.DeleteCategory(suite.db, category.ID)
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), "Subscriptions", deleted.Name)
	assert.Equal(suite.T(), int64(3), repointed)

	// All three expenses now resolve to the uncategorized sentinel
	var dangling int64
	suite.db.Model(&models.Expense{}).Where("category_id = ?", category.ID).Count(&dangling)
	assert.Equal(suite.T(), int64(0), dangling)

	var uncategorized int64
	suite.db.Model(&models.Expense{}).Where("category_id IS NULL").Count(&uncategorized)
	assert.Equal(suite.T(), int64(3), uncategorized)

	// Expenses of other categories are untouched
	var reloaded models.Expense
	require.Nil(suite.T(), suite.db.First(&reloaded, "id = ?", untouched.ID).Error)
	require.NotNil(suite.T(), reloaded.CategoryID)
	assert.Equal(suite.T(), other.ID, *reloaded.CategoryID)

	// The category name can be used again
	_, err = models.CategoryByNameOrCreate(suite.db, "Subscriptions")
	assert.Nil(suite.T(), err)
}

func (suite *TestSuiteStandard) TestDeleteCategoryNotFound() {
	_, _, err := models.DeleteCategory(suite.db, uuid.New())
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)
}

// TestDeleteCategoryAtomic verifies that a failure during the delete
// rolls back the expense fan-out: either everything happens or nothing.
func (suite *TestSuiteStandard) TestDeleteCategoryAtomic() {
	category := suite.createTestCategory(models.Category{Name: "Subscriptions"})
	for i := 0; i < 3; i++ {
		_ = suite.createTestExpense(models.Expense{CategoryID: &category.ID})
	}

	// Make the category delete fail after the expenses were repointed
	err := suite.db.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(db *gorm.DB) {
		if db.Statement.Table == "categories" {
			_ = db.AddError(gorm.ErrInvalidTransaction)
		}
	})
	require.Nil(suite.T(), err)

	_, _, err = models.DeleteCategory(suite.db, category.ID)
	require.NotNil(suite.T(), err)

	require.Nil(suite.T(), suite.db.Callback().Delete().Remove("test:fail_delete"))

	// Neither the category nor any expense changed
	var reloaded models.Category
	assert.Nil(suite.T(), suite.db.First(&reloaded, "id = ?", category.ID).Error)

	var referencing int64
	suite.db.Model(&models.Expense{}).Where("category_id = ?", category.ID).Count(&referencing)
	assert.Equal(suite.T(), int64(3), referencing)
}
