package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UncategorizedName is the display name for expenses that do not
// reference a category, matching what the frontend shows.
const UncategorizedName = "n/a"

// Category represents a named grouping of expenses.
type Category struct {
	DefaultModel
	Name string `gorm:"uniqueIndex"`
	Note string
}

func (c *Category) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Note = strings.TrimSpace(c.Note)
	return nil
}

// AfterSave runs after partial updates are merged into the model, so
// it sees the final state. An error rolls back the statement.
func (c *Category) AfterSave(_ *gorm.DB) error {
	if c.Name == "" {
		return ErrCategoryNameEmpty
	}

	return nil
}

// Expenses returns all expenses referencing the category.
func (c Category) Expenses(db *gorm.DB) ([]Expense, error) {
	var expenses []Expense

	err := db.Where(&Expense{CategoryID: &c.ID}).Order("created_at DESC").Find(&expenses).Error
	if err != nil {
		return nil, err
	}

	return expenses, nil
}

// CategoryByNameOrCreate returns the category with the given name,
// creating it when it does not exist yet. Expenses can reference
// categories that have never been created explicitly.
func CategoryByNameOrCreate(db *gorm.DB, name string) (Category, error) {
	name = strings.TrimSpace(name)

	var category Category
	err := db.Where("name = ?", name).First(&category).Error
	if err == nil {
		return category, nil
	}

	if !errors.Is(err, ErrResourceNotFound) {
		return Category{}, err
	}

	category = Category{Name: name}
	err = db.Create(&category).Error
	if err != nil {
		return Category{}, err
	}

	return category, nil
}

// RenameCategory sets a new name for the category.
//
// Expenses reference categories by ID and resolve the name at read
// time, so a rename never touches expense rows. The rename still runs
// in a transaction so that the conflict check and the write cannot be
// interleaved with another writer.
func RenameCategory(db *gorm.DB, id uuid.UUID, newName string) (Category, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return Category{}, ErrCategoryNameEmpty
	}

	var category Category
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&category, "id = ?", id).Error
		if err != nil {
			return err
		}

		// Explicit conflict check so that renaming to a name held by a
		// different category reports a conflict instead of a generic
		// constraint violation. The unique index still backs this up.
		var existing Category
		err = tx.Where("name = ? AND id != ?", newName, id).First(&existing).Error
		if err == nil {
			return ErrCategoryNameNotUnique
		}
		if !errors.Is(err, ErrResourceNotFound) {
			return err
		}

		return tx.Model(&category).Select("Name").Updates(Category{Name: newName}).Error
	})
	if err != nil {
		return Category{}, err
	}

	return category, nil
}

// DeleteCategory deletes the category and repoints all expenses that
// reference it to the uncategorized sentinel, in one transaction.
// No expense is ever left with a dangling category reference.
//
// It returns the deleted category and the number of repointed expenses.
func DeleteCategory(db *gorm.DB, id uuid.UUID) (Category, int64, error) {
	var category Category
	var repointed int64

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&category, "id = ?", id).Error
		if err != nil {
			return err
		}

		// UpdateColumn skips the expense validation hooks, which expect
		// a fully populated model rather than a batch update.
		res := tx.Model(&Expense{}).
			Where("category_id = ?", id).
			UpdateColumn("category_id", nil)
		if res.Error != nil {
			return res.Error
		}
		repointed = res.RowsAffected

		// Hard delete: the unique name index would otherwise block
		// re-creating a category with the same name later.
		return tx.Unscoped().Delete(&category).Error
	})
	if err != nil {
		return Category{}, 0, err
	}

	return category, repointed, nil
}
