package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/spendwise/backend/internal/models"
	"github.com/spendwise/backend/internal/recurrence"
	"github.com/spendwise/backend/internal/types"
)

// Materializer turns due recurring originals into concrete expense
// records and advances their schedules.
type Materializer struct {
	db *gorm.DB
}

func NewMaterializer(db *gorm.DB) *Materializer {
	return &Materializer{db: db}
}

// ItemError records a recurring original that could not be
// materialized. The rest of the run is unaffected.
type ItemError struct {
	ID    uuid.UUID
	Error string
}

// Result summarizes a materialization run.
type Result struct {
	// IDs of the created clones
	Created []uuid.UUID

	// IDs of the originals whose schedule was advanced
	Advanced []uuid.UUID

	Errors []ItemError
}

// MaterializeDue creates a clone for every occurrence of a recurring
// original that is due on or before asOf and moves its schedule to
// the first occurrence after asOf. A run that was delayed past the
// due day therefore catches up on the missed occurrences instead of
// stalling the series.
//
// Clones and schedule advance happen in one transaction per original,
// so an original is either fully materialized or untouched. Since the
// advance moves the schedule past asOf, a second run on the same day
// finds nothing due and creates nothing.
func (m *Materializer) MaterializeDue(ctx context.Context, asOf types.Date) (Result, error) {
	db := m.db.WithContext(ctx)

	due, err := models.DueRecurringExpenses(db, asOf)
	if err != nil {
		return Result{}, fmt.Errorf("load due recurring expenses: %w", err)
	}

	log.Debug().Stringer("asOf", asOf).Int("due", len(due)).Msg("materializing recurring expenses")

	var result Result
	for _, expense := range due {
		if expense.NextRecurrenceDate == nil {
			// A recurring original always carries a schedule, a nil one
			// means the stored data is inconsistent
			result.Errors = append(result.Errors, ItemError{
				ID:    expense.ID,
				Error: models.ErrScheduleMissing.Error(),
			})
			materializeErrorCount.Inc()

			log.Warn().Stringer("id", expense.ID).Msg(models.ErrScheduleMissing.Error())
			continue
		}

		cloneIDs, err := m.materialize(db, expense, asOf)
		if err != nil {
			result.Errors = append(result.Errors, ItemError{ID: expense.ID, Error: err.Error()})
			materializeErrorCount.Inc()

			log.Error().Err(err).Stringer("id", expense.ID).Msg("could not materialize recurring expense")
			continue
		}

		result.Created = append(result.Created, cloneIDs...)
		result.Advanced = append(result.Advanced, expense.ID)
		materializedCount.Add(float64(len(cloneIDs)))
	}

	log.Info().
		Stringer("asOf", asOf).
		Int("created", len(result.Created)).
		Int("errors", len(result.Errors)).
		Msg("materialization run complete")

	return result, nil
}

func (m *Materializer) materialize(db *gorm.DB, original models.Expense, asOf types.Date) ([]uuid.UUID, error) {
	var created []uuid.UUID

	err := db.Transaction(func(tx *gorm.DB) error {
		// One clone per occurrence that has come due
		next := *original.NextRecurrenceDate
		for !next.After(asOf) {
			clone := models.Expense{
				Name:              original.Name,
				Amount:            original.Amount,
				CategoryID:        original.CategoryID,
				IsRecurring:       true,
				RecurringInterval: original.RecurringInterval,
				IsOriginal:        false,
			}

			err := tx.Create(&clone).Error
			if err != nil {
				return fmt.Errorf("create clone: %w", err)
			}
			created = append(created, clone.ID)

			next, err = recurrence.Next(next, original.RecurringInterval)
			if err != nil {
				return err
			}
		}

		err := tx.Model(&models.Expense{DefaultModel: models.DefaultModel{ID: original.ID}}).
			UpdateColumn("next_recurrence_date", next).Error
		if err != nil {
			return fmt.Errorf("advance schedule: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
