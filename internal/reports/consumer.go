package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/spendwise/backend/internal/models"
	"github.com/spendwise/backend/internal/types"
)

// Consumer turns report requests into CSV files on disk.
type Consumer struct {
	db  *gorm.DB
	dir string
}

func NewConsumer(db *gorm.DB, dir string) *Consumer {
	return &Consumer{db: db, dir: dir}
}

// Source delivers report request messages. Implemented by Client.
type Source interface {
	Consume(ctx context.Context, handler func(context.Context, []byte) error) error
}

// Run consumes report requests from the source until the context is
// cancelled.
func (c *Consumer) Run(ctx context.Context, source Source) error {
	return source.Consume(ctx, c.HandleRequest)
}

// HandleRequest processes one report request message. The report
// covers the month before the request's timestamp.
//
// The report file is overwritten when it already exists, so the
// queue's at-least-once delivery cannot produce duplicate reports.
func (c *Consumer) HandleRequest(ctx context.Context, body []byte) error {
	var request Request
	err := json.Unmarshal(body, &request)
	if err != nil {
		return fmt.Errorf("decode report request: %w", err)
	}

	month := types.MonthOf(request.Timestamp.UTC()).AddDate(0, -1)

	report, err := c.MonthlyCSV(ctx, month)
	if err != nil {
		return err
	}

	path := filepath.Join(c.dir, month.String()+".csv")
	err = os.WriteFile(path, report, 0o644)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	reportGeneratedCount.Inc()
	log.Info().
		Stringer("id", request.ID).
		Stringer("month", month).
		Str("path", path).
		Msg("monthly report generated")

	return nil
}

// MonthlyCSV renders all expenses created in the month as CSV.
func (c *Consumer) MonthlyCSV(ctx context.Context, month types.Month) ([]byte, error) {
	db := c.db.WithContext(ctx)

	expenses, err := models.ExpensesCreatedIn(db, month)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	var categories []models.Category
	err = db.Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	names := make(map[string]string, len(categories))
	for _, category := range categories {
		names[category.ID.String()] = category.Name
	}

	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)

	err = writer.Write([]string{"sl.no", "categoryName", "name", "amount", "isRecurring", "recurringInterval", "createdAt", "updatedAt"})
	if err != nil {
		return nil, err
	}

	for i, expense := range expenses {
		name := models.UncategorizedName
		if expense.CategoryID != nil {
			if resolved, ok := names[expense.CategoryID.String()]; ok {
				name = resolved
			}
		}

		err = writer.Write([]string{
			strconv.Itoa(i + 1),
			name,
			expense.Name,
			expense.Amount.String(),
			strconv.FormatBool(expense.IsRecurring),
			string(expense.RecurringInterval),
			expense.CreatedAt.Format(time.RFC3339),
			expense.UpdatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}
