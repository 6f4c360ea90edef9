// Package importer ingests bank-statement CSV exports: it maps the
// columns, normalizes signed amounts into (magnitude, direction),
// auto-categorizes each row and finishes with a recurrence detection run.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

var (
	ErrMissingColumns = errors.New("csv must contain date, description and amount columns")
	ErrEmptyFile      = errors.New("csv file is empty")
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006"}

// Result summarizes one import run.
type Result struct {
	Imported int
	Skipped  int
}

// CSVImporter feeds parsed statement rows through the transaction write
// path, then triggers detection once for the whole batch.
type CSVImporter struct {
	transactions *services.TransactionService
	detection    *services.DetectionService
}

func NewCSVImporter(transactions *services.TransactionService, detection *services.DetectionService) *CSVImporter {
	return &CSVImporter{
		transactions: transactions,
		detection:    detection,
	}
}

// Import reads a CSV stream for one user. The header row must name date,
// description and amount columns (any order, case-insensitive). Rows with
// unparseable dates or amounts are skipped, not fatal. Amounts carry
// direction in their sign: non-negative is a credit, negative a debit
// stored as its absolute value.
func (im *CSVImporter) Import(ctx context.Context, userID int64, r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Result{}, ErrEmptyFile
	}
	if err != nil {
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}

	dateIdx, descIdx, amountIdx := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			dateIdx = i
		case "description":
			descIdx = i
		case "amount":
			amountIdx = i
		}
	}
	if dateIdx < 0 || descIdx < 0 || amountIdx < 0 {
		return Result{}, ErrMissingColumns
	}

	var batch []core.Transaction
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read csv row: %w", err)
		}
		maxIdx := dateIdx
		if descIdx > maxIdx {
			maxIdx = descIdx
		}
		if amountIdx > maxIdx {
			maxIdx = amountIdx
		}
		if len(row) <= maxIdx {
			skipped++
			continue
		}

		date, ok := parseDate(row[dateIdx])
		if !ok {
			skipped++
			continue
		}
		signedCents, err := core.ParseSignedDecimalToCents(row[amountIdx])
		if err != nil {
			skipped++
			continue
		}
		desc := strings.TrimSpace(row[descIdx])
		if desc == "" {
			skipped++
			continue
		}

		amount, txType := core.NormalizeSigned(signedCents)
		batch = append(batch, core.Transaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Type:        txType,
		})
	}

	imported, err := im.transactions.BulkCreate(ctx, userID, batch)
	if err != nil {
		return Result{Imported: imported, Skipped: skipped}, fmt.Errorf("import transactions: %w", err)
	}

	// Fresh history, fresh subscriptions: rescan before the caller reads
	// the dashboard back.
	if _, err := im.detection.DetectForUser(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "Post-import detection failed", "user_id", userID, "error", err)
	}

	slog.InfoContext(ctx, "CSV import complete",
		"user_id", userID,
		"imported", imported,
		"skipped", skipped)

	return Result{Imported: imported, Skipped: skipped}, nil
}

func parseDate(s string) (core.Date, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), true
		}
	}
	return core.Date{}, false
}
