package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fintrack/internal/categorize"
	"fintrack/internal/core"
	"fintrack/internal/memory"
	"fintrack/internal/recurrence"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newImporter(t *testing.T) (*CSVImporter, *memory.Store) {
	t.Helper()
	store := memory.NewWithDefaults()
	taxonomy, err := store.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("load taxonomy: %v", err)
	}
	transactions := services.NewTransactionService(store, categorize.New(taxonomy), nil)
	detection := services.NewDetectionService(store, recurrence.NewDetector(nil))
	return NewCSVImporter(transactions, detection), store
}

func TestCSVImporter_Import(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	csvData := strings.Join([]string{
		"Date,Description,Amount",
		"2024-01-05,Netflix,-15.99",
		"2024-02-05,Netflix,-15.99",
		"2024-03-05,Netflix,-15.99",
		"2024-01-31,Salary,2500.00",
		"not-a-date,Broken,-1.00",
		"2024-01-10,Bad amount,abc",
	}, "\n")

	result, err := im.Import(ctx, 1, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if result.Imported != 4 {
		t.Errorf("Imported = %d, want 4", result.Imported)
	}
	if result.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", result.Skipped)
	}

	txs, err := store.ListTransactions(ctx, 1, storage.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions() error: %v", err)
	}
	if len(txs) != 4 {
		t.Fatalf("store has %d transactions, want 4", len(txs))
	}
	for _, tx := range txs {
		if tx.Amount.Cents < 0 {
			t.Errorf("transaction %q stored with negative amount %d", tx.Description, tx.Amount.Cents)
		}
		if tx.Description == "Salary" && tx.Type != core.Credit {
			t.Errorf("Salary stored as %s, want credit", tx.Type)
		}
		if tx.Description == "Netflix" && tx.Type != core.Debit {
			t.Errorf("Netflix stored as %s, want debit", tx.Type)
		}
	}

	// Import ends with a detection pass over the fresh history.
	recurring, err := store.ListRecurringPayments(ctx, 1)
	if err != nil {
		t.Fatalf("ListRecurringPayments() error: %v", err)
	}
	if len(recurring) != 1 || recurring[0].ServiceName != "netflix" {
		t.Errorf("recurring = %+v, want one netflix entry", recurring)
	}
}

func TestCSVImporter_HeaderVariants(t *testing.T) {
	tests := []struct {
		name   string
		csv    string
		wantOK bool
	}{
		{
			name:   "reordered case-insensitive header",
			csv:    "AMOUNT,date,Description\n-5.00,2024-01-01,Coffee",
			wantOK: true,
		},
		{
			name:   "extra columns ignored",
			csv:    "Date,Balance,Description,Amount\n2024-01-01,100.00,Coffee,-5.00",
			wantOK: true,
		},
		{
			name: "missing amount column",
			csv:  "Date,Description\n2024-01-01,Coffee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im, _ := newImporter(t)
			result, err := im.Import(context.Background(), 1, strings.NewReader(tt.csv))
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Import() error: %v", err)
				}
				if result.Imported != 1 {
					t.Errorf("Imported = %d, want 1", result.Imported)
				}
				return
			}
			if !errors.Is(err, ErrMissingColumns) {
				t.Errorf("Import() error = %v, want ErrMissingColumns", err)
			}
		})
	}
}

func TestCSVImporter_DateFormats(t *testing.T) {
	im, store := newImporter(t)
	csvData := "Date,Description,Amount\n" +
		"2024-01-05,ISO,-1.00\n" +
		"06/02/2024,European,-1.00\n"

	result, err := im.Import(context.Background(), 1, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("Imported = %d, want 2", result.Imported)
	}

	txs, _ := store.ListTransactions(context.Background(), 1, storage.TransactionFilter{})
	for _, tx := range txs {
		if tx.Description == "European" && tx.Date.String() != "2024-02-06" {
			t.Errorf("European row parsed as %s, want 2024-02-06 (day first)", tx.Date)
		}
	}
}

func TestCSVImporter_EmptyFile(t *testing.T) {
	im, _ := newImporter(t)
	if _, err := im.Import(context.Background(), 1, strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("Import() error = %v, want ErrEmptyFile", err)
	}
}
