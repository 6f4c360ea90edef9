package services

import (
	"context"
	"testing"

	"fintrack/internal/categorize"
	"fintrack/internal/core"
	"fintrack/internal/memory"
	"fintrack/internal/storage"
)

func newTransactionService(t *testing.T) (*TransactionService, *memory.Store) {
	t.Helper()
	store := memory.NewWithDefaults()
	taxonomy, err := store.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("load taxonomy: %v", err)
	}
	return NewTransactionService(store, categorize.New(taxonomy), nil), store
}

func categoryID(t *testing.T, store *memory.Store, name string) int64 {
	t.Helper()
	cat, err := store.FindCategoryByName(context.Background(), name)
	if err != nil || cat == nil {
		t.Fatalf("category %q not found: %v", name, err)
	}
	return cat.ID
}

func TestTransactionService_CreateAutoCategorizes(t *testing.T) {
	svc, store := newTransactionService(t)
	ctx := context.Background()

	tests := []struct {
		name         string
		description  string
		txType       core.TransactionType
		wantCategory string
	}{
		{name: "debit matches keywords", description: "NETFLIX.COM", txType: core.Debit, wantCategory: "Entertainment"},
		{name: "credit goes to income", description: "ACME payroll", txType: core.Credit, wantCategory: core.IncomeCategory},
		{name: "unmatched debit falls back", description: "mystery merchant", txType: core.Debit, wantCategory: core.OtherCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := svc.Create(ctx, core.Transaction{
				UserID:      1,
				Date:        core.NewDate(2024, 3, 1),
				Description: tt.description,
				Amount:      core.Money{Cents: 1000},
				Type:        tt.txType,
			})
			if err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			want := categoryID(t, store, tt.wantCategory)
			if created.CategoryID == nil || *created.CategoryID != want {
				t.Errorf("CategoryID = %v, want %d (%s)", created.CategoryID, want, tt.wantCategory)
			}
		})
	}
}

func TestTransactionService_CreateKeepsExplicitCategory(t *testing.T) {
	svc, store := newTransactionService(t)
	travel := categoryID(t, store, "Travel")

	created, err := svc.Create(context.Background(), core.Transaction{
		UserID:      1,
		Date:        core.NewDate(2024, 3, 1),
		Description: "netflix gift card", // would otherwise match Entertainment
		Amount:      core.Money{Cents: 2500},
		Type:        core.Debit,
		CategoryID:  &travel,
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if created.CategoryID == nil || *created.CategoryID != travel {
		t.Errorf("CategoryID = %v, want explicit %d", created.CategoryID, travel)
	}
}

func TestTransactionService_CreateRejectsInvalid(t *testing.T) {
	svc, _ := newTransactionService(t)
	_, err := svc.Create(context.Background(), core.Transaction{
		UserID: 1,
		Date:   core.NewDate(2024, 3, 1),
		Amount: core.Money{Cents: 100},
		Type:   core.Debit,
	})
	if err == nil {
		t.Error("Create() with empty description expected error")
	}
}

func TestTransactionService_BulkCreate(t *testing.T) {
	svc, store := newTransactionService(t)
	ctx := context.Background()

	batch := []core.Transaction{
		{Date: core.NewDate(2024, 1, 1), Description: "uber ride", Amount: core.Money{Cents: 900}, Type: core.Debit},
		{Date: core.NewDate(2024, 1, 2), Description: "salary", Amount: core.Money{Cents: 500000}, Type: core.Credit},
	}

	created, err := svc.BulkCreate(ctx, 7, batch)
	if err != nil {
		t.Fatalf("BulkCreate() error: %v", err)
	}
	if created != 2 {
		t.Errorf("BulkCreate() = %d, want 2", created)
	}

	stored, _ := store.ListTransactions(ctx, 7, storage.TransactionFilter{})
	if len(stored) != 2 {
		t.Errorf("store has %d transactions for user 7, want 2", len(stored))
	}
	for _, tx := range stored {
		if tx.CategoryID == nil {
			t.Errorf("transaction %q was not categorized", tx.Description)
		}
	}
}

func TestTransactionService_BulkCreateStopsAtFirstFailure(t *testing.T) {
	svc, store := newTransactionService(t)
	ctx := context.Background()

	batch := []core.Transaction{
		{Date: core.NewDate(2024, 1, 1), Description: "ok", Amount: core.Money{Cents: 100}, Type: core.Debit},
		{Date: core.Date{}, Description: "bad date", Amount: core.Money{Cents: 100}, Type: core.Debit},
		{Date: core.NewDate(2024, 1, 3), Description: "never reached", Amount: core.Money{Cents: 100}, Type: core.Debit},
	}

	created, err := svc.BulkCreate(ctx, 7, batch)
	if err == nil {
		t.Fatal("BulkCreate() expected error on invalid row")
	}
	if created != 1 {
		t.Errorf("BulkCreate() created = %d, want 1", created)
	}
	stored, _ := store.ListTransactions(ctx, 7, storage.TransactionFilter{})
	if len(stored) != 1 {
		t.Errorf("store has %d transactions, want 1", len(stored))
	}
}
