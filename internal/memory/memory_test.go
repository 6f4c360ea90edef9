package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func newTx(userID int64, desc string, cents int64, txType core.TransactionType, date core.Date) core.Transaction {
	return core.Transaction{
		UserID:      userID,
		Date:        date,
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Type:        txType,
	}
}

func TestStore_Categories(t *testing.T) {
	s := NewWithDefaults()
	ctx := context.Background()

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error: %v", err)
	}
	if len(cats) != 11 {
		t.Fatalf("ListCategories() returned %d, want 11", len(cats))
	}
	for i, c := range cats {
		if c.ID != int64(i+1) {
			t.Errorf("category %q has ID %d, want %d", c.Name, c.ID, i+1)
		}
	}

	income, err := s.FindCategoryByName(ctx, core.IncomeCategory)
	if err != nil {
		t.Fatalf("FindCategoryByName() error: %v", err)
	}
	if income == nil || income.Name != core.IncomeCategory {
		t.Errorf("FindCategoryByName(Income) = %v, want the Income category", income)
	}

	missing, err := s.FindCategoryByName(ctx, "Nope")
	if err != nil {
		t.Fatalf("FindCategoryByName(Nope) error: %v", err)
	}
	if missing != nil {
		t.Errorf("FindCategoryByName(Nope) = %v, want nil", missing)
	}
}

func TestStore_TransactionCRUD(t *testing.T) {
	s := NewWithDefaults()
	ctx := context.Background()

	tx := newTx(1, "Coffee", 450, core.Debit, core.NewDate(2024, 3, 1))
	if err := s.CreateTransaction(ctx, &tx); err != nil {
		t.Fatalf("CreateTransaction() error: %v", err)
	}
	if tx.ID == 0 {
		t.Fatal("CreateTransaction() did not assign an ID")
	}

	got, err := s.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error: %v", err)
	}
	if got.Description != "Coffee" {
		t.Errorf("GetTransaction().Description = %q, want Coffee", got.Description)
	}

	tx.Description = "Espresso"
	if err := s.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("UpdateTransaction() error: %v", err)
	}
	got, _ = s.GetTransaction(ctx, tx.ID)
	if got.Description != "Espresso" {
		t.Errorf("after update Description = %q, want Espresso", got.Description)
	}

	otherUser := tx
	otherUser.UserID = 2
	if err := s.UpdateTransaction(ctx, otherUser); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateTransaction() for wrong user = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTransaction(ctx, 2, tx.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteTransaction() for wrong user = %v, want ErrNotFound", err)
	}

	if err := s.DeleteTransaction(ctx, 1, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction() error: %v", err)
	}
	if _, err := s.GetTransaction(ctx, tx.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetTransaction() after delete = %v, want ErrNotFound", err)
	}
}

func TestStore_CreateValidates(t *testing.T) {
	s := NewWithDefaults()
	bad := newTx(0, "no user", 100, core.Debit, core.NewDate(2024, 1, 1))
	if err := s.CreateTransaction(context.Background(), &bad); !errors.Is(err, core.ErrInvalidUser) {
		t.Errorf("CreateTransaction() = %v, want ErrInvalidUser", err)
	}
}

func TestStore_ListTransactionsFilters(t *testing.T) {
	s := NewWithDefaults()
	ctx := context.Background()
	catFood := int64(1)

	seed := []core.Transaction{
		newTx(1, "Pizza place", 2000, core.Debit, core.NewDate(2024, 1, 10)),
		newTx(1, "Netflix", 1599, core.Debit, core.NewDate(2024, 2, 5)),
		newTx(1, "Salary", 500000, core.Credit, core.NewDate(2024, 2, 28)),
		newTx(2, "Pizza too", 1800, core.Debit, core.NewDate(2024, 1, 11)),
	}
	seed[0].CategoryID = &catFood
	for i := range seed {
		if err := s.CreateTransaction(ctx, &seed[i]); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	tests := []struct {
		name   string
		filter storage.TransactionFilter
		want   int
	}{
		{name: "all for user", filter: storage.TransactionFilter{}, want: 3},
		{name: "from bound", filter: storage.TransactionFilter{From: datePtr(2024, 2, 1)}, want: 2},
		{name: "to bound", filter: storage.TransactionFilter{To: datePtr(2024, 1, 31)}, want: 1},
		{name: "category", filter: storage.TransactionFilter{CategoryID: &catFood}, want: 1},
		{name: "search", filter: storage.TransactionFilter{Search: "netflix"}, want: 1},
		{name: "search no match", filter: storage.TransactionFilter{Search: "uber"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTransactions(ctx, 1, tt.filter)
			if err != nil {
				t.Fatalf("ListTransactions() error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListTransactions() returned %d, want %d", len(got), tt.want)
			}
		})
	}

	t.Run("newest first", func(t *testing.T) {
		got, _ := s.ListTransactions(ctx, 1, storage.TransactionFilter{})
		for i := 1; i < len(got); i++ {
			if got[i-1].Date.Before(got[i].Date.Time) {
				t.Errorf("transactions not ordered newest first at %d", i)
			}
		}
	})
}

func TestStore_ListDebitTransactions(t *testing.T) {
	s := NewWithDefaults()
	ctx := context.Background()

	txs := []core.Transaction{
		newTx(1, "Later", 100, core.Debit, core.NewDate(2024, 3, 1)),
		newTx(1, "Earlier", 100, core.Debit, core.NewDate(2024, 1, 1)),
		newTx(1, "Salary", 1000, core.Credit, core.NewDate(2024, 2, 1)),
	}
	for i := range txs {
		if err := s.CreateTransaction(ctx, &txs[i]); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	got, err := s.ListDebitTransactions(ctx, 1)
	if err != nil {
		t.Fatalf("ListDebitTransactions() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListDebitTransactions() returned %d, want 2", len(got))
	}
	if got[0].Description != "Earlier" || got[1].Description != "Later" {
		t.Errorf("debits not date-ascending: %q then %q", got[0].Description, got[1].Description)
	}
}

func TestStore_ReplaceRecurringPayment(t *testing.T) {
	s := NewWithDefaults()
	ctx := context.Background()

	p := core.RecurringPayment{
		UserID:       1,
		ServiceName:  "netflix",
		Amount:       core.Money{Cents: 1599},
		Frequency:    core.Monthly,
		LastDetected: core.NewDate(2024, 3, 5),
	}
	if err := s.ReplaceRecurringPayment(ctx, p); err != nil {
		t.Fatalf("ReplaceRecurringPayment() error: %v", err)
	}

	// Replacing the same service updates in place rather than duplicating.
	p.Amount.Cents = 1799
	p.LastDetected = core.NewDate(2024, 4, 5)
	if err := s.ReplaceRecurringPayment(ctx, p); err != nil {
		t.Fatalf("second ReplaceRecurringPayment() error: %v", err)
	}

	got, err := s.ListRecurringPayments(ctx, 1)
	if err != nil {
		t.Fatalf("ListRecurringPayments() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListRecurringPayments() returned %d, want 1", len(got))
	}
	if got[0].Amount.Cents != 1799 || got[0].LastDetected != core.NewDate(2024, 4, 5) {
		t.Errorf("payment = %+v, want updated amount and date", got[0])
	}

	if err := s.ReplaceRecurringPayment(ctx, core.RecurringPayment{UserID: 1}); err == nil {
		t.Error("ReplaceRecurringPayment() with empty service name expected error")
	}
}

func TestStore_ListUserIDs(t *testing.T) {
	s := NewWithDefaults()
	ctx := context.Background()

	for _, userID := range []int64{3, 1, 3, 2} {
		tx := newTx(userID, "x", 100, core.Debit, core.NewDate(2024, 1, 1))
		if err := s.CreateTransaction(ctx, &tx); err != nil {
			t.Fatalf("seed user %d: %v", userID, err)
		}
	}

	got, err := s.ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("ListUserIDs() error: %v", err)
	}
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("ListUserIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListUserIDs()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func datePtr(y, m, d int) *core.Date {
	date := core.NewDate(y, m, d)
	return &date
}
