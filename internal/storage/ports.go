package storage

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// ErrNotFound is returned by lookups that matched nothing.
var ErrNotFound = errors.New("not found")

// TransactionFilter narrows ListTransactions. Zero fields are ignored.
type TransactionFilter struct {
	From       *core.Date
	To         *core.Date
	CategoryID *int64
	Search     string
}

// Ports for the storage backends. The categorization, recurrence and
// insight logic is written once against these interfaces; SQLite and the
// in-memory store are interchangeable behind them.
type (
	CategoryStore interface {
		// ListCategories returns the taxonomy in seed order.
		ListCategories(ctx context.Context) ([]core.Category, error)
		// FindCategoryByName returns nil (no error) when the name is absent.
		FindCategoryByName(ctx context.Context, name string) (*core.Category, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t *core.Transaction) error
		GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id int64) error
		ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error)
		// ListDebitTransactions feeds the recurrence detector.
		ListDebitTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	}

	RecurringStore interface {
		ListRecurringPayments(ctx context.Context, userID int64) ([]core.RecurringPayment, error)
		// ReplaceRecurringPayment deletes any prior entry for the payment's
		// (user, service name) key and inserts the fresh one. The two steps
		// must be atomic from the caller's perspective.
		ReplaceRecurringPayment(ctx context.Context, p core.RecurringPayment) error
	}

	UserLister interface {
		// ListUserIDs returns every user with at least one transaction,
		// for full detection passes.
		ListUserIDs(ctx context.Context) ([]int64, error)
	}
)
