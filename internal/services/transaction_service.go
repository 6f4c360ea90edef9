// Package services orchestrates the core engines (categorization,
// recurrence detection, insights) over the storage ports.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/categorize"
	"fintrack/internal/core"
)

// TransactionService owns the transaction write path: normalization,
// auto-categorization and persistence, plus the async nudge to the
// detection worker.
type TransactionService struct {
	store       backend.Backend
	categorizer *categorize.Categorizer
	amqpClient  *amqp.Client
}

// NewTransactionService wires the write path. The categorizer carries the
// taxonomy snapshot explicitly; amqpClient may be nil, in which case
// detection only runs on its periodic schedule.
func NewTransactionService(store backend.Backend, categorizer *categorize.Categorizer, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		store:       store,
		categorizer: categorizer,
		amqpClient:  amqpClient,
	}
}

// Create validates and stores one transaction. When the caller supplies no
// category, the categorizer picks one from the description and direction;
// a nil result stores an uncategorized transaction, which is fine.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (*core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("validate transaction: %w", err)
	}

	if t.CategoryID == nil {
		t.CategoryID = s.categorizer.Categorize(t.Description, t.SignedCents())
	}

	if err := s.store.CreateTransaction(ctx, &t); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"user_id", t.UserID,
		"type", string(t.Type),
		"amount_cents", t.Amount.Cents)

	s.requestDetection(ctx, t.UserID, "transaction_created")
	return &t, nil
}

// BulkCreate stores a batch, categorizing each entry like Create. It stops
// at the first storage failure and reports how many rows made it in.
func (s *TransactionService) BulkCreate(ctx context.Context, userID int64, txs []core.Transaction) (int, error) {
	created := 0
	for i := range txs {
		t := txs[i]
		t.UserID = userID
		if err := t.Validate(); err != nil {
			return created, fmt.Errorf("transaction %d: %w", i, err)
		}
		if t.CategoryID == nil {
			t.CategoryID = s.categorizer.Categorize(t.Description, t.SignedCents())
		}
		if err := s.store.CreateTransaction(ctx, &t); err != nil {
			return created, fmt.Errorf("transaction %d: %w", i, err)
		}
		created++
	}

	slog.InfoContext(ctx, "Bulk transactions saved", "user_id", userID, "count", created)
	s.requestDetection(ctx, userID, "bulk_created")
	return created, nil
}

// Update rewrites an existing transaction. The caller's category choice is
// kept as-is, including clearing it.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.requestDetection(ctx, t.UserID, "transaction_updated")
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// requestDetection publishes an async detect request. Failure to publish
// never fails the write; the periodic pass will catch up.
func (s *TransactionService) requestDetection(ctx context.Context, userID int64, reason string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishDetectRequest(ctx, userID, reason); err != nil {
		slog.ErrorContext(ctx, "Failed to publish detect request",
			"user_id", userID, "reason", reason, "error", err)
	}
}
