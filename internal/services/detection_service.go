package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/backend"
	"fintrack/internal/core"
	"fintrack/internal/recurrence"
)

// DetectionService runs the recurrence detector over a user's debit
// history and replaces the persisted recurring-payment set. Runs for the
// same user are serialized with a per-user lock so two detections never
// interleave their delete and insert steps.
type DetectionService struct {
	store    backend.Backend
	detector *recurrence.Detector

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewDetectionService(store backend.Backend, detector *recurrence.Detector) *DetectionService {
	return &DetectionService{
		store:    store,
		detector: detector,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// DetectForUser recomputes the user's recurring payments and persists
// them, one atomic replace per service name. Given identical transaction
// input the persisted set comes out identical, so re-running is harmless.
func (s *DetectionService) DetectForUser(ctx context.Context, userID int64) ([]core.RecurringPayment, error) {
	if userID <= 0 {
		return nil, core.ErrInvalidUser
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	txs, err := s.store.ListDebitTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list debit transactions: %w", err)
	}

	payments := s.detector.Detect(userID, txs)

	for _, p := range payments {
		if err := s.store.ReplaceRecurringPayment(ctx, p); err != nil {
			return nil, fmt.Errorf("replace recurring payment %q: %w", p.ServiceName, err)
		}
	}

	slog.InfoContext(ctx, "Recurrence detection complete",
		"user_id", userID,
		"transactions", len(txs),
		"recurring", len(payments))

	return payments, nil
}

// DetectAll runs detection for every user with transactions. Per-user
// failures are logged and skipped so one bad history never stalls the
// whole pass; the first error is reported after the pass completes.
func (s *DetectionService) DetectAll(ctx context.Context) (int, error) {
	userIDs, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var firstErr error
	detected := 0
	for _, id := range userIDs {
		if ctx.Err() != nil {
			return detected, ctx.Err()
		}
		payments, err := s.DetectForUser(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Detection failed for user", "user_id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		detected += len(payments)
	}

	slog.InfoContext(ctx, "Full detection pass complete",
		"users", len(userIDs),
		"recurring_total", detected)

	return detected, firstErr
}

func (s *DetectionService) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
