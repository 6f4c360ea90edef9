// Package worker runs recurrence detection out-of-band: on demand when a
// detect request arrives over AMQP, and periodically over all users.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
)

type DetectWorker struct {
	detection *services.DetectionService
}

func NewDetectWorker(detection *services.DetectionService) *DetectWorker {
	return &DetectWorker{detection: detection}
}

// HandleDetectRequest processes one queued detect request.
func (w *DetectWorker) HandleDetectRequest(ctx context.Context, msg *amqp.DetectRequestMessage) error {
	if msg.UserID <= 0 {
		return fmt.Errorf("invalid user id in detect request: %d", msg.UserID)
	}

	payments, err := w.detection.DetectForUser(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("detect for user %d: %w", msg.UserID, err)
	}

	slog.InfoContext(ctx, "Detect request handled",
		"user_id", msg.UserID,
		"reason", msg.Reason,
		"recurring", len(payments))
	return nil
}

// RunPeriodic re-detects for every user on each tick until the context is
// cancelled. It runs one pass immediately on startup so a restarted
// worker does not wait a full interval to catch up.
func (w *DetectWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	w.runPass(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.runPass(ctx)
		}
	}
}

func (w *DetectWorker) runPass(ctx context.Context) {
	count, err := w.detection.DetectAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Periodic detection pass failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Periodic detection pass complete", "recurring_total", count)
}
