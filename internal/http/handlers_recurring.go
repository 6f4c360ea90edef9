package http

import (
	"log/slog"
	"net/http"
)

type recurringResponse struct {
	ServiceName  string  `json:"service_name"`
	AmountCents  int64   `json:"amount_cents"`
	Amount       float64 `json:"amount"`
	Frequency    string  `json:"frequency"`
	LastDetected string  `json:"last_detected"`
	CategoryID   *int64  `json:"category_id,omitempty"`
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	payments, err := s.store.ListRecurringPayments(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "List recurring payments failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list recurring payments")
		return
	}

	out := make([]recurringResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, recurringResponse{
			ServiceName:  p.ServiceName,
			AmountCents:  p.Amount.Cents,
			Amount:       p.Amount.Units(),
			Frequency:    string(p.Frequency),
			LastDetected: p.LastDetected.String(),
			CategoryID:   p.CategoryID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": out, "count": len(out)})
}

// handleDetect runs detection synchronously for the calling user and
// returns the fresh set.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	payments, err := s.detection.DetectForUser(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "On-demand detection failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "detection failed")
		return
	}

	out := make([]recurringResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, recurringResponse{
			ServiceName:  p.ServiceName,
			AmountCents:  p.Amount.Cents,
			Amount:       p.Amount.Units(),
			Frequency:    string(p.Frequency),
			LastDetected: p.LastDetected.String(),
			CategoryID:   p.CategoryID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": out, "count": len(out)})
}
