package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/storage"
)

type categoryTotalResponse struct {
	Name       string  `json:"name"`
	Color      string  `json:"color,omitempty"`
	TotalCents int64   `json:"total_cents"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
}

type summaryResponse struct {
	TotalIncomeCents          int64                   `json:"total_income_cents"`
	TotalExpensesCents        int64                   `json:"total_expenses_cents"`
	SavingsCents              int64                   `json:"savings_cents"`
	CurrentMonthExpensesCents int64                   `json:"current_month_expenses_cents"`
	LastMonthExpensesCents    int64                   `json:"last_month_expenses_cents"`
	TopCategories             []categoryTotalResponse `json:"top_categories"`
}

type insightResponse struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Category    string  `json:"category"`
	Change      float64 `json:"change,omitempty"`
	AmountCents int64   `json:"amount_cents,omitempty"`
}

type monthPointResponse struct {
	Month         string `json:"month"`
	IncomeCents   int64  `json:"income_cents"`
	ExpensesCents int64  `json:"expenses_cents"`
	NetCents      int64  `json:"net_cents"`
}

type weekPointResponse struct {
	WeekStart  string `json:"week_start"`
	TotalCents int64  `json:"total_cents"`
}

func toCategoryTotals(in []insights.CategoryTotal) []categoryTotalResponse {
	out := make([]categoryTotalResponse, 0, len(in))
	for _, ct := range in {
		out = append(out, categoryTotalResponse{
			Name:       ct.Name,
			Color:      ct.Color,
			TotalCents: ct.Total.Cents,
			Total:      ct.Total.Units(),
			Count:      ct.Count,
		})
	}
	return out
}

func toSummaryResponse(s insights.Summary) summaryResponse {
	return summaryResponse{
		TotalIncomeCents:          s.TotalIncome.Cents,
		TotalExpensesCents:        s.TotalExpenses.Cents,
		SavingsCents:              s.Savings.Cents,
		CurrentMonthExpensesCents: s.CurrentMonthExpenses.Cents,
		LastMonthExpensesCents:    s.LastMonthExpenses.Cents,
		TopCategories:             toCategoryTotals(s.TopCategories),
	}
}

func toMonthPoints(in []insights.MonthPoint) []monthPointResponse {
	out := make([]monthPointResponse, 0, len(in))
	for _, p := range in {
		out = append(out, monthPointResponse{
			Month:         p.Month,
			IncomeCents:   p.Income.Cents,
			ExpensesCents: p.Expenses.Cents,
			NetCents:      p.Income.Cents - p.Expenses.Cents,
		})
	}
	return out
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	type categoryResponse struct {
		ID       int64    `json:"id"`
		Name     string   `json:"name"`
		Keywords []string `json:"keywords,omitempty"`
		Color    string   `json:"color,omitempty"`
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			ID:       c.ID,
			Name:     c.Name,
			Keywords: c.KeywordList(),
			Color:    c.Color,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

// userTransactions loads a user's full history for aggregation.
func (s *Server) userTransactions(r *http.Request, user int64) ([]core.Transaction, error) {
	return s.store.ListTransactions(r.Context(), user, storage.TransactionFilter{})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	key := fmt.Sprintf("%d:summary", user)
	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toSummaryResponse(cached))
		return
	}

	txs, err := s.userTransactions(r, user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Load transactions for dashboard failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute dashboard")
		return
	}

	summary := s.aggregator.Summary(txs, time.Now().UTC())
	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	txs, err := s.userTransactions(r, user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Load transactions for insights failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute insights")
		return
	}

	list := s.aggregator.Insights(txs, time.Now().UTC())
	out := make([]insightResponse, 0, len(list))
	for _, in := range list {
		out = append(out, insightResponse{
			Type:        in.Type,
			Message:     in.Message,
			Category:    in.Category,
			Change:      in.Change,
			AmountCents: in.Amount.Cents,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": out})
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	from, err := queryDate(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Default window is the current calendar month.
	now := time.Now().UTC()
	if from == nil {
		d := core.NewDate(now.Year(), int(now.Month()), 1)
		from = &d
	}
	if to == nil {
		d := core.DateOf(from.AddDate(0, 1, -1))
		to = &d
	}

	txs, err := s.userTransactions(r, user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Load transactions for breakdown failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute breakdown")
		return
	}

	breakdown := s.aggregator.CategoryBreakdown(txs, *from, *to)
	writeJSON(w, http.StatusOK, map[string]any{
		"from":      from.String(),
		"to":        to.String(),
		"breakdown": toCategoryTotals(breakdown),
	})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	months := queryInt(r, "months", s.trendMonths)
	if months < 1 || months > 120 {
		writeError(w, http.StatusBadRequest, "invalid months: want 1-120")
		return
	}

	key := fmt.Sprintf("%d:trend:%d", user, months)
	if cached, ok := s.trendCache.Get(key); ok {
		writeJSON(w, http.StatusOK, map[string]any{"trend": toMonthPoints(cached)})
		return
	}

	txs, err := s.userTransactions(r, user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Load transactions for trend failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute trend")
		return
	}

	trend := s.aggregator.MonthlyTrend(txs, months)
	s.trendCache.Set(key, trend)
	writeJSON(w, http.StatusOK, map[string]any{"trend": toMonthPoints(trend)})
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	txs, err := s.userTransactions(r, user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Load transactions for weekly comparison failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute weekly comparison")
		return
	}

	weeks := s.aggregator.WeeklyComparison(txs, time.Now().UTC())
	out := make([]weekPointResponse, 0, len(weeks))
	for _, wp := range weeks {
		out = append(out, weekPointResponse{
			WeekStart:  wp.WeekStart.String(),
			TotalCents: wp.Total.Cents,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"weeks": out})
}

func (s *Server) handleExportTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "spreadsheet export is not configured")
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	txs, err := s.userTransactions(r, user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Load transactions for export failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	trend := s.aggregator.MonthlyTrend(txs, s.trendMonths)
	if err := s.exporter.ExportMonthlyTrend(r.Context(), user, trend); err != nil {
		slog.ErrorContext(r.Context(), "Trend export failed", "user_id", user, "error", err)
		writeError(w, http.StatusBadGateway, "failed to export trend")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"exported_months": len(trend)})
}
