package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type transactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type,omitempty"`
	CategoryID  *int64 `json:"category_id,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type transactionResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	AmountCents int64   `json:"amount_cents"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	CategoryID  *int64  `json:"category_id,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

type bulkCreateRequest struct {
	Transactions []transactionRequest `json:"transactions"`
}

// toTransaction builds the domain object. When the request names no
// type, the amount's sign decides: negative is a debit. A typed request
// carries the magnitude only.
func (req transactionRequest) toTransaction(user int64) (core.Transaction, error) {
	t := core.Transaction{
		UserID:      user,
		Description: strings.TrimSpace(req.Description),
		CategoryID:  req.CategoryID,
		Notes:       req.Notes,
	}

	day, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		return core.Transaction{}, errors.New("invalid date: want YYYY-MM-DD")
	}
	t.Date = core.DateOf(day)

	if req.Type == "" {
		signed, err := core.ParseSignedDecimalToCents(req.Amount)
		if err != nil {
			return core.Transaction{}, err
		}
		t.Amount, t.Type = core.NormalizeSigned(signed)
		return t, nil
	}

	t.Type = core.TransactionType(req.Type)
	if !t.Type.Valid() {
		return core.Transaction{}, core.ErrInvalidType
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Amount = core.Money{Cents: cents}
	return t, nil
}

func toResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Date:        t.Date.String(),
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.Units(),
		Type:        string(t.Type),
		CategoryID:  t.CategoryID,
		Notes:       t.Notes,
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var filter storage.TransactionFilter
	if filter.From, err = queryDate(r, "from"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		filter.CategoryID = &id
	}
	filter.Search = r.URL.Query().Get("search")

	txs, err := s.store.ListTransactions(r.Context(), user, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out, "count": len(out)})
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t, err := req.toTransaction(user)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		if isValidationErr(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create transaction failed", "user_id", user, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	s.invalidateUser(user)
	writeJSON(w, http.StatusCreated, toResponse(*created))
}

func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req bulkCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Transactions) == 0 {
		writeError(w, http.StatusBadRequest, "no transactions provided")
		return
	}

	batch := make([]core.Transaction, 0, len(req.Transactions))
	for i, item := range req.Transactions {
		t, err := item.toTransaction(user)
		if err != nil {
			writeError(w, http.StatusBadRequest, "transaction "+strconv.Itoa(i)+": "+err.Error())
			return
		}
		batch = append(batch, t)
	}

	created, err := s.transactions.BulkCreate(r.Context(), user, batch)
	if err != nil {
		slog.ErrorContext(r.Context(), "Bulk create failed", "user_id", user, "created", created, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   err.Error(),
			"created": created,
		})
		return
	}

	s.invalidateUser(user)
	writeJSON(w, http.StatusCreated, map[string]any{"created": created})
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, ok := pathID(r.URL.Path, "/api/transactions/")
	if !ok {
		writeError(w, http.StatusNotFound, "invalid transaction id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.updateTransaction(w, r, user, id)
	case http.MethodDelete:
		s.deleteTransaction(w, r, user, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, user, id int64) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t, err := req.toTransaction(user)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = id
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.transactions.Update(r.Context(), t); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update transaction failed", "user_id", user, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update transaction")
		return
	}

	s.invalidateUser(user)
	writeJSON(w, http.StatusOK, toResponse(t))
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request, user, id int64) {
	if err := s.transactions.Delete(r.Context(), user, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction failed", "user_id", user, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	s.invalidateUser(user)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	body := r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()
		body = file
	}

	result, err := s.importer.Import(r.Context(), user, body)
	if err != nil {
		slog.ErrorContext(r.Context(), "CSV import failed", "user_id", user, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    err.Error(),
			"imported": result.Imported,
			"skipped":  result.Skipped,
		})
		return
	}

	s.invalidateUser(user)
	writeJSON(w, http.StatusOK, map[string]any{
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
}

func isValidationErr(err error) bool {
	return errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidType) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrInvalidUser)
}
