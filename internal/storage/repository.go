// Package storage defines the persistence ports and the SQLite
// implementation behind them.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ CategoryStore    = (*SQLiteRepository)(nil)
	_ TransactionStore = (*SQLiteRepository)(nil)
	_ RecurringStore   = (*SQLiteRepository)(nil)
	_ UserLister       = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, keywords, color FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Keywords, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) FindCategoryByName(ctx context.Context, name string) (*core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, keywords, color FROM categories WHERE name = ? LIMIT 1`,
		name).Scan(&c.ID, &c.Name, &c.Keywords, &c.Color)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category %q: %w", name, err)
	}
	return &c, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, date, description, amount_cents, type, category_id, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Date.String(), t.Description, t.Amount.Cents, string(t.Type),
		nullableID(t.CategoryID), t.Notes)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("transaction id: %w", err)
	}
	t.ID = id
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, description, amount_cents, type, category_id, notes
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return &t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET date = ?, description = ?, amount_cents = ?, type = ?, category_id = ?, notes = ?
		 WHERE id = ? AND user_id = ?`,
		t.Date.String(), t.Description, t.Amount.Cents, string(t.Type),
		nullableID(t.CategoryID), t.Notes, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT id, user_id, date, description, amount_cents, type, category_id, notes
		 FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if f.From != nil {
		query += ` AND date >= ?`
		args = append(args, f.From.String())
	}
	if f.To != nil {
		query += ` AND date <= ?`
		args = append(args, f.To.String())
	}
	if f.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *f.CategoryID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		query += ` AND (description LIKE ? OR notes LIKE ?)`
		pattern := "%" + s + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY date DESC, id DESC`

	return r.queryTransactions(ctx, query, args...)
}

func (r *SQLiteRepository) ListDebitTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, user_id, date, description, amount_cents, type, category_id, notes
		 FROM transactions WHERE user_id = ? AND type = 'debit' ORDER BY date, id`,
		userID)
}

func (r *SQLiteRepository) ListRecurringPayments(ctx context.Context, userID int64) ([]core.RecurringPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, service_name, amount_cents, frequency, last_detected, category_id
		 FROM recurring_payments WHERE user_id = ? ORDER BY amount_cents DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring payments: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringPayment
	for rows.Next() {
		var (
			p     core.RecurringPayment
			date  string
			freq  string
			catID sql.NullInt64
		)
		if err := rows.Scan(&p.UserID, &p.ServiceName, &p.Amount.Cents, &freq, &date, &catID); err != nil {
			return nil, fmt.Errorf("scan recurring payment: %w", err)
		}
		p.Frequency = core.Frequency(freq)
		p.LastDetected, err = parseDay(date)
		if err != nil {
			return nil, fmt.Errorf("recurring payment %q: %w", p.ServiceName, err)
		}
		if catID.Valid {
			id := catID.Int64
			p.CategoryID = &id
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplaceRecurringPayment performs the delete-then-insert for one service
// inside a single SQL transaction, so a failure never leaves the service
// deleted without its replacement.
func (r *SQLiteRepository) ReplaceRecurringPayment(ctx context.Context, p core.RecurringPayment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recurring_payments WHERE user_id = ? AND service_name = ?`,
		p.UserID, p.ServiceName); err != nil {
		return fmt.Errorf("delete recurring payment: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO recurring_payments (user_id, service_name, amount_cents, frequency, last_detected, category_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.UserID, p.ServiceName, p.Amount.Cents, string(p.Frequency),
		p.LastDetected.String(), nullableID(p.CategoryID)); err != nil {
		return fmt.Errorf("insert recurring payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t     core.Transaction
		date  string
		typ   string
		catID sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.UserID, &date, &t.Description, &t.Amount.Cents, &typ, &catID, &t.Notes); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	var err error
	t.Date, err = parseDay(date)
	if err != nil {
		return core.Transaction{}, err
	}
	if catID.Valid {
		id := catID.Int64
		t.CategoryID = &id
	}
	return t, nil
}

func parseDay(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
