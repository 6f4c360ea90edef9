package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
	Recurring Frequency = "recurring"
)

// Reserved category names. "Income" collects credit transactions,
// "Other" is the fallback bucket when no keyword matches.
const (
	IncomeCategory = "Income"
	OtherCategory  = "Other"
)

type (
	TransactionType string

	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Category is one entry of the immutable taxonomy. Keywords is a
	// comma-joined list of lowercase match terms; it may be empty.
	Category struct {
		ID       int64
		Name     string
		Keywords string
		Color    string
	}

	// Transaction always stores Amount as a non-negative magnitude.
	// Direction is carried by Type, never by the sign of the amount.
	Transaction struct {
		ID          int64
		UserID      int64
		Date        Date
		Description string
		Amount      Money
		Type        TransactionType
		CategoryID  *int64
		Notes       string
	}

	// RecurringPayment is derived data: the recurrence detector fully
	// replaces the entry for (UserID, ServiceName) on every run.
	RecurringPayment struct {
		UserID       int64
		ServiceName  string
		Amount       Money
		Frequency    Frequency
		LastDetected Date
		CategoryID   *int64
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidUser      = errors.New("invalid user id")
)

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day at UTC midnight.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (t TransactionType) Valid() bool {
	return t == Credit || t == Debit
}

func (f Frequency) Valid() bool {
	switch f {
	case Monthly, Quarterly, Yearly, Recurring:
		return true
	default:
		return false
	}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.UserID <= 0 {
		return ErrInvalidUser
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// SignedCents returns the amount with direction applied: positive for
// credits, negative for debits.
func (t Transaction) SignedCents() int64 {
	if t.Type == Debit {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

// NormalizeSigned converts a raw signed amount (e.g. from a bank export)
// into the stored magnitude plus inferred direction. Non-negative amounts
// are credits, matching how bank statements report deposits.
func NormalizeSigned(cents int64) (Money, TransactionType) {
	if cents < 0 {
		return Money{Cents: -cents}, Debit
	}
	return Money{Cents: cents}, Credit
}

// NormalizeDescription canonicalizes a free-text description for grouping:
// surrounding whitespace is dropped and the text is lowercased, so
// "Netflix " and "netflix" land in the same recurrence group.
func NormalizeDescription(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// KeywordList splits the comma-joined keyword string into trimmed
// lowercase terms, dropping empties.
func (c Category) KeywordList() []string {
	if strings.TrimSpace(c.Keywords) == "" {
		return nil
	}
	parts := strings.Split(strings.ToLower(c.Keywords), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (rp RecurringPayment) Validate() error {
	if rp.UserID <= 0 {
		return ErrInvalidUser
	}
	if strings.TrimSpace(rp.ServiceName) == "" {
		return ErrEmptyDescription
	}
	if err := rp.Amount.Validate(); err != nil {
		return err
	}
	if !rp.Frequency.Valid() {
		return errors.New("invalid frequency")
	}
	return rp.LastDetected.Validate()
}
