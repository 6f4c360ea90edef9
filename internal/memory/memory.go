// Package memory implements the storage ports with an in-process store.
// It backs the zero-setup "memory" backend and doubles as the test double
// for everything written against the ports.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type Store struct {
	mu         sync.Mutex
	categories []core.Category
	txs        []core.Transaction
	recurring  map[int64]map[string]core.RecurringPayment
	nextTxID   int64
}

var (
	_ storage.CategoryStore    = (*Store)(nil)
	_ storage.TransactionStore = (*Store)(nil)
	_ storage.RecurringStore   = (*Store)(nil)
	_ storage.UserLister       = (*Store)(nil)
)

// New creates a store seeded with the given taxonomy. Category IDs are
// assigned from position when unset.
func New(taxonomy []core.Category) *Store {
	cats := make([]core.Category, len(taxonomy))
	copy(cats, taxonomy)
	for i := range cats {
		if cats[i].ID == 0 {
			cats[i].ID = int64(i + 1)
		}
	}
	return &Store{
		categories: cats,
		recurring:  make(map[int64]map[string]core.RecurringPayment),
		nextTxID:   1,
	}
}

// NewWithDefaults creates a store seeded with the standard taxonomy.
func NewWithDefaults() *Store {
	return New(DefaultTaxonomy())
}

// DefaultTaxonomy mirrors the seed migration of the SQLite backend.
func DefaultTaxonomy() []core.Category {
	return []core.Category{
		{Name: "Food & Dining", Keywords: "swiggy,zomato,restaurant,cafe,food,dining,pizza,burger", Color: "#ef4444"},
		{Name: "Transport", Keywords: "uber,ola,taxi,metro,bus,fuel,petrol,gas,parking", Color: "#f59e0b"},
		{Name: "Entertainment", Keywords: "netflix,spotify,prime,hotstar,disney,youtube,movie,cinema", Color: "#8b5cf6"},
		{Name: "Shopping", Keywords: "amazon,flipkart,myntra,shopping,mall,store,retail", Color: "#ec4899"},
		{Name: "Bills & Utilities", Keywords: "electricity,water,gas,internet,broadband,wifi,telephone,mobile", Color: "#14b8a6"},
		{Name: "Healthcare", Keywords: "hospital,clinic,pharmacy,doctor,medical,health,medicine", Color: "#06b6d4"},
		{Name: "Education", Keywords: "school,college,university,course,udemy,coursera,book,education", Color: "#3b82f6"},
		{Name: "Groceries", Keywords: "grocery,supermarket,bigbasket,grofers,blinkit,vegetable", Color: "#10b981"},
		{Name: "Travel", Keywords: "flight,hotel,booking,airbnb,makemytrip,travel,vacation,trip", Color: "#f97316"},
		{Name: core.IncomeCategory, Keywords: "salary,income,payment,refund,cashback,credit,deposit", Color: "#22c55e"},
		{Name: core.OtherCategory, Keywords: "miscellaneous,other,general", Color: "#64748b"},
	}
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *Store) FindCategoryByName(_ context.Context, name string) (*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			cat := c
			return &cat, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateTransaction(_ context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextTxID
	s.nextTxID++
	s.txs = append(s.txs, *t)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.ID == id {
			tx := t
			return &tx, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID == t.ID && s.txs[i].UserID == t.UserID {
			s.txs[i] = t
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID == id && s.txs[i].UserID == userID {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []core.Transaction
	for _, t := range s.txs {
		if t.UserID != userID {
			continue
		}
		if f.From != nil && t.Date.Before(f.From.Time) {
			continue
		}
		if f.To != nil && t.Date.After(f.To.Time) {
			continue
		}
		if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Description), search) &&
			!strings.Contains(strings.ToLower(t.Notes), search) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) ListDebitTransactions(_ context.Context, userID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Transaction
	for _, t := range s.txs {
		if t.UserID == userID && t.Type == core.Debit {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListRecurringPayments(_ context.Context, userID int64) ([]core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.RecurringPayment
	for _, p := range s.recurring[userID] {
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].ServiceName < out[j].ServiceName
	})
	return out, nil
}

func (s *Store) ReplaceRecurringPayment(_ context.Context, p core.RecurringPayment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byService, ok := s.recurring[p.UserID]
	if !ok {
		byService = make(map[string]core.RecurringPayment)
		s.recurring[p.UserID] = byService
	}
	byService[p.ServiceName] = p
	return nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[int64]struct{}{}
	var out []int64
	for _, t := range s.txs {
		if _, ok := seen[t.UserID]; ok {
			continue
		}
		seen[t.UserID] = struct{}{}
		out = append(out, t.UserID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
