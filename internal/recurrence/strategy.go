package recurrence

import (
	"fmt"
	"sort"

	"fintrack/internal/core"
)

// ExactStrategy groups by (normalized description, exact amount). This is
// deterministic and immune to price-point collisions between different
// services, at the cost of splitting a subscription whose price changed.
type ExactStrategy struct{}

func (ExactStrategy) Name() string { return "exact" }

func (ExactStrategy) Group(txs []core.Transaction) []Group {
	type key struct {
		desc  string
		cents int64
	}
	byKey := make(map[key]*Group)
	var order []key

	for _, t := range sortedByDate(txs) {
		k := key{desc: core.NormalizeDescription(t.Description), cents: t.Amount.Cents}
		g, ok := byKey[k]
		if !ok {
			g = &Group{
				ServiceName: k.desc,
				Amount:      t.Amount,
				CategoryID:  copyID(t.CategoryID),
			}
			byKey[k] = g
			order = append(order, k)
		}
		g.Dates = append(g.Dates, t.Date)
	}

	out := make([]Group, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

// FuzzyStrategy groups by normalized description alone and accepts the
// group only when the amounts are close: the spread between the smallest
// and largest amount must stay within MaxRelativeSpread of the mean. The
// emitted amount is the mean. This catches subscriptions with small price
// adjustments that ExactStrategy would split.
type FuzzyStrategy struct {
	// MaxRelativeSpread defaults to 0.10 when zero or negative.
	MaxRelativeSpread float64
}

func (FuzzyStrategy) Name() string { return "fuzzy" }

func (s FuzzyStrategy) Group(txs []core.Transaction) []Group {
	spread := s.MaxRelativeSpread
	if spread <= 0 {
		spread = 0.10
	}

	type bucket struct {
		group Group
		cents []int64
	}
	byDesc := make(map[string]*bucket)
	var order []string

	for _, t := range sortedByDate(txs) {
		desc := core.NormalizeDescription(t.Description)
		b, ok := byDesc[desc]
		if !ok {
			b = &bucket{group: Group{
				ServiceName: desc,
				CategoryID:  copyID(t.CategoryID),
			}}
			byDesc[desc] = b
			order = append(order, desc)
		}
		b.group.Dates = append(b.group.Dates, t.Date)
		b.cents = append(b.cents, t.Amount.Cents)
	}

	out := make([]Group, 0, len(order))
	for _, desc := range order {
		b := byDesc[desc]
		mean, ok := stableAmount(b.cents, spread)
		if !ok {
			continue
		}
		b.group.Amount = core.Money{Cents: mean}
		out = append(out, b.group)
	}
	return out
}

// stableAmount returns the mean of cents when min and max stay within
// maxSpread of that mean.
func stableAmount(cents []int64, maxSpread float64) (int64, bool) {
	if len(cents) == 0 {
		return 0, false
	}
	var sum, min, max int64
	min, max = cents[0], cents[0]
	for _, c := range cents {
		sum += c
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	mean := sum / int64(len(cents))
	if mean == 0 {
		return 0, false
	}
	if float64(max-min) > maxSpread*float64(mean) {
		return 0, false
	}
	return mean, true
}

// StrategyByName resolves a strategy from its config name.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "", "exact":
		return ExactStrategy{}, nil
	case "fuzzy":
		return FuzzyStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown recurrence strategy: %s", name)
	}
}

func sortedByDate(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
