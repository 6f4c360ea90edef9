// Package recurrence identifies recurring payments (subscriptions, rent,
// utilities) in a user's debit history and infers their billing frequency
// from the spacing between occurrences.
package recurrence

import (
	"math"
	"sort"

	"fintrack/internal/core"
)

// Qualification thresholds. Two occurrences are only convincing evidence
// of a subscription when their gap looks monthly; from three occurrences
// on, spacing regularity is not required.
const (
	minOccurrences      = 2
	confidentCount      = 3
	monthlyGapMinDays   = 25
	monthlyGapMaxDays   = 35
	quarterlyGapMinDays = 85
	quarterlyGapMaxDays = 95
	yearlyGapMinDays    = 350
	yearlyGapMaxDays    = 370
)

// Group is one candidate recurring payment: the occurrences of a
// (service, amount) pair, date-sorted ascending.
type Group struct {
	ServiceName string
	Amount      core.Money
	CategoryID  *int64
	Dates       []core.Date
}

// Strategy turns a transaction set into candidate groups. Exact is the
// canonical grouping; Fuzzy tolerates small price drift.
type Strategy interface {
	// Name identifies the strategy in config and logs.
	Name() string
	// Group partitions debit transactions into recurrence candidates.
	// Transactions with a zero amount are never eligible.
	Group(txs []core.Transaction) []Group
}

// Detector finds recurring payments in a transaction history. Detect is a
// pure function of its input; persistence belongs to the caller.
type Detector struct {
	strategy Strategy
}

func NewDetector(strategy Strategy) *Detector {
	if strategy == nil {
		strategy = ExactStrategy{}
	}
	return &Detector{strategy: strategy}
}

// Detect scans the user's debit transactions and returns the qualifying
// recurring payments, ordered by occurrence count then amount descending.
// Running it twice over the same input yields the same result.
func (d *Detector) Detect(userID int64, txs []core.Transaction) []core.RecurringPayment {
	groups := d.strategy.Group(eligible(txs))

	type scored struct {
		payment core.RecurringPayment
		count   int
	}
	var out []scored

	for _, g := range groups {
		count := len(g.Dates)
		if count < minOccurrences {
			continue
		}
		avg, hasAvg := avgDaysBetween(g.Dates)
		if !qualifies(count, avg, hasAvg) {
			continue
		}
		out = append(out, scored{
			payment: core.RecurringPayment{
				UserID:       userID,
				ServiceName:  g.ServiceName,
				Amount:       g.Amount,
				Frequency:    classifyFrequency(avg, hasAvg),
				LastDetected: g.Dates[count-1],
				CategoryID:   g.CategoryID,
			},
			count: count,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].payment.Amount.Cents > out[j].payment.Amount.Cents
	})

	payments := make([]core.RecurringPayment, len(out))
	for i, s := range out {
		payments[i] = s.payment
	}
	return payments
}

// eligible keeps debit transactions with a positive amount. Zero-amount
// rows pass type filters elsewhere but never count as occurrences.
func eligible(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Type != core.Debit || t.Amount.Cents <= 0 {
			continue
		}
		out = append(out, t)
	}
	return out
}

// avgDaysBetween returns the mean gap in whole days between consecutive
// dates, rounded half-up. The second return is false when there are fewer
// than two dates.
func avgDaysBetween(dates []core.Date) (int, bool) {
	if len(dates) < 2 {
		return 0, false
	}
	total := 0
	for i := 1; i < len(dates); i++ {
		total += dates[i-1].DaysUntil(dates[i])
	}
	avg := float64(total) / float64(len(dates)-1)
	return int(math.Round(avg)), true
}

func qualifies(count, avgDays int, hasAvg bool) bool {
	if count >= confidentCount {
		return true
	}
	return hasAvg && avgDays >= monthlyGapMinDays && avgDays <= monthlyGapMaxDays
}

// classifyFrequency maps the average gap to a billing frequency. Monthly
// is the default label, including for groups where no average exists.
func classifyFrequency(avgDays int, hasAvg bool) core.Frequency {
	if !hasAvg {
		return core.Monthly
	}
	switch {
	case avgDays >= quarterlyGapMinDays && avgDays <= quarterlyGapMaxDays:
		return core.Quarterly
	case avgDays >= yearlyGapMinDays && avgDays <= yearlyGapMaxDays:
		return core.Yearly
	default:
		return core.Monthly
	}
}
