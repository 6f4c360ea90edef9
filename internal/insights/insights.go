// Package insights computes the read-only aggregations behind the
// dashboard: lifetime totals, per-category breakdowns, month-over-month
// spending insights and historical trends. Every function tolerates an
// empty transaction set and returns zero values rather than failing.
package insights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"fintrack/internal/core"
)

const (
	// A category's month-over-month change is only worth surfacing when
	// it moved by at least this percentage.
	changeThresholdPercent = 15.0
	// Spending in a previously unused category is surfaced once it
	// crosses this amount (500 currency units).
	newCategoryThresholdCents = 50000

	// DefaultTrendMonths is the trend window when the caller does not ask
	// for a specific one.
	DefaultTrendMonths = 6

	weeklyComparisonWeeks = 4
)

type (
	// CategoryTotal is an expense total for one category over some window.
	CategoryTotal struct {
		Name  string
		Color string
		Total core.Money
		Count int
	}

	// Summary is the dashboard headline: lifetime totals plus the
	// current-month picture. Savings may be negative.
	Summary struct {
		TotalIncome          core.Money
		TotalExpenses        core.Money
		Savings              core.Money
		CurrentMonthExpenses core.Money
		LastMonthExpenses    core.Money
		TopCategories        []CategoryTotal
	}

	// Insight is one human-readable observation about spending behavior.
	Insight struct {
		Type     string
		Message  string
		Category string
		// Change is the month-over-month percentage, set for
		// "category_change" insights only.
		Change float64
		// Amount is set for "new_category" and "top_spending" insights.
		Amount core.Money
	}

	// MonthPoint is one month of the income/expense trend, keyed YYYY-MM.
	MonthPoint struct {
		Month    string
		Income   core.Money
		Expenses core.Money
	}

	// WeekPoint is one week of debit spending, keyed by the Monday that
	// starts the week.
	WeekPoint struct {
		WeekStart core.Date
		Total     core.Money
	}
)

// Insight types.
const (
	InsightCategoryChange = "category_change"
	InsightNewCategory    = "new_category"
	InsightTopSpending    = "top_spending"
)

// Aggregator computes dashboard aggregations over a transaction snapshot.
// It carries the taxonomy so results can name categories; the Income
// category is excluded from every expense breakdown.
type Aggregator struct {
	categories []core.Category
	byID       map[int64]core.Category
}

func NewAggregator(taxonomy []core.Category) *Aggregator {
	a := &Aggregator{
		categories: make([]core.Category, len(taxonomy)),
		byID:       make(map[int64]core.Category, len(taxonomy)),
	}
	copy(a.categories, taxonomy)
	for _, c := range a.categories {
		a.byID[c.ID] = c
	}
	return a
}

// Summary computes the dashboard headline relative to now's calendar month.
func (a *Aggregator) Summary(txs []core.Transaction, now time.Time) Summary {
	curStart, curEnd := monthBounds(now, 0)
	lastStart, lastEnd := monthBounds(now, -1)

	var s Summary
	for _, t := range txs {
		switch t.Type {
		case core.Credit:
			s.TotalIncome.Cents += t.Amount.Cents
		case core.Debit:
			s.TotalExpenses.Cents += t.Amount.Cents
			if within(t.Date, curStart, curEnd) {
				s.CurrentMonthExpenses.Cents += t.Amount.Cents
			}
			if within(t.Date, lastStart, lastEnd) {
				s.LastMonthExpenses.Cents += t.Amount.Cents
			}
		}
	}
	s.Savings = core.Money{Cents: s.TotalIncome.Cents - s.TotalExpenses.Cents}
	s.TopCategories = topN(a.CategoryBreakdown(txs, curStart, curEnd), 3)
	return s
}

// CategoryBreakdown sums debit amounts per category over [start, end],
// excluding Income, sorted by total descending. Categories without
// spending are omitted.
func (a *Aggregator) CategoryBreakdown(txs []core.Transaction, start, end core.Date) []CategoryTotal {
	totals := make(map[int64]*CategoryTotal)
	for _, t := range txs {
		if t.Type != core.Debit || t.CategoryID == nil {
			continue
		}
		if !within(t.Date, start, end) {
			continue
		}
		cat, ok := a.byID[*t.CategoryID]
		if !ok || cat.Name == core.IncomeCategory {
			continue
		}
		ct, ok := totals[cat.ID]
		if !ok {
			ct = &CategoryTotal{Name: cat.Name, Color: cat.Color}
			totals[cat.ID] = ct
		}
		ct.Total.Cents += t.Amount.Cents
		ct.Count++
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		if ct.Total.Cents <= 0 {
			continue
		}
		out = append(out, *ct)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Insights compares the current calendar month against the previous one
// per category and reports notable movements. A category with no spending
// last month never enters the percentage computation: large fresh spending
// is reported through the separate new-category path instead.
func (a *Aggregator) Insights(txs []core.Transaction, now time.Time) []Insight {
	curStart, curEnd := monthBounds(now, 0)
	lastStart, lastEnd := monthBounds(now, -1)

	current := a.categoryCents(txs, curStart, curEnd)
	last := a.categoryCents(txs, lastStart, lastEnd)

	var out []Insight
	for _, cat := range a.categories {
		if cat.Name == core.IncomeCategory {
			continue
		}
		cur, lst := current[cat.ID], last[cat.ID]
		if cur == 0 && lst == 0 {
			continue
		}
		if lst > 0 {
			change := (float64(cur) - float64(lst)) / float64(lst) * 100
			if math.Abs(change) < changeThresholdPercent {
				continue
			}
			direction := "increased"
			if change < 0 {
				direction = "decreased"
			}
			out = append(out, Insight{
				Type:     InsightCategoryChange,
				Message:  fmt.Sprintf("Your %s expenses %s by %.0f%% this month.", cat.Name, direction, math.Abs(change)),
				Category: cat.Name,
				Change:   math.Round(change*10) / 10,
			})
		} else if cur > newCategoryThresholdCents {
			out = append(out, Insight{
				Type:     InsightNewCategory,
				Message:  fmt.Sprintf("New spending on %s this month.", cat.Name),
				Category: cat.Name,
				Amount:   core.Money{Cents: cur},
			})
		}
	}

	if top := topN(a.CategoryBreakdown(txs, curStart, curEnd), 1); len(top) > 0 {
		out = append(out, Insight{
			Type:     InsightTopSpending,
			Message:  fmt.Sprintf("You spent most on %s this month.", top[0].Name),
			Category: top[0].Name,
			Amount:   top[0].Total,
		})
	}
	return out
}

// MonthlyTrend groups transactions by calendar month, sums income and
// expenses, and returns the most recent months in chronological order.
// A months value <= 0 falls back to DefaultTrendMonths.
func (a *Aggregator) MonthlyTrend(txs []core.Transaction, months int) []MonthPoint {
	if months <= 0 {
		months = DefaultTrendMonths
	}

	byMonth := make(map[string]*MonthPoint)
	for _, t := range txs {
		key := t.Date.Format("2006-01")
		p, ok := byMonth[key]
		if !ok {
			p = &MonthPoint{Month: key}
			byMonth[key] = p
		}
		switch t.Type {
		case core.Credit:
			p.Income.Cents += t.Amount.Cents
		case core.Debit:
			p.Expenses.Cents += t.Amount.Cents
		}
	}

	out := make([]MonthPoint, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	// YYYY-MM sorts chronologically as text
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	if len(out) > months {
		out = out[len(out)-months:]
	}
	return out
}

// WeeklyComparison sums debit spending per week (Monday start) over the
// last four weeks, oldest first.
func (a *Aggregator) WeeklyComparison(txs []core.Transaction, now time.Time) []WeekPoint {
	thisWeek := weekStart(now)
	oldest := core.DateOf(thisWeek.AddDate(0, 0, -7*(weeklyComparisonWeeks-1)))

	byWeek := make(map[string]*WeekPoint)
	for _, t := range txs {
		if t.Type != core.Debit {
			continue
		}
		if t.Date.Before(oldest.Time) {
			continue
		}
		ws := core.DateOf(weekStart(t.Date.Time))
		key := ws.String()
		p, ok := byWeek[key]
		if !ok {
			p = &WeekPoint{WeekStart: ws}
			byWeek[key] = p
		}
		p.Total.Cents += t.Amount.Cents
	}

	out := make([]WeekPoint, 0, len(byWeek))
	for _, p := range byWeek {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WeekStart.Before(out[j].WeekStart.Time)
	})
	return out
}

func (a *Aggregator) categoryCents(txs []core.Transaction, start, end core.Date) map[int64]int64 {
	out := make(map[int64]int64)
	for _, t := range txs {
		if t.Type != core.Debit || t.CategoryID == nil {
			continue
		}
		if !within(t.Date, start, end) {
			continue
		}
		out[*t.CategoryID] += t.Amount.Cents
	}
	return out
}

// monthBounds returns the first and last calendar day of now's month
// shifted by offset months.
func monthBounds(now time.Time, offset int) (core.Date, core.Date) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, offset, 0)
	last := first.AddDate(0, 1, -1)
	return core.DateOf(first), core.DateOf(last)
}

func within(d core.Date, start, end core.Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

// weekStart returns the Monday of t's week at UTC midnight.
func weekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func topN(totals []CategoryTotal, n int) []CategoryTotal {
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}
