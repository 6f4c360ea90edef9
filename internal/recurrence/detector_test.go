package recurrence

import (
	"testing"

	"fintrack/internal/core"
)

func debit(desc string, cents int64, date core.Date) core.Transaction {
	return core.Transaction{
		UserID:      1,
		Date:        date,
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Type:        core.Debit,
	}
}

func TestDetector_MonthlySubscription(t *testing.T) {
	d := NewDetector(nil)
	txs := []core.Transaction{
		debit("Netflix", 1599, core.NewDate(2024, 1, 5)),
		debit("netflix ", 1599, core.NewDate(2024, 2, 5)),
		debit("NETFLIX", 1599, core.NewDate(2024, 3, 5)),
	}

	got := d.Detect(1, txs)
	if len(got) != 1 {
		t.Fatalf("Detect() returned %d payments, want 1", len(got))
	}
	p := got[0]
	if p.ServiceName != "netflix" {
		t.Errorf("ServiceName = %q, want %q", p.ServiceName, "netflix")
	}
	if p.Amount.Cents != 1599 {
		t.Errorf("Amount = %d, want 1599", p.Amount.Cents)
	}
	if p.Frequency != core.Monthly {
		t.Errorf("Frequency = %s, want %s", p.Frequency, core.Monthly)
	}
	if p.LastDetected != core.NewDate(2024, 3, 5) {
		t.Errorf("LastDetected = %s, want 2024-03-05", p.LastDetected)
	}
	if p.UserID != 1 {
		t.Errorf("UserID = %d, want 1", p.UserID)
	}
}

func TestDetector_TwoOccurrenceGapRule(t *testing.T) {
	tests := []struct {
		name    string
		gapDays int
		want    bool
	}{
		{name: "25 day gap qualifies", gapDays: 25, want: true},
		{name: "30 day gap qualifies", gapDays: 30, want: true},
		{name: "35 day gap qualifies", gapDays: 35, want: true},
		{name: "24 day gap too tight", gapDays: 24, want: false},
		{name: "40 day gap too loose", gapDays: 40, want: false},
		{name: "7 day gap not monthly", gapDays: 7, want: false},
	}

	d := NewDetector(ExactStrategy{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := core.NewDate(2024, 1, 1)
			txs := []core.Transaction{
				debit("gym", 2999, first),
				debit("gym", 2999, core.DateOf(first.AddDate(0, 0, tt.gapDays))),
			}
			got := d.Detect(1, txs)
			if (len(got) == 1) != tt.want {
				t.Errorf("Detect() found %d payments, want qualified=%v", len(got), tt.want)
			}
		})
	}
}

func TestDetector_ThreeOccurrencesAlwaysQualify(t *testing.T) {
	d := NewDetector(nil)
	// Irregular gaps (10 and 100 days), still three occurrences.
	txs := []core.Transaction{
		debit("storage unit", 5000, core.NewDate(2024, 1, 1)),
		debit("storage unit", 5000, core.NewDate(2024, 1, 11)),
		debit("storage unit", 5000, core.NewDate(2024, 4, 20)),
	}
	got := d.Detect(1, txs)
	if len(got) != 1 {
		t.Fatalf("Detect() returned %d payments, want 1", len(got))
	}
	if got[0].Frequency != core.Monthly {
		t.Errorf("Frequency = %s, want monthly default for irregular gaps", got[0].Frequency)
	}
}

func TestDetector_FrequencyClassification(t *testing.T) {
	tests := []struct {
		name    string
		gapDays int
		want    core.Frequency
	}{
		{name: "30 days is monthly", gapDays: 30, want: core.Monthly},
		{name: "90 days is quarterly", gapDays: 90, want: core.Quarterly},
		{name: "365 days is yearly", gapDays: 365, want: core.Yearly},
		{name: "60 days defaults to monthly", gapDays: 60, want: core.Monthly},
	}

	d := NewDetector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := core.NewDate(2022, 1, 1)
			txs := []core.Transaction{
				debit("svc", 1000, first),
				debit("svc", 1000, core.DateOf(first.AddDate(0, 0, tt.gapDays))),
				debit("svc", 1000, core.DateOf(first.AddDate(0, 0, 2*tt.gapDays))),
			}
			got := d.Detect(1, txs)
			if len(got) != 1 {
				t.Fatalf("Detect() returned %d payments, want 1", len(got))
			}
			if got[0].Frequency != tt.want {
				t.Errorf("Frequency = %s, want %s", got[0].Frequency, tt.want)
			}
		})
	}
}

func TestDetector_IgnoresCreditsAndZeroAmounts(t *testing.T) {
	d := NewDetector(nil)
	credit := core.Transaction{
		UserID: 1, Date: core.NewDate(2024, 1, 1),
		Description: "salary", Amount: core.Money{Cents: 100000}, Type: core.Credit,
	}
	txs := []core.Transaction{
		credit,
		debit("zero fee", 0, core.NewDate(2024, 1, 1)),
		debit("zero fee", 0, core.NewDate(2024, 2, 1)),
		debit("zero fee", 0, core.NewDate(2024, 3, 1)),
	}
	if got := d.Detect(1, txs); len(got) != 0 {
		t.Errorf("Detect() returned %d payments, want 0", len(got))
	}
}

func TestDetector_DifferentAmountsSplitGroups(t *testing.T) {
	d := NewDetector(ExactStrategy{})
	// Price changed after one charge; exact grouping splits and neither
	// half has enough occurrences.
	txs := []core.Transaction{
		debit("spotify", 999, core.NewDate(2024, 1, 10)),
		debit("spotify", 1099, core.NewDate(2024, 2, 10)),
	}
	if got := d.Detect(1, txs); len(got) != 0 {
		t.Errorf("Detect() returned %d payments, want 0 for split groups", len(got))
	}
}

func TestDetector_Ordering(t *testing.T) {
	d := NewDetector(nil)
	var txs []core.Transaction
	// rent: 3 occurrences, large amount
	for m := 1; m <= 3; m++ {
		txs = append(txs, debit("rent", 120000, core.NewDate(2024, m, 1)))
	}
	// netflix: 4 occurrences, small amount
	for m := 1; m <= 4; m++ {
		txs = append(txs, debit("netflix", 1599, core.NewDate(2024, m, 5)))
	}
	// gym: 3 occurrences, mid amount
	for m := 1; m <= 3; m++ {
		txs = append(txs, debit("gym", 2999, core.NewDate(2024, m, 3)))
	}

	got := d.Detect(1, txs)
	if len(got) != 3 {
		t.Fatalf("Detect() returned %d payments, want 3", len(got))
	}
	wantOrder := []string{"netflix", "rent", "gym"}
	for i, name := range wantOrder {
		if got[i].ServiceName != name {
			t.Errorf("Detect()[%d] = %q, want %q (count desc, then amount desc)", i, got[i].ServiceName, name)
		}
	}
}

func TestDetector_Deterministic(t *testing.T) {
	d := NewDetector(nil)
	txs := []core.Transaction{
		debit("netflix", 1599, core.NewDate(2024, 3, 5)),
		debit("rent", 120000, core.NewDate(2024, 1, 1)),
		debit("netflix", 1599, core.NewDate(2024, 1, 5)),
		debit("rent", 120000, core.NewDate(2024, 2, 1)),
		debit("netflix", 1599, core.NewDate(2024, 2, 5)),
		debit("rent", 120000, core.NewDate(2024, 3, 1)),
	}

	first := d.Detect(1, txs)
	for run := 0; run < 5; run++ {
		again := d.Detect(1, txs)
		if len(again) != len(first) {
			t.Fatalf("run %d: length %d, want %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Errorf("run %d: result[%d] = %+v, want %+v", run, i, again[i], first[i])
			}
		}
	}
}
