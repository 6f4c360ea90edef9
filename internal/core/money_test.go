package core

import (
	"testing"
)

func TestParseSignedDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain integer", input: "12", want: 1200},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "12.3", want: 1230},
		{name: "negative amount", input: "-45.99", want: -4599},
		{name: "explicit plus sign", input: "+10.00", want: 1000},
		{name: "thousands separator", input: "1,234.50", want: 123450},
		{name: "rounds third decimal up", input: "12.346", want: 1235},
		{name: "rounds third decimal down", input: "12.344", want: 1234},
		{name: "leading dot", input: ".50", want: 50},
		{name: "surrounding whitespace", input: "  7.25 ", want: 725},
		{name: "zero", input: "0", want: 0},
		{name: "negative zero point five", input: "-0.50", want: -50},
		{name: "empty string", input: "", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
		{name: "letters in fraction", input: "12.3a", wantErr: true},
		{name: "lone sign", input: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignedDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSignedDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseSignedDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDecimalToCents_RejectsNegative(t *testing.T) {
	if _, err := ParseDecimalToCents("-5.00"); err == nil {
		t.Error("ParseDecimalToCents(-5.00) expected error, got nil")
	}
	got, err := ParseDecimalToCents("5.00")
	if err != nil {
		t.Fatalf("ParseDecimalToCents(5.00) unexpected error: %v", err)
	}
	if got != 500 {
		t.Errorf("ParseDecimalToCents(5.00) = %d, want 500", got)
	}
}

func TestMoney_Units(t *testing.T) {
	m := Money{Cents: 1250}
	if got := m.Units(); got != 12.5 {
		t.Errorf("Units() = %v, want 12.5", got)
	}
}
