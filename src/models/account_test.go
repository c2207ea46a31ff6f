package models

import (
	"math"
	"testing"
)

func fptr(f float64) *float64 { return &f }

// Credit and loan balances are stored as positive amounts owed, so Totals
// subtracts them. A depository account at 1000 and a credit card owing 200
// net to 800.
func TestTotals(t *testing.T) {
	tests := []struct {
		name          string
		accounts      []Account
		wantTotal     float64
		wantAvailable float64
	}{
		{
			name: "depository minus credit owed",
			accounts: []Account{
				{Type: "depository", CurrentBalance: 1000, AvailableBalance: fptr(900)},
				{Type: "credit", CurrentBalance: 200},
			},
			wantTotal:     800,
			wantAvailable: 900,
		},
		{
			name: "loan subtracts too",
			accounts: []Account{
				{Type: "depository", CurrentBalance: 5000, AvailableBalance: fptr(5000)},
				{Type: "loan", CurrentBalance: 12000},
			},
			wantTotal:     -7000,
			wantAvailable: 5000,
		},
		{
			name: "investment counts as asset, nil available skipped",
			accounts: []Account{
				{Type: "investment", CurrentBalance: 2500.25},
				{Type: "depository", CurrentBalance: 100.10, AvailableBalance: fptr(99.90)},
			},
			wantTotal:     2600.35,
			wantAvailable: 99.90,
		},
		{
			name: "liability available balance ignored",
			accounts: []Account{
				{Type: "credit", CurrentBalance: 50, AvailableBalance: fptr(450)},
			},
			wantTotal:     -50,
			wantAvailable: 0,
		},
		{
			name:          "no accounts",
			accounts:      nil,
			wantTotal:     0,
			wantAvailable: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, available := Totals(tt.accounts)
			if math.Abs(total-tt.wantTotal) > 1e-9 {
				t.Errorf("Totals() total = %v, want %v", total, tt.wantTotal)
			}
			if math.Abs(available-tt.wantAvailable) > 1e-9 {
				t.Errorf("Totals() available = %v, want %v", available, tt.wantAvailable)
			}
		})
	}
}

func TestWithPercentages(t *testing.T) {
	rows := []CategorySpend{
		{Category: "Food", Total: 300, Count: 12},
		{Category: "Housing", Total: 600, Count: 1},
		{Category: "Travel", Total: 100, Count: 2},
	}

	out, total := WithPercentages(rows)
	if total != 1000 {
		t.Fatalf("total = %v, want 1000", total)
	}

	sum := 0.0
	for _, r := range out {
		sum += r.Percentage
	}
	if math.Abs(sum-100) > 0.01 {
		t.Errorf("percentages sum to %v, want 100", sum)
	}
	if out[1].Percentage != 60 {
		t.Errorf("Housing percentage = %v, want 60", out[1].Percentage)
	}
}

func TestWithPercentagesEmpty(t *testing.T) {
	out, total := WithPercentages(nil)
	if len(out) != 0 || total != 0 {
		t.Errorf("WithPercentages(nil) = %v, %v", out, total)
	}
}
