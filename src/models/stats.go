package models

import "github.com/shopspring/decimal"

// CategorySpend is one row of a spending-by-category aggregate, ordered
// descending by total.
type CategorySpend struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DailySpend is one day's expense total within a stats period.
type DailySpend struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

type MonthlyStats struct {
	Income           float64         `json:"income"`
	Expenses         float64         `json:"expenses"`
	Net              float64         `json:"net"`
	TransactionCount int             `json:"transaction_count"`
	TopCategories    []CategorySpend `json:"top_categories"`
	DailySpending    []DailySpend    `json:"daily_spending"`
}

// WithPercentages fills each row's share of the combined total. Rows are
// expense totals, so the shares sum to 100 up to rounding.
func WithPercentages(rows []CategorySpend) ([]CategorySpend, float64) {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(decimal.NewFromFloat(r.Total))
	}
	if total.IsZero() {
		return rows, 0
	}
	hundred := decimal.NewFromInt(100)
	out := make([]CategorySpend, len(rows))
	for i, r := range rows {
		r.Percentage = decimal.NewFromFloat(r.Total).Mul(hundred).Div(total).InexactFloat64()
		out[i] = r
	}
	return out, total.InexactFloat64()
}
