package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account statuses. Status lives on the account row so that an item-level
// error marks every account sharing that credential.
const (
	AccountStatusActive            = "active"
	AccountStatusError             = "error"
	AccountStatusPendingExpiration = "pending_expiration"
)

type Account struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	ItemID           int64     `json:"item_id"`
	PlaidAccountID   string    `json:"plaid_account_id"`
	Name             string    `json:"name"`
	OfficialName     *string   `json:"official_name"`
	Type             string    `json:"type"`
	Subtype          *string   `json:"subtype"`
	Mask             *string   `json:"mask"`
	CurrentBalance   float64   `json:"current_balance"`
	AvailableBalance *float64  `json:"available_balance"`
	ISOCurrencyCode  string    `json:"iso_currency_code"`
	Status           string    `json:"status"`
	ErrorCode        *string   `json:"error_code,omitempty"`
	LastUpdated      time.Time `json:"last_updated"`
	CreatedAt        time.Time `json:"created_at"`
}

// IsLiability reports whether the account's stored balance is an amount owed.
// Credit and loan balances are stored positive, per Plaid's convention.
func (a *Account) IsLiability() bool {
	return a.Type == "credit" || a.Type == "loan"
}

// Totals computes the combined balance across accounts. Asset accounts add
// their current balance, liability accounts subtract theirs. Available
// balance is summed over non-liability accounts only, skipping nulls.
func Totals(accounts []Account) (totalBalance, totalAvailableBalance float64) {
	total := decimal.Zero
	available := decimal.Zero
	for i := range accounts {
		a := &accounts[i]
		current := decimal.NewFromFloat(a.CurrentBalance)
		if a.IsLiability() {
			total = total.Sub(current)
			continue
		}
		total = total.Add(current)
		if a.AvailableBalance != nil {
			available = available.Add(decimal.NewFromFloat(*a.AvailableBalance))
		}
	}
	return total.InexactFloat64(), available.InexactFloat64()
}
