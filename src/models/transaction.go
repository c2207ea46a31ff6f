package models

import "time"

// Transaction keeps the three category fields independent: Category is the
// upstream Plaid category, LLMCategory is the classifier's assignment and is
// overwritten whenever the feed modifies the transaction, UserCategory is set
// only by explicit user action. The displayed category is derived on read,
// never stored.
type Transaction struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	AccountID          int64     `json:"account_id"`
	PlaidTransactionID string    `json:"plaid_transaction_id"`
	Category           *string   `json:"category"`
	Subcategory        *string   `json:"subcategory"`
	LLMCategory        *string   `json:"llm_category"`
	UserCategory       *string   `json:"user_category"`
	Name               string    `json:"name"`
	MerchantName       *string   `json:"merchant_name"`
	Amount             float64   `json:"amount"`
	Date               time.Time `json:"date"`
	Pending            bool      `json:"pending"`
	PaymentChannel     *string   `json:"payment_channel"`
	Address            *string   `json:"address,omitempty"`
	City               *string   `json:"city,omitempty"`
	Region             *string   `json:"region,omitempty"`
	PostalCode         *string   `json:"postal_code,omitempty"`
	Country            *string   `json:"country,omitempty"`
	ISOCurrencyCode    string    `json:"iso_currency_code"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// EffectiveCategory is filled by handlers before serialization.
	EffectiveCategory string `json:"effective_category,omitempty"`
}

// SyncStats reports the outcome of one sync run.
type SyncStats struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// Add accumulates another run's counters, used when a manual sync spans
// multiple credentials.
func (s *SyncStats) Add(other SyncStats) {
	s.Added += other.Added
	s.Modified += other.Modified
	s.Removed += other.Removed
}
