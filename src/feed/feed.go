// Package feed defines the contract with the external account-aggregation
// service. The sync engine and handlers depend on Client, never on the Plaid
// SDK directly, so tests substitute a stub.
package feed

import "context"

type Account struct {
	PlaidAccountID   string
	Name             string
	OfficialName     *string
	Type             string
	Subtype          *string
	Mask             *string
	CurrentBalance   float64
	AvailableBalance *float64
	ISOCurrencyCode  string
}

type Transaction struct {
	PlaidTransactionID  string
	PlaidAccountID      string
	Category            *string
	Subcategory         *string
	Name                string
	MerchantName        *string
	Amount              float64
	Date                string // ISO date, YYYY-MM-DD
	Pending             bool
	PaymentChannel      string
	Address             *string
	City                *string
	Region              *string
	PostalCode          *string
	Country             *string
	ISOCurrencyCode     string
	OriginalDescription *string
}

// ChangeSet is one page of the incremental transaction feed.
type ChangeSet struct {
	Added      []Transaction
	Modified   []Transaction
	RemovedIDs []string
	HasMore    bool
	NextCursor string
}

type Client interface {
	CreateLinkToken(ctx context.Context, userID int64) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error)
	Accounts(ctx context.Context, accessToken string) ([]Account, error)
	// SyncChanges fetches one page of transaction deltas. An empty cursor
	// means start from the beginning of history.
	SyncChanges(ctx context.Context, accessToken, cursor string) (*ChangeSet, error)
}
