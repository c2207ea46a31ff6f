package feed

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/plaid/plaid-go/v41/plaid"
)

// PlaidClient implements Client against the Plaid API.
type PlaidClient struct {
	api        *plaid.APIClient
	clientName string
	webhookURL string
}

func NewPlaidClient(clientID, secret, env, webhookURL string) *PlaidClient {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)

	switch env {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		log.Fatalf("Invalid Plaid environment: %s", env)
	}

	return &PlaidClient{
		api:        plaid.NewAPIClient(configuration),
		clientName: "Finance App",
		webhookURL: webhookURL,
	}
}

// API exposes the underlying SDK client for webhook signature verification.
func (c *PlaidClient) API() *plaid.APIClient {
	return c.api
}

func (c *PlaidClient) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: strconv.FormatInt(userID, 10),
	}
	request := plaid.NewLinkTokenCreateRequest(
		c.clientName,
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
	)
	request.SetUser(user)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})
	if c.webhookURL != "" {
		request.SetWebhook(c.webhookURL)
	}

	resp, _, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", fmt.Errorf("plaid link token create: %w", err)
	}
	return resp.GetLinkToken(), nil
}

func (c *PlaidClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return "", "", fmt.Errorf("plaid public token exchange: %w", err)
	}
	return resp.GetAccessToken(), resp.GetItemId(), nil
}

func (c *PlaidClient) Accounts(ctx context.Context, accessToken string) ([]Account, error) {
	request := plaid.NewAccountsGetRequest(accessToken)
	resp, _, err := c.api.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
	if err != nil {
		return nil, fmt.Errorf("plaid accounts get: %w", err)
	}

	accounts := make([]Account, 0, len(resp.GetAccounts()))
	for _, acc := range resp.GetAccounts() {
		balances := acc.GetBalances()

		a := Account{
			PlaidAccountID:   acc.GetAccountId(),
			Name:             acc.GetName(),
			OfficialName:     acc.OfficialName.Get(),
			Type:             string(acc.GetType()),
			Mask:             acc.Mask.Get(),
			CurrentBalance:   balances.GetCurrent(),
			AvailableBalance: balances.Available.Get(),
			ISOCurrencyCode:  currencyOrDefault(balances.IsoCurrencyCode.Get()),
		}
		if sub := acc.Subtype.Get(); sub != nil {
			s := string(*sub)
			a.Subtype = &s
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (c *PlaidClient) SyncChanges(ctx context.Context, accessToken, cursor string) (*ChangeSet, error) {
	request := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		request.SetCursor(cursor)
	}

	resp, _, err := c.api.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		return nil, fmt.Errorf("plaid transactions sync: %w", err)
	}

	page := &ChangeSet{
		Added:      convertTransactions(resp.GetAdded()),
		Modified:   convertTransactions(resp.GetModified()),
		HasMore:    resp.GetHasMore(),
		NextCursor: resp.GetNextCursor(),
	}
	for _, removed := range resp.GetRemoved() {
		page.RemovedIDs = append(page.RemovedIDs, removed.GetTransactionId())
	}
	return page, nil
}

func convertTransactions(txns []plaid.Transaction) []Transaction {
	out := make([]Transaction, 0, len(txns))
	for _, txn := range txns {
		location := txn.GetLocation()

		t := Transaction{
			PlaidTransactionID:  txn.GetTransactionId(),
			PlaidAccountID:      txn.GetAccountId(),
			Name:                txn.GetName(),
			MerchantName:        txn.MerchantName.Get(),
			Amount:              txn.GetAmount(),
			Date:                txn.GetDate(),
			Pending:             txn.GetPending(),
			PaymentChannel:      txn.GetPaymentChannel(),
			Address:             location.Address.Get(),
			City:                location.City.Get(),
			Region:              location.Region.Get(),
			PostalCode:          location.PostalCode.Get(),
			Country:             location.Country.Get(),
			ISOCurrencyCode:     currencyOrDefault(txn.IsoCurrencyCode.Get()),
			OriginalDescription: txn.OriginalDescription.Get(),
		}
		if categories := txn.GetCategory(); len(categories) > 0 {
			t.Category = &categories[0]
			if len(categories) > 1 {
				t.Subcategory = &categories[1]
			}
		}
		out = append(out, t)
	}
	return out
}

func currencyOrDefault(code *string) string {
	if code == nil || *code == "" {
		return "USD"
	}
	return *code
}
