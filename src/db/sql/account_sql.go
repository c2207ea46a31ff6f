package db

import (
	"context"

	"finance-app-server/src/feed"
	"finance-app-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SaveAccounts upserts feed accounts under an item, keyed by the Plaid
// account id. Returns the number of rows written.
func SaveAccounts(ctx context.Context, pool *pgxpool.Pool, userID, itemID int64, accounts []feed.Account) (int, error) {
	query := `
		INSERT INTO accounts (
			user_id, item_id, plaid_account_id, name, official_name, type, subtype, mask,
			current_balance, available_balance, iso_currency_code, status, last_updated, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'active', NOW(), NOW(), NOW())
		ON CONFLICT (plaid_account_id) DO UPDATE SET
			name = EXCLUDED.name,
			official_name = EXCLUDED.official_name,
			subtype = EXCLUDED.subtype,
			mask = EXCLUDED.mask,
			current_balance = EXCLUDED.current_balance,
			available_balance = EXCLUDED.available_balance,
			iso_currency_code = EXCLUDED.iso_currency_code,
			last_updated = NOW(),
			updated_at = NOW()
	`

	saved := 0
	for _, acc := range accounts {
		_, err := pool.Exec(ctx, query,
			userID,
			itemID,
			acc.PlaidAccountID,
			acc.Name,
			acc.OfficialName,
			acc.Type,
			acc.Subtype,
			acc.Mask,
			acc.CurrentBalance,
			acc.AvailableBalance,
			acc.ISOCurrencyCode,
		)
		if err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

const accountColumns = `
	id, user_id, item_id, plaid_account_id, name, official_name, type, subtype, mask,
	current_balance::float8, available_balance::float8, iso_currency_code, status, error_code,
	last_updated, created_at
`

func scanAccount(row interface{ Scan(dest ...any) error }) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.UserID, &a.ItemID, &a.PlaidAccountID, &a.Name, &a.OfficialName,
		&a.Type, &a.Subtype, &a.Mask, &a.CurrentBalance, &a.AvailableBalance,
		&a.ISOCurrencyCode, &a.Status, &a.ErrorCode, &a.LastUpdated, &a.CreatedAt)
	return a, err
}

func GetAccountsForUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func GetAccountByID(ctx context.Context, pool *pgxpool.Pool, userID, accountID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND id = $2`

	account, err := scanAccount(pool.QueryRow(ctx, query, userID, accountID))
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountIDsByPlaidID maps Plaid account ids to local row ids for one item.
func GetAccountIDsByPlaidID(ctx context.Context, pool *pgxpool.Pool, itemID int64) (map[string]int64, error) {
	rows, err := pool.Query(ctx, `SELECT plaid_account_id, id FROM accounts WHERE item_id = $1`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var plaidID string
		var id int64
		if err := rows.Scan(&plaidID, &id); err != nil {
			return nil, err
		}
		ids[plaidID] = id
	}
	return ids, rows.Err()
}

func UpdateAccountBalances(ctx context.Context, pool *pgxpool.Pool, plaidAccountID string, current float64, available *float64) error {
	query := `
		UPDATE accounts
		SET current_balance = $1, available_balance = $2, last_updated = NOW(), updated_at = NOW()
		WHERE plaid_account_id = $3
	`
	_, err := pool.Exec(ctx, query, current, available, plaidAccountID)
	return err
}

// SetAccountStatusByItem marks every account under a Plaid item, used by the
// webhook dispatcher for item error and expiration notifications.
func SetAccountStatusByItem(ctx context.Context, pool *pgxpool.Pool, plaidItemID, status string, errorCode *string) error {
	query := `
		UPDATE accounts
		SET status = $1, error_code = $2, updated_at = NOW()
		WHERE item_id = (SELECT id FROM plaid_items WHERE item_id = $3)
	`
	_, err := pool.Exec(ctx, query, status, errorCode, plaidItemID)
	return err
}
