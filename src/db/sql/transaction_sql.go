package db

import (
	"context"
	"fmt"
	"time"

	"finance-app-server/src/feed"
	"finance-app-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// effectiveCategorySQL derives the displayed category in SQL with the same
// precedence the category package uses in Go. It is computed per read, never
// stored.
const effectiveCategorySQL = `
	COALESCE(NULLIF(user_category, ''), NULLIF(llm_category, ''), NULLIF(category, ''), 'Uncategorized')
`

// UpsertTransaction inserts or fully refreshes a transaction keyed by the
// Plaid transaction id. user_category is never written here; it belongs to
// SetUserCategory alone.
func UpsertTransaction(ctx context.Context, pool *pgxpool.Pool, userID, accountID int64, t feed.Transaction, llmCategory string) error {
	date, err := time.Parse("2006-01-02", t.Date)
	if err != nil {
		return fmt.Errorf("parse transaction date %q: %w", t.Date, err)
	}

	query := `
		INSERT INTO transactions (
			user_id, account_id, plaid_transaction_id, category, subcategory, llm_category,
			name, merchant_name, amount, date, pending, payment_channel,
			address, city, region, postal_code, country, iso_currency_code, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
		ON CONFLICT (plaid_transaction_id) DO UPDATE SET
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			llm_category = EXCLUDED.llm_category,
			name = EXCLUDED.name,
			merchant_name = EXCLUDED.merchant_name,
			amount = EXCLUDED.amount,
			date = EXCLUDED.date,
			pending = EXCLUDED.pending,
			payment_channel = EXCLUDED.payment_channel,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			region = EXCLUDED.region,
			postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country,
			iso_currency_code = EXCLUDED.iso_currency_code,
			updated_at = NOW()
	`

	_, err = pool.Exec(ctx, query,
		userID, accountID, t.PlaidTransactionID, t.Category, t.Subcategory, llmCategory,
		t.Name, t.MerchantName, t.Amount, date, t.Pending, t.PaymentChannel,
		t.Address, t.City, t.Region, t.PostalCode, t.Country, t.ISOCurrencyCode,
	)
	return err
}

// DeleteTransactionByPlaidID removes a transaction by its external id,
// reporting whether a row existed. A missing row is not an error.
func DeleteTransactionByPlaidID(ctx context.Context, pool *pgxpool.Pool, plaidTransactionID string) (bool, error) {
	tag, err := pool.Exec(ctx, `DELETE FROM transactions WHERE plaid_transaction_id = $1`, plaidTransactionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetUserCategory is the only writer of user_category.
func SetUserCategory(ctx context.Context, pool *pgxpool.Pool, userID, transactionID int64, category string) (*models.Transaction, error) {
	query := `
		UPDATE transactions SET user_category = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING ` + transactionColumns

	txn, err := scanTransaction(pool.QueryRow(ctx, query, category, transactionID, userID))
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

const transactionColumns = `
	id, user_id, account_id, plaid_transaction_id, category, subcategory, llm_category, user_category,
	name, merchant_name, amount::float8, date, pending, payment_channel,
	address, city, region, postal_code, country, iso_currency_code, created_at, updated_at
`

func scanTransaction(row interface{ Scan(dest ...any) error }) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.PlaidTransactionID,
		&t.Category, &t.Subcategory, &t.LLMCategory, &t.UserCategory,
		&t.Name, &t.MerchantName, &t.Amount, &t.Date, &t.Pending, &t.PaymentChannel,
		&t.Address, &t.City, &t.Region, &t.PostalCode, &t.Country, &t.ISOCurrencyCode,
		&t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// TransactionFilter narrows the paged listing. The category filter matches
// the raw upstream/llm/user columns, not the derived effective category,
// matching the API's documented behavior.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	AccountID *int64
	Category  string
	Page      int
	PageSize  int
}

func GetTransactions(ctx context.Context, pool *pgxpool.Pool, userID int64, filter TransactionFilter) ([]models.Transaction, int, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	addArg := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.StartDate != nil {
		addArg("date >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		addArg("date <= $%d", *filter.EndDate)
	}
	if filter.AccountID != nil {
		addArg("account_id = $%d", *filter.AccountID)
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND (category = $%d OR llm_category = $%d OR user_category = $%d)", len(args), len(args), len(args))
	}

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	args = append(args, filter.PageSize, offset)
	query := fmt.Sprintf(
		"SELECT "+transactionColumns+" FROM transactions "+where+" ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d",
		len(args)-1, len(args))

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, txn)
	}

	return transactions, total, rows.Err()
}

func GetTransactionByID(ctx context.Context, pool *pgxpool.Pool, userID, transactionID int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND id = $2`

	txn, err := scanTransaction(pool.QueryRow(ctx, query, userID, transactionID))
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func GetRecentTransactions(ctx context.Context, pool *pgxpool.Pool, userID int64, limit int) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 ORDER BY date DESC, id DESC LIMIT $2`

	rows, err := pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

// SpendingByCategory aggregates expense-sign (positive) amounts by effective
// category, descending by total. Income-sign rows are excluded. Nil date
// bounds mean unbounded.
func SpendingByCategory(ctx context.Context, pool *pgxpool.Pool, userID int64, start, end *time.Time) ([]models.CategorySpend, error) {
	where := "WHERE user_id = $1 AND amount > 0"
	args := []any{userID}

	if start != nil {
		args = append(args, *start)
		where += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		where += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	query := `
		SELECT ` + effectiveCategorySQL + ` AS category, SUM(amount)::float8 AS total, COUNT(*) AS count
		FROM transactions ` + where + `
		GROUP BY 1
		ORDER BY total DESC
	`

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spending []models.CategorySpend
	for rows.Next() {
		var row models.CategorySpend
		if err := rows.Scan(&row.Category, &row.Total, &row.Count); err != nil {
			return nil, err
		}
		spending = append(spending, row)
	}
	return spending, rows.Err()
}

// GetMonthlyStats reports income magnitude, expenses, net, count, top five
// spending categories and the daily expense series for a date range.
func GetMonthlyStats(ctx context.Context, pool *pgxpool.Pool, userID int64, start, end time.Time) (*models.MonthlyStats, error) {
	stats := &models.MonthlyStats{}

	query := `
		SELECT
			COALESCE(-SUM(amount) FILTER (WHERE amount < 0), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)::float8,
			COUNT(*)
		FROM transactions
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
	`
	err := pool.QueryRow(ctx, query, userID, start, end).
		Scan(&stats.Income, &stats.Expenses, &stats.TransactionCount)
	if err != nil {
		return nil, err
	}
	stats.Net = stats.Income - stats.Expenses

	top, err := SpendingByCategory(ctx, pool, userID, &start, &end)
	if err != nil {
		return nil, err
	}
	if len(top) > 5 {
		top = top[:5]
	}
	stats.TopCategories = top

	daily := `
		SELECT to_char(date, 'YYYY-MM-DD'), SUM(amount)::float8
		FROM transactions
		WHERE user_id = $1 AND date BETWEEN $2 AND $3 AND amount > 0
		GROUP BY date
		ORDER BY date
	`
	rows, err := pool.Query(ctx, daily, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day models.DailySpend
		if err := rows.Scan(&day.Date, &day.Total); err != nil {
			return nil, err
		}
		stats.DailySpending = append(stats.DailySpending, day)
	}
	return stats, rows.Err()
}
