package db

import (
	"context"

	"finance-app-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const budgetColumns = `
	id, user_id, category, amount::float8, period, start_date, end_date, rollover, is_active, notes, created_at, updated_at
`

func scanBudget(row interface{ Scan(dest ...any) error }) (models.Budget, error) {
	var b models.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount, &b.Period, &b.StartDate,
		&b.EndDate, &b.Rollover, &b.IsActive, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func CreateBudget(ctx context.Context, pool *pgxpool.Pool, b *models.Budget) (*models.Budget, error) {
	query := `
		INSERT INTO budgets (user_id, category, amount, period, start_date, end_date, rollover, is_active, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + budgetColumns

	created, err := scanBudget(pool.QueryRow(ctx, query,
		b.UserID, b.Category, b.Amount, b.Period, b.StartDate, b.EndDate, b.Rollover, b.IsActive, b.Notes))
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func GetBudgetByID(ctx context.Context, pool *pgxpool.Pool, userID, budgetID int64) (*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1 AND id = $2`

	budget, err := scanBudget(pool.QueryRow(ctx, query, userID, budgetID))
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func GetBudgetsForUser(ctx context.Context, pool *pgxpool.Pool, userID int64, activeOnly bool) ([]models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY category`

	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

func UpdateBudget(ctx context.Context, pool *pgxpool.Pool, b *models.Budget) (*models.Budget, error) {
	query := `
		UPDATE budgets
		SET category = $1, amount = $2, period = $3, start_date = $4, end_date = $5,
			rollover = $6, is_active = $7, notes = $8, updated_at = NOW()
		WHERE id = $9 AND user_id = $10
		RETURNING ` + budgetColumns

	updated, err := scanBudget(pool.QueryRow(ctx, query,
		b.Category, b.Amount, b.Period, b.StartDate, b.EndDate, b.Rollover, b.IsActive, b.Notes, b.ID, b.UserID))
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func DeleteBudget(ctx context.Context, pool *pgxpool.Pool, userID, budgetID int64) (bool, error) {
	tag, err := pool.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND id = $2`, userID, budgetID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
