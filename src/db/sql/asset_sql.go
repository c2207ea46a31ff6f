package db

import (
	"context"

	"finance-app-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const assetColumns = `id, user_id, name, type, value::float8, notes, created_at, updated_at`

func scanAsset(row interface{ Scan(dest ...any) error }) (models.Asset, error) {
	var a models.Asset
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Value, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func CreateAsset(ctx context.Context, pool *pgxpool.Pool, a *models.Asset) (*models.Asset, error) {
	query := `
		INSERT INTO assets (user_id, name, type, value, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + assetColumns

	created, err := scanAsset(pool.QueryRow(ctx, query, a.UserID, a.Name, a.Type, a.Value, a.Notes))
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func GetAssetsForUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func GetAssetByID(ctx context.Context, pool *pgxpool.Pool, userID, assetID int64) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE user_id = $1 AND id = $2`

	asset, err := scanAsset(pool.QueryRow(ctx, query, userID, assetID))
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func UpdateAsset(ctx context.Context, pool *pgxpool.Pool, a *models.Asset) (*models.Asset, error) {
	query := `
		UPDATE assets SET name = $1, type = $2, value = $3, notes = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING ` + assetColumns

	updated, err := scanAsset(pool.QueryRow(ctx, query, a.Name, a.Type, a.Value, a.Notes, a.ID, a.UserID))
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func DeleteAsset(ctx context.Context, pool *pgxpool.Pool, userID, assetID int64) (bool, error) {
	tag, err := pool.Exec(ctx, `DELETE FROM assets WHERE user_id = $1 AND id = $2`, userID, assetID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
