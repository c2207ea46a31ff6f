package db

import (
	"context"

	"finance-app-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateUser(ctx context.Context, pool *pgxpool.Pool, req models.RegisterRequest, passwordHash []byte) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, email, first_name, last_name, created_at, updated_at
	`

	var user models.User
	err := pool.QueryRow(ctx, query, req.Email, passwordHash, req.FirstName, req.LastName).
		Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByEmail(ctx context.Context, pool *pgxpool.Pool, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, last_login, created_at, updated_at
		FROM users WHERE email = $1
	`

	var user models.User
	err := pool.QueryRow(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByID(ctx context.Context, pool *pgxpool.Pool, userID int64) (*models.User, error) {
	query := `
		SELECT id, email, first_name, last_name, last_login, created_at, updated_at
		FROM users WHERE id = $1
	`

	var user models.User
	err := pool.QueryRow(ctx, query, userID).
		Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func UpdateUserLastLogin(ctx context.Context, pool *pgxpool.Pool, userID int64) error {
	_, err := pool.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, userID)
	return err
}
