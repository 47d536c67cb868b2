package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/victor-nwoseh/finance-tracker/internal/models"
)

const userColumns = `id, email, name, password_hash, created_at, updated_at`

// CreateUser inserts a new user row.
func (q *queries) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	row := q.db.QueryRow(ctx, query, uuid.NewString(), user.Email, user.Name, user.PasswordHash)
	return scanUser(row)
}

// FindUserByEmail fetches a user by email address, ignoring case.
func (q *queries) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(q.db.QueryRow(ctx, query, email))
}

// FindUserByID fetches a user by id.
func (q *queries) FindUserByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRow(ctx, query, id))
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, mapError(err)
	}
	return user, nil
}
