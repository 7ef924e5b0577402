package models

import (
	"context"
	"time"

	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/storage"
	"imdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, first_name, last_name, role, is_active, password_hash, last_login, date_joined`

type UserModel struct {
	DB *pgxpool.Pool
}

func (m *UserModel) collectOne(rows pgx.Rows, err error) (*models.User, error) {
	if err != nil {
		return nil, postgres.MapError(err)
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.User])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return user, nil
}

func (m *UserModel) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	rows, err := m.DB.Query(
		ctx,
		`INSERT INTO users (username, email, first_name, last_name, role, is_active, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+userColumns,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role.String(),
		user.IsActive,
		user.PasswordHash,
	)
	return m.collectOne(rows, err)
}

func (m *UserModel) GetByID(ctx context.Context, id int64) (*models.User, error) {
	rows, err := m.DB.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return m.collectOne(rows, err)
}

func (m *UserModel) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	rows, err := m.DB.Query(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return m.collectOne(rows, err)
}

// Taken reports whether the email and the username are already in use.
func (m *UserModel) Taken(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error) {
	err = m.DB.QueryRow(
		ctx,
		`SELECT
			EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1)),
			EXISTS (SELECT 1 FROM users WHERE lower(username) = lower($2))`,
		email,
		username,
	).Scan(&emailTaken, &usernameTaken)
	return emailTaken, usernameTaken, postgres.MapError(err)
}

// Activate only touches the row while last_login still equals seenLogin,
// otherwise storage.ErrNotFound is returned.
func (m *UserModel) Activate(ctx context.Context, id int64, seenLogin *time.Time, loginAt time.Time) (*models.User, error) {
	rows, err := m.DB.Query(
		ctx,
		`UPDATE users SET is_active = true, last_login = $2
		WHERE id = $1 AND last_login IS NOT DISTINCT FROM $3::timestamptz
		RETURNING `+userColumns,
		id,
		loginAt,
		seenLogin,
	)
	return m.collectOne(rows, err)
}

func (m *UserModel) SetRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	rows, err := m.DB.Query(
		ctx,
		`UPDATE users SET role = $2 WHERE lower(email) = lower($1) RETURNING `+userColumns,
		email,
		role.String(),
	)
	return m.collectOne(rows, err)
}

func (m *UserModel) Delete(ctx context.Context, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
