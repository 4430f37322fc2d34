package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("user not found")

func Create(ctx context.Context, db sqlx.ExtContext, u User) error {
	const q = `
	INSERT INTO users
		(user_id, name, email, role, password_hash, created_at, updated_at)
	VALUES
		(:user_id, :name, :email, :role, :password_hash, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, u); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db *sqlx.DB, id string) (User, error) {
	const q = `
	SELECT user_id, name, email, role, password_hash, created_at, updated_at
	FROM users
	WHERE user_id = $1`

	var u User
	if err := db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user[%s]: %w", id, err)
	}
	return u, nil
}

func FetchByEmail(ctx context.Context, db *sqlx.DB, email string) (User, error) {
	const q = `
	SELECT user_id, name, email, role, password_hash, created_at, updated_at
	FROM users
	WHERE email = $1`

	var u User
	if err := db.GetContext(ctx, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user by email: %w", err)
	}
	return u, nil
}
