package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kterra/authbridge/internal/server"
)

// User is a registered account. PasswordHash never leaves the service
// layer; response types carry only the public fields.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UsersRepository persists users.
//
// Not-found errors are wrapped with a "table:users:" prefix so the
// sqlerr layer can phrase the 404 ("User not found") without this
// package knowing about HTTP.
type UsersRepository struct {
	server *server.Server
}

// NewUsersRepository constructs a UsersRepository.
func NewUsersRepository(s *server.Server) *UsersRepository {
	return &UsersRepository{server: s}
}

const userColumns = `id, email, password_hash, first_name, role, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and returns the stored row. Uniqueness on email
// is enforced by the users_email_key constraint; violations surface as
// pgconn errors handled by sqlerr.
func (r *UsersRepository) Create(ctx context.Context, email, passwordHash, firstName string) (*User, error) {
	row := r.server.DB.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		email, passwordHash, firstName,
	)
	return scanUser(row)
}

// GetByEmail fetches a user by email.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.server.DB.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("table:users: %w", err)
	}
	return user, nil
}

// GetByID fetches a user by primary key.
func (r *UsersRepository) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.server.DB.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("table:users: %w", err)
	}
	return user, nil
}

// List returns all users, newest first. Admin-only; callers are
// expected to be behind the admin role check.
func (r *UsersRepository) List(ctx context.Context, limit int) ([]*User, error) {
	rows, err := r.server.DB.Pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile updates the mutable profile fields and returns the
// fresh row.
func (r *UsersRepository) UpdateProfile(ctx context.Context, id, firstName string) (*User, error) {
	row := r.server.DB.Pool.QueryRow(ctx, `
		UPDATE users
		SET first_name = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, firstName,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("table:users: %w", err)
	}
	return user, nil
}
