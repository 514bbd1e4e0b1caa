package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/speoper/dispatch/internal/auth"
	"github.com/speoper/dispatch/internal/transport"
)

// Repository provides access to the users table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByEmail fetches a user by its login key.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `
        SELECT id, email, password_hash, role, service_type
        FROM users
        WHERE email = $1
    `

	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetByID fetches a user by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (User, error) {
	const query = `
        SELECT id, email, password_hash, role, service_type
        FROM users
        WHERE id = $1
    `

	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// Create inserts a new user and returns the persisted record.
func (r *Repository) Create(ctx context.Context, email, passwordHash string, serviceType *transport.Type) (User, error) {
	const query = `
        INSERT INTO users (email, password_hash, role, service_type)
        VALUES ($1, $2, $3, $4)
        RETURNING id, email, password_hash, role, service_type
    `

	var st *string
	if serviceType != nil {
		s := string(*serviceType)
		st = &s
	}

	u, err := scanUser(r.pool.QueryRow(ctx, query, email, passwordHash, string(RoleWorker), st))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u           User
		role        string
		serviceType *string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &serviceType); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}

	parsed, err := auth.ParseRole(role)
	if err != nil {
		return User{}, err
	}
	u.Role = parsed

	if serviceType != nil {
		st, err := transport.ParseType(*serviceType)
		if err != nil {
			return User{}, err
		}
		u.ServiceType = &st
	}

	return u, nil
}
