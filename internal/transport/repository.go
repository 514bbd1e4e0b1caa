package transport

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides access to the transports table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a transport repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns every transport ordered by id.
func (r *Repository) List(ctx context.Context) ([]Transport, error) {
	const query = `
        SELECT id, name, description, people_capacity, type, photo_url
        FROM transports
        ORDER BY id
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transports []Transport
	for rows.Next() {
		t, err := scanTransport(rows)
		if err != nil {
			return nil, err
		}
		transports = append(transports, t)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return transports, nil
}

// GetByID fetches a transport by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (Transport, error) {
	const query = `
        SELECT id, name, description, people_capacity, type, photo_url
        FROM transports
        WHERE id = $1
    `

	t, err := scanTransport(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transport{}, ErrNotFound
		}
		return Transport{}, err
	}
	return t, nil
}

// Create inserts a new transport and returns the persisted record.
func (r *Repository) Create(ctx context.Context, input CreateInput) (Transport, error) {
	const query = `
        INSERT INTO transports (name, description, people_capacity, type, photo_url)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, name, description, people_capacity, type, photo_url
    `

	return scanTransport(r.pool.QueryRow(ctx, query,
		input.Name, input.Description, input.PeopleCapacity, string(input.Type), input.PhotoURL))
}

// Update persists a merged transport record.
func (r *Repository) Update(ctx context.Context, t Transport) (Transport, error) {
	const query = `
        UPDATE transports
        SET name = $2, description = $3, people_capacity = $4, type = $5, photo_url = $6
        WHERE id = $1
        RETURNING id, name, description, people_capacity, type, photo_url
    `

	updated, err := scanTransport(r.pool.QueryRow(ctx, query,
		t.ID, t.Name, t.Description, t.PeopleCapacity, string(t.Type), t.PhotoURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transport{}, ErrNotFound
		}
		return Transport{}, err
	}
	return updated, nil
}

// Delete removes a transport by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTransport(row pgx.Row) (Transport, error) {
	var (
		t   Transport
		typ string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.PeopleCapacity, &typ, &t.PhotoURL); err != nil {
		return Transport{}, err
	}

	parsed, err := ParseType(typ)
	if err != nil {
		return Transport{}, err
	}
	t.Type = parsed

	return t, nil
}
