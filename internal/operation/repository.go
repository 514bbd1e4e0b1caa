package operation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/speoper/dispatch/internal/db"
	"github.com/speoper/dispatch/internal/transport"
)

// Repository provides access to operations and their transport linkage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds an operation repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const operationColumns = `id, name, description, date, latitude, longitude, type, status, photo_url`

// ListWithTransports returns every operation with its transports loaded.
func (r *Repository) ListWithTransports(ctx context.Context) ([]Operation, error) {
	const query = `
        SELECT ` + operationColumns + `
        FROM operations
        ORDER BY id
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []Operation
	index := make(map[int64]int)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		index[op.ID] = len(ops)
		ops = append(ops, op)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if len(ops) == 0 {
		return ops, nil
	}

	const linkQuery = `
        SELECT ot.operation_id, t.id, t.name, t.description, t.people_capacity, t.type, t.photo_url
        FROM operation_transports ot
        JOIN transports t ON t.id = ot.transport_id
        ORDER BY ot.operation_id, t.id
    `

	linkRows, err := r.pool.Query(ctx, linkQuery)
	if err != nil {
		return nil, err
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var (
			opID int64
			t    transport.Transport
			typ  string
		)
		if err := linkRows.Scan(&opID, &t.ID, &t.Name, &t.Description, &t.PeopleCapacity, &typ, &t.PhotoURL); err != nil {
			return nil, err
		}
		parsed, err := transport.ParseType(typ)
		if err != nil {
			return nil, err
		}
		t.Type = parsed

		if i, ok := index[opID]; ok {
			ops[i].Transports = append(ops[i].Transports, t)
		}
	}
	if linkRows.Err() != nil {
		return nil, linkRows.Err()
	}

	return ops, nil
}

// GetByID fetches one operation with its transports.
func (r *Repository) GetByID(ctx context.Context, id int64) (Operation, error) {
	const query = `
        SELECT ` + operationColumns + `
        FROM operations
        WHERE id = $1
    `

	op, err := scanOperation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Operation{}, ErrNotFound
		}
		return Operation{}, err
	}

	const linkQuery = `
        SELECT t.id, t.name, t.description, t.people_capacity, t.type, t.photo_url
        FROM operation_transports ot
        JOIN transports t ON t.id = ot.transport_id
        WHERE ot.operation_id = $1
        ORDER BY t.id
    `

	rows, err := r.pool.Query(ctx, linkQuery, id)
	if err != nil {
		return Operation{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t   transport.Transport
			typ string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.PeopleCapacity, &typ, &t.PhotoURL); err != nil {
			return Operation{}, err
		}
		parsed, err := transport.ParseType(typ)
		if err != nil {
			return Operation{}, err
		}
		t.Type = parsed
		op.Transports = append(op.Transports, t)
	}
	if rows.Err() != nil {
		return Operation{}, rows.Err()
	}

	return op, nil
}

// Create inserts an operation and links its transports in one transaction.
func (r *Repository) Create(ctx context.Context, input CreateInput) (Operation, error) {
	var created Operation

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		const query = `
            INSERT INTO operations (name, description, date, latitude, longitude, type, status, photo_url)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING ` + operationColumns + `
        `

		op, err := scanOperation(tx.QueryRow(ctx, query,
			input.Name, input.Description, input.Date, input.Latitude, input.Longitude,
			string(input.Type), string(StatusActive), input.PhotoURL))
		if err != nil {
			return err
		}

		if err := linkTransports(ctx, tx, op.ID, input.TransportIDs); err != nil {
			return err
		}

		created = op
		return nil
	})
	if err != nil {
		return Operation{}, err
	}

	return r.GetByID(ctx, created.ID)
}

// Update persists a merged operation; when replaceTransports is set the
// linkage is rewritten from transportIDs.
func (r *Repository) Update(ctx context.Context, op Operation, replaceTransports bool, transportIDs []int64) (Operation, error) {
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		const query = `
            UPDATE operations
            SET name = $2, description = $3, date = $4, latitude = $5, longitude = $6,
                type = $7, status = $8, photo_url = $9
            WHERE id = $1
        `

		tag, err := tx.Exec(ctx, query,
			op.ID, op.Name, op.Description, op.Date, op.Latitude, op.Longitude,
			string(op.Type), string(op.Status), op.PhotoURL)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		if !replaceTransports {
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM operation_transports WHERE operation_id = $1`, op.ID); err != nil {
			return err
		}
		return linkTransports(ctx, tx, op.ID, transportIDs)
	})
	if err != nil {
		return Operation{}, err
	}

	return r.GetByID(ctx, op.ID)
}

// Delete removes an operation and its linkage.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM operation_transports WHERE operation_id = $1`, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM operations WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func linkTransports(ctx context.Context, tx pgx.Tx, operationID int64, transportIDs []int64) error {
	for _, transportID := range transportIDs {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM transports WHERE id = $1)`, transportID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("transport %d: %w", transportID, transport.ErrNotFound)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO operation_transports (operation_id, transport_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			operationID, transportID); err != nil {
			return err
		}
	}
	return nil
}

func scanOperation(row pgx.Row) (Operation, error) {
	var (
		op     Operation
		typ    string
		status string
	)
	if err := row.Scan(&op.ID, &op.Name, &op.Description, &op.Date,
		&op.Latitude, &op.Longitude, &typ, &status, &op.PhotoURL); err != nil {
		return Operation{}, err
	}

	parsedType, err := ParseType(typ)
	if err != nil {
		return Operation{}, err
	}
	op.Type = parsedType

	parsedStatus, err := ParseStatus(status)
	if err != nil {
		return Operation{}, err
	}
	op.Status = parsedStatus

	// An operation without linked transports still serializes as [].
	op.Transports = []transport.Transport{}

	return op, nil
}
