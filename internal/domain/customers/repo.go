package customers

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Create вставляет клиента; занятое имя — (nil, nil), как в warehouses.
func (r *Repo) Create(ctx context.Context, name string) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, created_at
	`, name)
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) GetByName(ctx context.Context, name string) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM customers WHERE name = $1
	`, name)
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at FROM customers ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
