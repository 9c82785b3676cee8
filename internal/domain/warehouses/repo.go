package warehouses

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Create вставляет склад; при занятом имени возвращает (nil, nil) —
// уникальность закреплена констрейнтом, а не только проверкой в хендлере.
func (r *Repo) Create(ctx context.Context, name string) (*Warehouse, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO warehouses (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, created_at
	`, name)
	var w Warehouse
	if err := row.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Warehouse, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM warehouses WHERE id = $1
	`, id)
	var w Warehouse
	if err := row.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *Repo) GetByName(ctx context.Context, name string) (*Warehouse, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM warehouses WHERE name = $1
	`, name)
	var w Warehouse
	if err := row.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *Repo) List(ctx context.Context) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at FROM warehouses ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
