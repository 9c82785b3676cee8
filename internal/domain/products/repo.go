package products

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, name string, unit Unit, warehouseID int64) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, unit, warehouse_id)
		VALUES ($1,$2,$3)
		RETURNING id, name, unit, warehouse_id, created_at
	`, name, int(unit), warehouseID)
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Unit, &p.WarehouseID, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListByWarehouse(ctx context.Context, warehouseID int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, unit, warehouse_id, created_at
		FROM products WHERE warehouse_id = $1
		ORDER BY name
	`, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &p.WarehouseID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
