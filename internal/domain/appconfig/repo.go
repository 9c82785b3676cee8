package appconfig

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// KeyAdminPassword — общий админ-пароль. Отсутствие значения означает,
// что система ещё не инициализирована.
const KeyAdminPassword = "admin_password"

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Value(ctx context.Context, key string) (string, error) {
	row := r.pool.QueryRow(ctx, `SELECT value FROM app_config WHERE key = $1`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func (r *Repo) SetValue(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_config (key, value, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = now()
	`, key, value)
	return err
}
