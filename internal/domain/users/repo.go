package users

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const userColumns = `chat_id, username, full_name, role, caps, status, language, warehouse_id, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ChatID, &u.Username, &u.FullName, &u.Role, &u.Caps,
		&u.Status, &u.Language, &u.WarehouseID, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetByChatID(ctx context.Context, chatID int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE chat_id = $1
	`, chatID)
	return scanUser(row)
}

// Add регистрирует пользователя при первом контакте. При гонке двух
// апдейтов от одного чата вставка идемпотентна.
func (r *Repo) Add(ctx context.Context, u *User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (chat_id, username, full_name, role, caps, status, language, warehouse_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (chat_id) DO UPDATE SET
			username  = EXCLUDED.username,
			full_name = EXCLUDED.full_name
		RETURNING `+userColumns+`
	`, u.ChatID, u.Username, u.FullName, u.Role, u.Caps, u.Status, u.Language, u.WarehouseID)
	saved, err := scanUser(row)
	if err != nil {
		return err
	}
	*u = *saved
	return nil
}

func (r *Repo) Update(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET
			username = $2, full_name = $3, role = $4, caps = $5,
			status = $6, language = $7, warehouse_id = $8
		WHERE chat_id = $1
	`, u.ChatID, u.Username, u.FullName, u.Role, u.Caps, u.Status, u.Language, u.WarehouseID)
	return err
}

func (r *Repo) ListPending(ctx context.Context) ([]User, error) {
	return r.list(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE status = 'pending'
		ORDER BY created_at
	`)
}

func (r *Repo) ListAll(ctx context.Context) ([]User, error) {
	return r.list(ctx, `
		SELECT `+userColumns+`
		FROM users ORDER BY created_at
	`)
}

func (r *Repo) list(ctx context.Context, query string) ([]User, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ChatID, &u.Username, &u.FullName, &u.Role, &u.Caps,
			&u.Status, &u.Language, &u.WarehouseID, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
