package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cinescope/cinescope/src/internal/domain"
)

// PostgresUserRepo stores each user as one row; the saved titles live in a
// JSONB array on that row so a collection write is a single-row update.
type PostgresUserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, google_id, email, name, avatar, created_at, updated_at`

func (r *PostgresUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepo) GetByProviderID(ctx context.Context, providerID string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, providerID)
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepo) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	var user domain.User
	err := row.Scan(&user.ID, &user.ProviderID, &user.Email, &user.Name, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, google_id, email, name, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.ProviderID,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) LinkProvider(ctx context.Context, userID, providerID, avatarURL string) error {
	query := `UPDATE users SET google_id = $2, avatar = $3, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, providerID, avatarURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresUserRepo) GetCollection(ctx context.Context, userID string) (domain.Collection, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT saved_titles FROM users WHERE id = $1`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	titles := domain.Collection{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &titles); err != nil {
			return nil, fmt.Errorf("decode saved titles: %w", err)
		}
	}
	return titles, nil
}

func (r *PostgresUserRepo) SaveCollection(ctx context.Context, userID string, titles domain.Collection) error {
	if titles == nil {
		titles = domain.Collection{}
	}
	raw, err := json.Marshal(titles)
	if err != nil {
		return fmt.Errorf("encode saved titles: %w", err)
	}

	query := `UPDATE users SET saved_titles = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, raw)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
