package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sundram11/backend01/internal/auth/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBConn is the subset of pgxpool.Pool the repository needs. pgxmock pools
// satisfy it too, which is what the tests use.
type DBConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db DBConn
}

func NewPostgresUserRepository(db DBConn) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url,
	password_hash, refresh_token, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.AvatarURL, &user.CoverImageURL, &user.PasswordHash,
		&user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

func (r *PostgresRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1 OR email = $2
		LIMIT 1;
	`
	return scanUser(r.db.QueryRow(ctx, query, username, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1;
	`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (
			id, username, email, full_name, avatar_url, cover_image_url,
			password_hash, refresh_token, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, '', $8, $9)
	`, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL,
		user.CoverImageURL, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// UpdateFields applies the non-nil fields of update and returns the updated
// record, or nil when no row matches id.
func (r *PostgresRepository) UpdateFields(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	add("full_name", update.FullName)
	add("email", update.Email)
	add("avatar_url", update.AvatarURL)
	add("cover_image_url", update.CoverImageURL)
	add("password_hash", update.PasswordHash)

	query := `
		UPDATE users
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1
		RETURNING ` + userColumns + `;
	`

	return scanUser(r.db.QueryRow(ctx, query, args...))
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET refresh_token = $2, updated_at = now()
		WHERE id = $1
	`, id, token)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}

	return nil
}

// CompareAndSetRefreshToken is the rotation guard: the write only happens when
// the stored token still equals expected, so concurrent rotations with the
// same stale token cannot both succeed.
func (r *PostgresRepository) CompareAndSetRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET refresh_token = $3, updated_at = now()
		WHERE id = $1 AND refresh_token = $2
	`, id, expected, next)
	if err != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
