package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, birthday, bio)
		VALUES ($1, $2, LOWER($3), $4, $5, $6)
		RETURNING email, created_at, updated_at
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.Birthday, user.Bio).Scan(&user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case "users_email_key":
				return User{}, ErrDuplicateEmail
			case "users_username_key":
				return User{}, ErrDuplicateUsername
			}
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

const userColumns = `id, username, email, password_hash, birthday, bio, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Birthday, &user.Bio, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID))
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, strings.TrimSpace(email)))
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) ListBookmarks(ctx context.Context, userID string) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM user_bookmarks b
		JOIN notes n ON n.id = b.note_id
		JOIN users u ON u.id = n.user_id
		WHERE b.user_id=$1
		ORDER BY b.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return collectNotes(rows)
}

func (s *PostgresStore) AddBookmark(ctx context.Context, userID, noteID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_bookmarks (user_id, note_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, note_id) DO NOTHING
	`, userID, noteID)
	if err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveBookmark(ctx context.Context, userID, noteID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM user_bookmarks WHERE user_id=$1 AND note_id=$2`, userID, noteID)
	return affected(result, err, "remove bookmark")
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func affected(result sql.Result, err error, op string) (bool, error) {
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows: %w", op, err)
	}
	return n > 0, nil
}

func encodeJSON(value any, fallback string) (string, error) {
	if value == nil {
		return fallback, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	if string(raw) == "null" {
		return fallback, nil
	}
	return string(raw), nil
}

func decodeMeta(raw []byte) map[string]any {
	meta := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &meta)
	}
	return meta
}
