package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/catalog-api/auth-service/internal/models"
	"github.com/catalog-api/auth-service/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// CreateAccount создает новую учетную запись, хэшируя пароль перед записью.
func (s *Storage) CreateAccount(ctx context.Context, params storage.NewAccount) (*models.Account, error) {
	const op = "storage.postgres.CreateAccount"

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           uuid.New(),
		Username:     params.Username,
		Role:         params.Role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO accounts(id, username, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.db.Exec(ctx, query,
		account.ID,
		account.Username,
		account.PasswordHash,
		account.Role,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// AccountByUsername находит учетную запись по имени.
func (s *Storage) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	const op = "storage.postgres.AccountByUsername"

	query := `
		SELECT id, username, password_hash, role, COALESCE(refresh_token_hash, ''), created_at, updated_at
		FROM accounts
		WHERE username = $1
	`

	account, err := s.scanAccount(s.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// AccountByID находит учетную запись по ID.
func (s *Storage) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := `
		SELECT id, username, password_hash, role, COALESCE(refresh_token_hash, ''), created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	account, err := s.scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// SaveRefreshTokenHash целиком перезаписывает хэш refresh-токена учетной записи.
func (s *Storage) SaveRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error {
	const op = "storage.postgres.SaveRefreshTokenHash"

	query := `
		UPDATE accounts
		SET refresh_token_hash = $2, updated_at = $3
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func (s *Storage) scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.Role,
		&account.RefreshTokenHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &account, nil
}
