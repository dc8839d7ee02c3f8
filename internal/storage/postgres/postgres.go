// postgres — реализация storage.CredentialStore поверх PostgreSQL (pgx).
//
// Хэш refresh-токена хранится колонкой на строке учетной записи и
// перезаписывается одним UPDATE: при конкурентных логинах одной учетной
// записи СУБД обеспечивает last-write-wins.
package postgres

import (
	"context"
	"fmt"

	"github.com/catalog-api/auth-service/internal/secrets"
	"github.com/catalog-api/auth-service/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Storage struct {
	db     *pgxpool.Pool
	hasher secrets.Hasher
}

// New создает новое подключение к PostgreSQL.
// Хэшер нужен хранилищу для хэширования пароля на пути создания учетной записи.
func New(ctx context.Context, dbURL string, hasher secrets.Hasher) (*Storage, error) {
	const op = "storage.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db, hasher: hasher}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() {
	s.db.Close()
}

// Проверка на соответствие интерфейсу CredentialStore.
var _ storage.CredentialStore = (*Storage)(nil)
