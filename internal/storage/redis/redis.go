// redis — реализация storage.CredentialStore поверх Redis для инсталляций
// без PostgreSQL.
//
// Схема хранения:
//   - <prefix>id:<uuid>     — Redis Hash с полями учетной записи
//     (username, role, pwd, rth, cat, uat);
//   - <prefix>name:<login>  — строка-индекс username -> uuid.
//
// Перезапись хэша refresh-токена — одиночный HSET: last-write-wins
// обеспечивает сам Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/catalog-api/auth-service/internal/models"
	"github.com/catalog-api/auth-service/internal/secrets"
	"github.com/catalog-api/auth-service/internal/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Storage struct {
	rdb    *redis.Client
	hasher secrets.Hasher
	prefix string
}

// New создает клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:acct:".
func New(ctx context.Context, redisURL, prefix string, hasher secrets.Hasher) (*Storage, error) {
	const op = "storage.redis.New"

	if prefix == "" {
		prefix = "auth:acct:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{rdb: rdb, hasher: hasher, prefix: prefix}, nil
}

func (s *Storage) idKey(id uuid.UUID) string      { return s.prefix + "id:" + id.String() }
func (s *Storage) nameKey(username string) string { return s.prefix + "name:" + username }

// CreateAccount создает новую учетную запись, хэшируя пароль перед записью.
// Уникальность username обеспечивает SETNX на ключе-индексе.
func (s *Storage) CreateAccount(ctx context.Context, params storage.NewAccount) (*models.Account, error) {
	const op = "storage.redis.CreateAccount"

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

	ok, err := s.rdb.SetNX(ctx, s.nameKey(params.Username), account.ID.String(), 0).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	kv := map[string]string{
		"username": account.Username,
		"role":     account.Role,
		"pwd":      account.PasswordHash,
		"rth":      "",
		"cat":      strconv.FormatInt(now.Unix(), 10),
		"uat":      strconv.FormatInt(now.Unix(), 10),
	}

	if err := s.rdb.HSet(ctx, s.idKey(account.ID), kv).Err(); err != nil {
		// Откат индекса, чтобы имя не осталось занято без записи.
		_ = s.rdb.Del(ctx, s.nameKey(params.Username)).Err()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// AccountByUsername находит учетную запись по имени через ключ-индекс.
func (s *Storage) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	const op = "storage.redis.AccountByUsername"

	idStr, err := s.rdb.Get(ctx, s.nameKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.AccountByID(ctx, id)
}

// AccountByID находит учетную запись по ID.
func (s *Storage) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage.redis.AccountByID"

	m, err := s.rdb.HGetAll(ctx, s.idKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(m) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	cat, err := strconv.ParseInt(m["cat"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	uat, err := strconv.ParseInt(m["uat"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Account{
		ID:               id,
		Username:         m["username"],
		Role:             m["role"],
		PasswordHash:     m["pwd"],
		RefreshTokenHash: m["rth"],
		CreatedAt:        time.Unix(cat, 0).UTC(),
		UpdatedAt:        time.Unix(uat, 0).UTC(),
	}, nil
}

// SaveRefreshTokenHash целиком перезаписывает хэш refresh-токена учетной записи.
func (s *Storage) SaveRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error {
	const op = "storage.redis.SaveRefreshTokenHash"

	exists, err := s.rdb.Exists(ctx, s.idKey(id)).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	kv := map[string]string{
		"rth": hash,
		"uat": strconv.FormatInt(time.Now().UTC().Unix(), 10),
	}

	if err := s.rdb.HSet(ctx, s.idKey(id), kv).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (s *Storage) Close() {
	_ = s.rdb.Close()
}

// Проверка на соответствие интерфейсу CredentialStore.
var _ storage.CredentialStore = (*Storage)(nil)
