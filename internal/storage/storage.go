package storage

import (
	"context"
	"errors"

	"github.com/catalog-api/auth-service/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound — учетная запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности username.
	ErrAlreadyExists = errors.New("already exists")
)

// NewAccount — параметры создания учетной записи.
// Password передается открытым текстом: хэширование пароля перед сохранением —
// обязанность реализации хранилища.
type NewAccount struct {
	Username string
	Password string
	Role     string
}

// CredentialStore задает контракт хранилища учетных данных.
//
// Реализация обязана обеспечивать last-write-wins для SaveRefreshTokenHash:
// при гонке двух логинов одной учетной записи сохраняется ровно один хэш.
type CredentialStore interface {
	// CreateAccount создает учетную запись, предварительно хэшируя пароль.
	CreateAccount(ctx context.Context, params NewAccount) (*models.Account, error)
	// AccountByUsername находит учетную запись по имени.
	AccountByUsername(ctx context.Context, username string) (*models.Account, error)
	// AccountByID находит учетную запись по ID.
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// SaveRefreshTokenHash целиком перезаписывает хэш refresh-токена учетной записи.
	SaveRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error
	// Close освобождает ресурсы хранилища.
	Close()
}
