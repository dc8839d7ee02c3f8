package models

import (
	"time"

	"github.com/google/uuid"
)

// Account — учетная запись в системе.
//
// PasswordHash и RefreshTokenHash — одностороние bcrypt-хэши; исходные значения
// никогда не сохраняются и не покидают сервис. RefreshTokenHash перезаписывается
// целиком при каждом успешном логине; пустая строка означает, что refresh-токен
// ещё не выпускался.
type Account struct {
	ID               uuid.UUID
	Username         string
	Role             string
	PasswordHash     string
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Summary возвращает представление учетной записи без хэшей —
// единственную форму, в которой аккаунт отдается наружу.
func (a *Account) Summary() *AccountSummary {
	return &AccountSummary{
		ID:        a.ID,
		Username:  a.Username,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountSummary — публичное представление учетной записи (без хэшей).
type AccountSummary struct {
	ID        uuid.UUID
	Username  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
