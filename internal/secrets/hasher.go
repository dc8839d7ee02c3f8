// secrets предоставляет односторонее хэширование секретов (пароли и
// refresh-токены) с устойчивым к таймингу сравнением.
package secrets

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher задает контракт односторонего хэширования секретов.
//
// Hash при повторных вызовах с одинаковым входом возвращает разные дайджесты
// (соль на каждый вызов); Verify истинен только для дайджеста, полученного
// из того же plaintext.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher — реализация Hasher поверх bcrypt.
//
// bcrypt обрабатывает не более 72 байт входа, а refresh-токены (JWT) заметно
// длиннее, поэтому вход длиннее 72 байт предварительно сжимается SHA-256 +
// base64 одинаково в Hash и Verify.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher создает хэшер с указанной стоимостью bcrypt.
// При cost вне допустимого диапазона используется bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &BcryptHasher{cost: cost}
}

// Hash возвращает соленый bcrypt-дайджест plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	const op = "secrets.hasher.Hash"

	bytes, err := bcrypt.GenerateFromPassword(compress(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// Verify сравнивает plaintext с дайджестом. Сравнение внутри bcrypt
// выполняется за константное время.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), compress(plaintext)) == nil
}

// compress сжимает вход длиннее bcrypt-лимита в 72 байта.
func compress(plaintext string) []byte {
	if len(plaintext) <= 72 {
		return []byte(plaintext)
	}

	sum := sha256.Sum256([]byte(plaintext))

	return []byte(base64.RawURLEncoding.EncodeToString(sum[:]))
}

var _ Hasher = (*BcryptHasher)(nil)
