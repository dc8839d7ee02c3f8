// token реализует подпись и проверку компактных подписанных наборов клеймов
// (JWT, HS256). Пакет различает причины отказа проверки (подпись/срок/формат);
// схлопывание этих причин для внешнего API — ответственность вызывающего слоя.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/catalog-api/auth-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrSignatureInvalid — подпись токена не сходится с ожидаемым секретом
	// или использован неразрешенный алгоритм подписи.
	ErrSignatureInvalid = errors.New("token signature invalid")

	// ErrExpired — подпись корректна, но срок действия токена истёк.
	ErrExpired = errors.New("token expired")

	// ErrMalformed — токен не разбирается как JWT или клеймы не читаются.
	ErrMalformed = errors.New("token malformed")
)

// Codec задает контракт подписи/проверки токенов.
type Codec interface {
	// Sign сериализует клеймы с экспирацией now+ttl и подписывает секретом.
	Sign(claims models.Claims, secret []byte, ttl time.Duration) (string, error)
	// Verify проверяет подпись и срок действия, возвращает клеймы либо один из
	// ErrSignatureInvalid/ErrExpired/ErrMalformed.
	Verify(tokenStr string, secret []byte) (*models.Claims, error)
}

type signedClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWT — реализация Codec поверх golang-jwt (HS256).
type JWT struct {
	issuer string
	leeway time.Duration
}

// NewJWT создает кодек с указанным issuer.
func NewJWT(issuer string) *JWT {
	return &JWT{
		issuer: issuer,
		leeway: 5 * time.Second,
	}
}

// Sign выпускает подписанный токен с экспирацией now+ttl.
// Клейм jti (uuid) делает каждый выпущенный токен уникальной строкой даже при
// совпадении остальных клеймов в пределах одной секунды.
func (c *JWT) Sign(claims models.Claims, secret []byte, ttl time.Duration) (string, error) {
	const op = "token.codec.Sign"

	now := time.Now().UTC()

	sc := signedClaims{
		Username: claims.Username,
		Role:     claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.AccountID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sc).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify проверяет подпись и экспирацию токена секретом secret.
func (c *JWT) Verify(tokenStr string, secret []byte) (*models.Claims, error) {
	const op = "token.codec.Verify"

	parsed, err := jwt.ParseWithClaims(tokenStr, &signedClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrTokenSignatureInvalid
			}

			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(c.leeway),
		jwt.WithIssuer(c.issuer),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%s: %w", op, ErrExpired)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%s: %w", op, ErrSignatureInvalid)
		default:
			return nil, fmt.Errorf("%s: %w", op, ErrMalformed)
		}
	}

	sc, ok := parsed.Claims.(*signedClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	uid, err := uuid.Parse(sc.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	return &models.Claims{
		AccountID: uid,
		Username:  sc.Username,
		Role:      sc.Role,
	}, nil
}

var _ Codec = (*JWT)(nil)
