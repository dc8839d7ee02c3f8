// service содержит бизнес-логику управления учетными данными и токенами:
// регистрацию, проверку пары логин/пароль, выпуск access/refresh-токенов
// и обмен refresh-токена на новый access-токен.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования из разных горутин при условии, что
//     переданное хранилище (storage.CredentialStore) потокобезопасно.
//     Корректность при конкурентных логинах одной учетной записи опирается
//     на last-write-wins хранилища для хэша refresh-токена.
//   - Service — чистый оркестратор над тремя инжектируемыми зависимостями
//     (хранилище, хэшер, кодек токенов); ретраев внутри нет, все ошибки
//     возвращаются вызывающему синхронно.
//   - Ошибки возвращаются и далее маппятся транспортом
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/catalog-api/auth-service/internal/config"
	"github.com/catalog-api/auth-service/internal/secrets"
	"github.com/catalog-api/auth-service/internal/storage"
	"github.com/catalog-api/auth-service/internal/token"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Причины намеренно не различаются, чтобы не раскрывать существование учетной
	// записи. Транспорт: codes.Unauthenticated (HTTP 401).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken — имя пользователя уже занято (уникальность обеспечивает
	// хранилище). Транспорт: codes.AlreadyExists (HTTP 409).
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidAccount — refresh запрошен для несуществующей учетной записи
	// или записи без сохраненного хэша refresh-токена.
	// Транспорт: codes.Unauthenticated (HTTP 401).
	ErrInvalidAccount = errors.New("invalid account")

	// ErrInvalidRefreshToken — любой отказ проверки refresh-токена: подпись,
	// срок, формат, несовпадение subject или хэша. Причины различаются только
	// в логах. Транспорт: codes.Unauthenticated (HTTP 401).
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrPersistence — хранилище недоступно или запись не удалась; политика
	// ретраев принадлежит вызывающему. Транспорт: codes.Internal (HTTP 500).
	ErrPersistence = errors.New("persistence failure")
)

// Service описывает бизнес-логику управления учетными данными и токенами.
type Service struct {
	store  storage.CredentialStore
	hasher secrets.Hasher
	tokens token.Codec
	cfg    config.AuthConfig
}

// New создаёт новый экземпляр Service.
func New(store storage.CredentialStore, hasher secrets.Hasher, tokens token.Codec, cfg config.AuthConfig) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		cfg:    cfg,
	}
}
