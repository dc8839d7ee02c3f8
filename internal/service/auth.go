package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/catalog-api/auth-service/internal/models"
	"github.com/catalog-api/auth-service/internal/pkg/log"
	"github.com/catalog-api/auth-service/internal/pkg/redact"
	"github.com/catalog-api/auth-service/internal/storage"
	"github.com/catalog-api/auth-service/internal/token"
	"github.com/google/uuid"
)

// SignUp создает новую учетную запись и возвращает её публичное представление.
// Хэширование пароля выполняет хранилище на пути создания записи — пароль
// не хэшируется дважды. Конфликты уникальности username маппятся в ErrUsernameTaken.
func (s *Service) SignUp(ctx context.Context, username, password, role string) (*models.AccountSummary, error) {
	const op = "service.auth.SignUp"

	lg := log.From(ctx)

	account, err := s.store.CreateAccount(ctx, storage.NewAccount{
		Username: username,
		Password: password,
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}

		lg.Error("create_account_failed",
			slog.String("op", op),
			slog.String("username", redact.Username(username)),
			slog.String("err", err.Error()),
		)

		return nil, fmt.Errorf("%s: %w", op, ErrPersistence)
	}

	return account.Summary(), nil
}

// ValidateCredentials проверяет пару логин/пароль и возвращает публичное
// представление учетной записи. Отсутствие пользователя и неверный пароль
// неотличимы снаружи: оба случая — ErrInvalidCredentials. Состояние не мутирует.
func (s *Service) ValidateCredentials(ctx context.Context, username, password string) (*models.AccountSummary, error) {
	const op = "service.auth.ValidateCredentials"

	lg := log.From(ctx)

	account, err := s.store.AccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		lg.Error("account_lookup_failed",
			slog.String("op", op),
			slog.String("username", redact.Username(username)),
			slog.String("err", err.Error()),
		)

		return nil, fmt.Errorf("%s: %w", op, ErrPersistence)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return account.Summary(), nil
}

// Login аутентифицирует пользователя и выпускает пару токенов.
//
// Refresh-токен подписывается refresh-секретом (RefreshTokenTTL), access —
// базовым секретом (AccessTokenTTL); хэш refresh-токена перезаписывает
// предыдущий в хранилище. Пара возвращается только после успешной записи
// хэша: отказ записи — ErrPersistence без выдачи токенов.
func (s *Service) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	account, err := s.ValidateCredentials(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	claims := models.Claims{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
	}

	refreshToken, err := s.tokens.Sign(claims, s.cfg.RefreshSigningSecret(), s.cfg.RefreshTokenTTL)
	if err != nil {
		lg.Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	accessToken, err := s.tokens.Sign(claims, s.cfg.AccessSigningSecret(), s.cfg.AccessTokenTTL)
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(refreshToken)
	if err != nil {
		lg.Error("refresh_token_hash_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.SaveRefreshTokenHash(ctx, account.ID, hash); err != nil {
		lg.Error("refresh_hash_persist_failed",
			slog.String("op", op),
			slog.String("account_id", account.ID.String()),
			slog.String("err", err.Error()),
		)

		return nil, fmt.Errorf("%s: %w", op, ErrPersistence)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// RefreshAccessToken обменивает действующий refresh-токен на новый access-токен.
//
// Порядок проверок фиксирован: существование учетной записи и наличие хэша →
// подпись/срок/subject предъявленного токена → сравнение с сохраненным хэшем.
// Все отказы проверки токена схлопываются в ErrInvalidRefreshToken; причина
// остается только в логах. Новый access-токен строится из текущего состояния
// учетной записи, поэтому смена роли вступает в силу сразу.
//
// По умолчанию refresh-токен не перевыпускается и действует до следующего
// логина; в режиме rotate_on_refresh выпускается и сохраняется новый
// refresh-токен, и поле RefreshToken результата заполнено.
func (s *Service) RefreshAccessToken(ctx context.Context, accountID uuid.UUID, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.RefreshAccessToken"

	lg := log.From(ctx)

	account, err := s.store.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidAccount)
		}

		lg.Error("account_lookup_failed",
			slog.String("op", op),
			slog.String("account_id", accountID.String()),
			slog.String("err", err.Error()),
		)

		return nil, fmt.Errorf("%s: %w", op, ErrPersistence)
	}

	if account.RefreshTokenHash == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAccount)
	}

	claims, err := s.tokens.Verify(refreshToken, s.cfg.RefreshSigningSecret())
	if err != nil {
		lg.Warn("refresh_verify_failed",
			slog.String("op", op),
			slog.String("account_id", accountID.String()),
			slog.String("reason", refreshFailReason(err)),
		)

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	if claims.AccountID != accountID {
		lg.Warn("refresh_verify_failed",
			slog.String("op", op),
			slog.String("account_id", accountID.String()),
			slog.String("reason", "subject_mismatch"),
		)

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	if !s.hasher.Verify(refreshToken, account.RefreshTokenHash) {
		lg.Warn("refresh_verify_failed",
			slog.String("op", op),
			slog.String("account_id", accountID.String()),
			slog.String("reason", "hash_mismatch"),
		)

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	// Клеймы строятся из текущего состояния учетной записи, не из
	// предъявленного токена.
	fresh := models.Claims{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
	}

	now := time.Now().UTC()

	accessToken, err := s.tokens.Sign(fresh, s.cfg.AccessSigningSecret(), s.cfg.AccessTokenTTL)
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair := &models.TokenPair{
		AccessToken:     accessToken,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}

	if s.cfg.RotateOnRefresh {
		newRefresh, err := s.rotateRefreshToken(ctx, fresh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		pair.RefreshToken = newRefresh
	}

	return pair, nil
}

// ValidateAccessToken проверяет access-токен и возвращает его клеймы.
// Причина отказа различима через errors.Is с сентинелами пакета token
// (ErrExpired/ErrSignatureInvalid/ErrMalformed).
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (*models.Claims, error) {
	const op = "service.auth.ValidateAccessToken"

	claims, err := s.tokens.Verify(accessToken, s.cfg.AccessSigningSecret())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return claims, nil
}

// rotateRefreshToken выпускает новый refresh-токен и перезаписывает его хэш
// в хранилище. Используется только в режиме rotate_on_refresh.
func (s *Service) rotateRefreshToken(ctx context.Context, claims models.Claims) (string, error) {
	const op = "service.auth.rotateRefreshToken"

	lg := log.From(ctx)

	refreshToken, err := s.tokens.Sign(claims, s.cfg.RefreshSigningSecret(), s.cfg.RefreshTokenTTL)
	if err != nil {
		lg.Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(refreshToken)
	if err != nil {
		lg.Error("refresh_token_hash_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.SaveRefreshTokenHash(ctx, claims.AccountID, hash); err != nil {
		lg.Error("refresh_hash_persist_failed",
			slog.String("op", op),
			slog.String("account_id", claims.AccountID.String()),
			slog.String("err", err.Error()),
		)

		return "", fmt.Errorf("%s: %w", op, ErrPersistence)
	}

	return refreshToken, nil
}

// refreshFailReason переводит ошибку проверки токена в метку для логов.
func refreshFailReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrSignatureInvalid):
		return "signature_invalid"
	default:
		return "malformed"
	}
}
