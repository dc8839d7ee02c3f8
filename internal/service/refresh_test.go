package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/catalog-api/auth-service/internal/models"
	"github.com/catalog-api/auth-service/internal/storage"
	"github.com/catalog-api/auth-service/internal/token"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// signRefresh подписывает refresh-токен так же, как это делает Login.
func signRefresh(t *testing.T, claims models.Claims, ttl time.Duration) string {
	t.Helper()
	cfg := testCfg()
	signed, err := token.NewJWT(cfg.Issuer).Sign(claims, cfg.RefreshSigningSecret(), ttl)
	require.NoError(t, err)
	return signed
}

func refreshAccount(t *testing.T, id uuid.UUID, role, refreshToken string) *models.Account {
	t.Helper()
	return &models.Account{
		ID:               id,
		Username:         "alice",
		Role:             role,
		PasswordHash:     mustHash(t, "Abcdef1!"),
		RefreshTokenHash: mustHash(t, refreshToken),
	}
}

func TestRefreshAccessToken_OK_NoRotation(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t, testCfg())
	defer ctrl.Finish()

	accountID := uuid.New()
	refresh := signRefresh(t, models.Claims{AccountID: accountID, Username: "alice", Role: "user"}, time.Hour)
	account := refreshAccount(t, accountID, "user", refresh)

	// Две попытки подряд: без ротации исходный токен действует до следующего логина.
	st.EXPECT().AccountByID(gomock.Any(), accountID).Return(account, nil).Times(2)

	first, err := svc.RefreshAccessToken(context.Background(), accountID, refresh)
	require.NoError(t, err)
	require.NotEmpty(t, first.AccessToken)
	require.Empty(t, first.RefreshToken)

	second, err := svc.RefreshAccessToken(context.Background(), accountID, refresh)
	require.NoError(t, err)
	require.NotEmpty(t, second.AccessToken)
	require.NotEqual(t, first.AccessToken, second.AccessToken)
}

func TestRefreshAccessToken_AccountMissing(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t, testCfg())
	defer ctrl.Finish()

	accountID := uuid.New()

	// Проверка существования учетной записи идет первой: токен даже не разбирается.
	st.EXPECT().AccountByID(gomock.Any(), accountID).Return(nil, storage.ErrNotFound)

	_, err := svc.RefreshAccessToken(context.Background(), accountID, "whatever")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidAccount)
}

func TestRefreshAccessToken_NoStoredHash(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t, testCfg())
	defer ctrl.Finish()

	accountID := uuid.New()
	refresh := signRefresh(t, models.Claims{AccountID: accountID, Username: "alice", Role: "user"}, time.Hour)

	account := refreshAccount(t, accountID, "user", refresh)
	account.RefreshTokenHash = ""
	st.EXPECT().AccountByID(gomock.Any(), accountID).Return(account, nil)

	_, err := svc.RefreshAccessToken(context.Background(), accountID, refresh)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidAccount)
}

func TestRefreshAccessToken_StorageError_MapsToPersistence(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t, testCfg())
	defer ctrl.Finish()

	accountID := uuid.New()
	st.EXPECT().AccountByID(gomock.Any(), accountID).Return(nil, errors.New("db down"))

	_, err := svc.RefreshAccessToken(context.Background(), accountID, "whatever")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrPersistence)
}

func TestRefreshAccessToken_WrongSignature(t *testing.T) {
	t.Parallel()

	cfg := testCfg()
	svc, st, ctrl := newSvc(t, cfg)
	defer ctrl.Finish()

	accountID := uuid.New()
	claims := models.Claims{AccountID: accountID, Username: "alice", Role: "user"}

	// Токен подписан чужим секретом; хэш в хранилище совпадает с предъявленным,
	// так что единственная падающая проверка — подпись.
	forged, err := token.NewJWT(cfg.Issuer).Sign(claims, []byte("forged-secret"), time.Hour)
	require.NoError(t, err)

	st.EXPECT().AccountByID(gomock.Any(), accountID).
		Return(refreshAccount(t, accountID, "user", forged), nil)

	_, err = svc.RefreshAccessToken(context.Background(), accountID, forged)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshAccessToken_AccessTokenPresented_Rejected(t *testing.T) {
	t.Parallel()

	cfg := testCfg()
	svc, st, ctrl := newSvc(t, cfg)
	defer ctrl.Finish()

	accountID := uuid.New()
	claims := models.Claims{AccountID: accountID, Username: "alice", Role: "user"}

	// Access-токен подписан базовым секретом — в refresh-домене его подпись не сходится.
	access, err := token.NewJWT(cfg.Issuer).Sign(claims, cfg.AccessSigningSecret(), time.Hour)
	require.NoError(t, err)

	st.EXPECT().AccountByID(gomock.Any(), accountID).
		Return(refreshAccount(t, accountID, "user", access), nil)

	_, err = svc.RefreshAccessToken(context.Background(), accountID, access)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshAccessToken_Expired(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t, testCfg())
	defer ctrl.Finish()

	accountID := uuid.New()
	expired := signRefresh(t, models.Claims{AccountID: accountID, Username: "alice", Role: "user"}, -time.Minute)

	st.EXPECT().AccountByID(gomock.Any(), accountID).
		Return(refreshAccount(t, accountID, "user", expired), nil)

	_, err := svc.RefreshAccessToken(context.Background(), accountID, expired)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshAccessToken_SubjectMismatch_BeforeHashCompare(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t, testCfg())
	defer ctrl.Finish()

	ownerID := uuid.New()
	otherID := uuid.New()

	// Токен выписан на другую учетную запись, но хэш в хранилище совпадает с
	// предъявленным: отказ обязан случиться на проверке subject, до сравнения хэшей.
	foreign := signRefresh(t, models.Claims{AccountID: otherID, Username: "mallory", Role: "user"}, time.Hour)

	st.EXPECT().AccountByID(gomock.Any(), ownerID).
		Return(refreshAccount(t, ownerID, "user", foreign), nil)

	_, err := svc.RefreshAccessToken(context.Background(), ownerID, foreign)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshAccessToken_HashMismatch(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t, testCfg())
	defer ctrl.Finish()

	accountID := uuid.New()
	claims := models.Claims{AccountID: accountID, Username: "alice", Role: "user"}

	presented := signRefresh(t, claims, time.Hour)
	stored := signRefresh(t, claims, time.Hour)

	// Подпись и subject валидны, но хэш в хранилище — от другого токена
	// (например, после более позднего логина).
	st.EXPECT().AccountByID(gomock.Any(), accountID).
		Return(refreshAccount(t, accountID, "user", stored), nil)

	_, err := svc.RefreshAccessToken(context.Background(), accountID, presented)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshAccessToken_RoleChange_TakesEffectImmediately(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t, testCfg())
	defer ctrl.Finish()

	accountID := uuid.New()
	refresh := signRefresh(t, models.Claims{AccountID: accountID, Username: "alice", Role: "user"}, time.Hour)

	// Роль изменилась после выпуска refresh-токена: клеймы берутся из текущего
	// состояния учетной записи, не из токена.
	st.EXPECT().AccountByID(gomock.Any(), accountID).
		Return(refreshAccount(t, accountID, "admin", refresh), nil)

	pair, err := svc.RefreshAccessToken(context.Background(), accountID, refresh)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Role)
}

func TestRefreshAccessToken_RotateOnRefresh(t *testing.T) {
	t.Parallel()

	cfg := testCfg()
	cfg.RotateOnRefresh = true
	svc, st, ctrl := newSvc(t, cfg)
	defer ctrl.Finish()

	accountID := uuid.New()
	refresh := signRefresh(t, models.Claims{AccountID: accountID, Username: "alice", Role: "user"}, time.Hour)

	st.EXPECT().AccountByID(gomock.Any(), accountID).
		Return(refreshAccount(t, accountID, "user", refresh), nil)

	var persistedHash string
	st.EXPECT().SaveRefreshTokenHash(gomock.Any(), accountID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, hash string) error {
			persistedHash = hash
			return nil
		})

	pair, err := svc.RefreshAccessToken(context.Background(), accountID, refresh)
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, refresh, pair.RefreshToken)
	require.True(t, testHasher().Verify(pair.RefreshToken, persistedHash))
}

func TestRefreshAccessToken_RotatePersistFails(t *testing.T) {
	t.Parallel()

	cfg := testCfg()
	cfg.RotateOnRefresh = true
	svc, st, ctrl := newSvc(t, cfg)
	defer ctrl.Finish()

	accountID := uuid.New()
	refresh := signRefresh(t, models.Claims{AccountID: accountID, Username: "alice", Role: "user"}, time.Hour)

	st.EXPECT().AccountByID(gomock.Any(), accountID).
		Return(refreshAccount(t, accountID, "user", refresh), nil)
	st.EXPECT().SaveRefreshTokenHash(gomock.Any(), accountID, gomock.Any()).
		Return(errors.New("write failed"))

	_, err := svc.RefreshAccessToken(context.Background(), accountID, refresh)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrPersistence)
}
