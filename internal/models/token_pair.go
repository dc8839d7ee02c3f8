package models

import "time"

// TokenPair — пара токенов, выдаваемая при логине.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, который клиент предъявляет для выпуска
//     нового access-токена; на сервере хранится только его хэш;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
//
// При обновлении access-токена поле RefreshToken заполняется только в режиме
// ротации (rotate_on_refresh), иначе остается пустым: исходный refresh-токен
// действует до следующего логина.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
