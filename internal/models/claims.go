package models

import "github.com/google/uuid"

// Claims — полезная нагрузка подписанного токена.
//
// Формируется заново при каждом выпуске токена из текущего состояния
// учетной записи и нигде не сохраняется. На refresh сравнивается только
// subject (AccountID).
type Claims struct {
	AccountID uuid.UUID
	Username  string
	Role      string
}
