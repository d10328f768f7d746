package models

import "time"

// TokenMeta сведения о токене, зеркалируемом в хранилище
type TokenMeta struct {
	UserID    string    `json:"user_id"`
	TokenID   string    `json:"token_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
