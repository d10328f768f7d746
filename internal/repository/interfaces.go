package repository

import (
	"context"
	"time"

	"base_gallery/internal/domain/models"
)

// TokenRepository зеркало последнего выданного пользователю токена.
// Используется только для отображения статуса сессии.
type TokenRepository interface {
	SaveToken(ctx context.Context, meta models.TokenMeta, exp time.Duration) error
	GetToken(ctx context.Context, userID string) (models.TokenMeta, error)
	DeleteToken(ctx context.Context, userID string) error
}
