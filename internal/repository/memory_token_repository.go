package repository

import (
	"context"
	"fmt"
	"time"

	"base_gallery/internal/domain/models"
	"base_gallery/internal/storage"

	"github.com/patrickmn/go-cache"
)

// MemoryTokenRepo хранит зеркало токенов в памяти процесса, когда redis не настроен
type MemoryTokenRepo struct {
	cache *cache.Cache
}

func NewMemoryTokenRepo(cleanup time.Duration) *MemoryTokenRepo {
	return &MemoryTokenRepo{cache: cache.New(cache.NoExpiration, cleanup)}
}

func (r *MemoryTokenRepo) SaveToken(_ context.Context, meta models.TokenMeta, exp time.Duration) error {
	r.cache.Set(tokenKey(meta.UserID), meta, exp)
	return nil
}

func (r *MemoryTokenRepo) GetToken(_ context.Context, userID string) (models.TokenMeta, error) {
	const op = "repository.MemoryTokenRepo.GetToken"

	val, ok := r.cache.Get(tokenKey(userID))
	if !ok {
		return models.TokenMeta{}, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
	}

	return val.(models.TokenMeta), nil
}

func (r *MemoryTokenRepo) DeleteToken(_ context.Context, userID string) error {
	r.cache.Delete(tokenKey(userID))
	return nil
}
