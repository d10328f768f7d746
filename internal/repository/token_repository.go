package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"base_gallery/internal/domain/models"
	"base_gallery/internal/storage"
	redisapp "base_gallery/internal/storage/redis"

	"github.com/redis/go-redis/v9"
)

type RedisTokenRepo struct {
	Client *redisapp.Client
}

func NewRedisTokenRepo(client *redisapp.Client) *RedisTokenRepo {
	return &RedisTokenRepo{Client: client}
}

func (r *RedisTokenRepo) SaveToken(ctx context.Context, meta models.TokenMeta, exp time.Duration) error {
	const op = "repository.RedisTokenRepo.SaveToken"

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.Client.Set(ctx, tokenKey(meta.UserID), string(data), exp).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisTokenRepo) GetToken(ctx context.Context, userID string) (models.TokenMeta, error) {
	const op = "repository.RedisTokenRepo.GetToken"

	val, err := r.Client.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.TokenMeta{}, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
	}
	if err != nil {
		return models.TokenMeta{}, fmt.Errorf("%s: %w", op, err)
	}

	var meta models.TokenMeta
	if err := json.Unmarshal([]byte(val), &meta); err != nil {
		return models.TokenMeta{}, fmt.Errorf("%s: %w", op, err)
	}

	return meta, nil
}

func (r *RedisTokenRepo) DeleteToken(ctx context.Context, userID string) error {
	const op = "repository.RedisTokenRepo.DeleteToken"

	if err := r.Client.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func tokenKey(userID string) string {
	return "identity:" + userID
}
