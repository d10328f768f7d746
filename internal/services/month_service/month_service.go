package services

import (
	"context"
	"log/slog"
	"time"

	"base_gallery/internal/domain/models"
	"base_gallery/internal/lib/logger/sl"

	"github.com/patrickmn/go-cache"
)

const (
	AllTimeLabel = "All Time"

	bucketsKey = "months"
)

type BucketSource interface {
	ListMonthBuckets(ctx context.Context) ([]models.MonthBucket, error)
}

// MonthService загружает месяцы для фильтра. Ошибки не пробрасываются:
// фильтр деградирует до пустого списка.
type MonthService struct {
	log    *slog.Logger
	source BucketSource
	cache  *cache.Cache
}

func NewMonthService(log *slog.Logger, source BucketSource, ttl time.Duration) *MonthService {
	return &MonthService{
		log:    log,
		source: source,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// Refresh returns the month buckets, served from cache while fresh.
func (s *MonthService) Refresh(ctx context.Context) []models.MonthBucket {
	const op = "service.MonthService.Refresh"

	if cached, ok := s.cache.Get(bucketsKey); ok {
		return cloneBuckets(cached.([]models.MonthBucket))
	}

	buckets, err := s.source.ListMonthBuckets(ctx)
	if err != nil {
		s.log.Warn("failed to load month buckets",
			slog.String("op", op),
			sl.Err(err),
		)
		return []models.MonthBucket{}
	}

	buckets = cloneBuckets(buckets)
	s.cache.SetDefault(bucketsKey, buckets)

	return cloneBuckets(buckets)
}

func cloneBuckets(buckets []models.MonthBucket) []models.MonthBucket {
	out := make([]models.MonthBucket, len(buckets))
	copy(out, buckets)
	return out
}

// Label returns the display label of key, "All Time" for the empty key or
// a key not among the cached buckets.
func (s *MonthService) Label(key string) string {
	if key == "" {
		return AllTimeLabel
	}

	cached, ok := s.cache.Get(bucketsKey)
	if !ok {
		return AllTimeLabel
	}

	for _, b := range cached.([]models.MonthBucket) {
		if b.Key == key {
			return b.Label
		}
	}

	return AllTimeLabel
}

// Invalidate drops cached buckets, counts change after a mutation.
func (s *MonthService) Invalidate() {
	s.cache.Delete(bucketsKey)
}
