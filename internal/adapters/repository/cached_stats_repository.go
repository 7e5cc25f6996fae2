package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

var _ domain.StatsRepository = (*CachedStatsRepository)(nil)

const statsCacheTTL = 30 * time.Minute

// CachedStatsRepository puts a Redis read-through in front of single-period
// stats lookups. Range and recent listings always hit the backing store.
type CachedStatsRepository struct {
	next  domain.StatsRepository
	cache *redis.Client
}

func NewCachedStatsRepository(next domain.StatsRepository, cache *redis.Client) *CachedStatsRepository {
	return &CachedStatsRepository{
		next:  next,
		cache: cache,
	}
}

func statsCacheKey(period, key string) string {
	return fmt.Sprintf("stats:%s:%s", period, key)
}

func (r *CachedStatsRepository) invalidate(ctx context.Context, period, key string) {
	if err := r.cache.Del(ctx, statsCacheKey(period, key)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate %s stats %s: %v", period, key, err)
	}
}

// readThrough fills dest from the cache when possible, otherwise loads via
// the callback and stores the result. Cache failures degrade to a plain
// repository read.
func readThrough[T any](ctx context.Context, r *CachedStatsRepository, period, key string, load func() (*T, error)) (*T, error) {
	cacheKey := statsCacheKey(period, key)

	val, err := r.cache.Get(ctx, cacheKey).Result()
	if err == nil {
		var cached T
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return &cached, nil
		}

		log.Printf("[CACHE] Corrupted data at %s, cleaning up key", cacheKey)
		r.cache.Del(ctx, cacheKey)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	value, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(value); err == nil {
		if setErr := r.cache.Set(ctx, cacheKey, data, statsCacheTTL).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return value, nil
}

func (r *CachedStatsRepository) UpsertDaily(ctx context.Context, stats *domain.DailyStats) error {
	if err := r.next.UpsertDaily(ctx, stats); err != nil {
		return err
	}
	r.invalidate(ctx, "daily", stats.Date)
	return nil
}

func (r *CachedStatsRepository) GetDaily(ctx context.Context, date string) (*domain.DailyStats, error) {
	return readThrough(ctx, r, "daily", date, func() (*domain.DailyStats, error) {
		return r.next.GetDaily(ctx, date)
	})
}

func (r *CachedStatsRepository) ListDailyRange(ctx context.Context, startDate, endDate string) ([]*domain.DailyStats, error) {
	return r.next.ListDailyRange(ctx, startDate, endDate)
}

func (r *CachedStatsRepository) UpsertWeekly(ctx context.Context, stats *domain.WeeklyStats) error {
	if err := r.next.UpsertWeekly(ctx, stats); err != nil {
		return err
	}
	r.invalidate(ctx, "weekly", stats.WeekKey)
	return nil
}

func (r *CachedStatsRepository) GetWeekly(ctx context.Context, weekKey string) (*domain.WeeklyStats, error) {
	return readThrough(ctx, r, "weekly", weekKey, func() (*domain.WeeklyStats, error) {
		return r.next.GetWeekly(ctx, weekKey)
	})
}

func (r *CachedStatsRepository) ListRecentWeekly(ctx context.Context, limit int) ([]*domain.WeeklyStats, error) {
	return r.next.ListRecentWeekly(ctx, limit)
}

func (r *CachedStatsRepository) UpsertMonthly(ctx context.Context, stats *domain.MonthlyStats) error {
	if err := r.next.UpsertMonthly(ctx, stats); err != nil {
		return err
	}
	r.invalidate(ctx, "monthly", stats.MonthKey)
	return nil
}

func (r *CachedStatsRepository) GetMonthly(ctx context.Context, monthKey string) (*domain.MonthlyStats, error) {
	return readThrough(ctx, r, "monthly", monthKey, func() (*domain.MonthlyStats, error) {
		return r.next.GetMonthly(ctx, monthKey)
	})
}

func (r *CachedStatsRepository) ListRecentMonthly(ctx context.Context, limit int) ([]*domain.MonthlyStats, error) {
	return r.next.ListRecentMonthly(ctx, limit)
}
