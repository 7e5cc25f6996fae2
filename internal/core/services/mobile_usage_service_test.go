package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepguru/zenlock-engine/internal/adapters/repository"
	"github.com/grepguru/zenlock-engine/internal/core/domain"
	"github.com/grepguru/zenlock-engine/internal/core/services"
)

func TestMobileUsageService_UpsertReplacesSample(t *testing.T) {
	repo := repository.NewInMemoryMobileUsageRepository()
	notifier := &fakeNotifier{}
	svc := services.NewMobileUsageService(repo, notifier)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "2024-01-01", 3600)
	require.NoError(t, err)
	assert.True(t, notifier.published(domain.TableMobileUsage))

	// Same date replaces the total but keeps the original creation time.
	time.Sleep(10 * time.Millisecond)
	_, err = svc.Upsert(ctx, "2024-01-01", 7200)
	require.NoError(t, err)

	fetched, err := svc.GetByDate(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(7200), fetched.TotalUsage)
	assert.Equal(t, first.CreatedAt.Unix(), fetched.CreatedAt.Unix())
	assert.False(t, fetched.UpdatedAt.Before(fetched.CreatedAt))
}

func TestMobileUsageService_Validation(t *testing.T) {
	svc := services.NewMobileUsageService(repository.NewInMemoryMobileUsageRepository(), nil)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "01/01/2024", 100)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriodKey)

	// Negative totals clamp to zero instead of failing the sampler.
	sample, err := svc.Upsert(ctx, "2024-01-01", -5)
	require.NoError(t, err)
	assert.Zero(t, sample.TotalUsage)

	_, err = svc.GetByDate(ctx, "2024-01-02")
	assert.ErrorIs(t, err, domain.ErrMobileUsageNotFound)
}

func TestMobileUsageService_ListRecentClamped(t *testing.T) {
	repo := repository.NewInMemoryMobileUsageRepository()
	svc := services.NewMobileUsageService(repo, nil)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		_, err := svc.Upsert(ctx, domain.DateKeyOf(base.AddDate(0, 0, i)), int64(i))
		require.NoError(t, err)
	}

	// Requests beyond the retention window clamp to it.
	rows, err := svc.ListRecent(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, rows, domain.MobileUsageWindowDays)

	// Newest first.
	assert.Equal(t, "2024-02-09", rows[0].Date)

	ranged, err := svc.ListRange(ctx, "2024-01-05", "2024-01-07")
	require.NoError(t, err)
	assert.Len(t, ranged, 3)
}
