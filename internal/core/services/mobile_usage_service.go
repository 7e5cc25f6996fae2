package services

import (
	"context"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

// MobileUsageService records daily device-wide usage samples into the
// FIFO-retained window table.
type MobileUsageService struct {
	repo     domain.MobileUsageRepository
	notifier ChangePublisher
}

func NewMobileUsageService(repo domain.MobileUsageRepository, notifier ChangePublisher) *MobileUsageService {
	return &MobileUsageService{
		repo:     repo,
		notifier: notifier,
	}
}

// Upsert replaces the sample for a date; the sampler re-submits a day's
// total as it grows.
func (s *MobileUsageService) Upsert(ctx context.Context, date string, totalUsage int64) (*domain.DailyMobileUsage, error) {
	usage, err := domain.NewDailyMobileUsage(date, totalUsage)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, usage); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Publish(domain.TableMobileUsage)
	}
	return usage, nil
}

func (s *MobileUsageService) GetByDate(ctx context.Context, date string) (*domain.DailyMobileUsage, error) {
	if err := domain.ValidateDateKey(date); err != nil {
		return nil, err
	}
	return s.repo.GetByDate(ctx, date)
}

func (s *MobileUsageService) ListRecent(ctx context.Context, limit int) ([]*domain.DailyMobileUsage, error) {
	if limit <= 0 || limit > domain.MobileUsageWindowDays {
		limit = domain.MobileUsageWindowDays
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *MobileUsageService) ListRange(ctx context.Context, startDate, endDate string) ([]*domain.DailyMobileUsage, error) {
	if err := domain.ValidateDateKey(startDate); err != nil {
		return nil, err
	}
	if err := domain.ValidateDateKey(endDate); err != nil {
		return nil, err
	}
	if startDate > endDate {
		return nil, domain.ErrInvalidPeriodKey
	}
	return s.repo.ListRange(ctx, startDate, endDate)
}
