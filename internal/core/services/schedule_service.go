package services

import (
	"context"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

// ScheduleService is plain CRUD over recurring focus-window definitions.
// The external trigger mechanism reads them to decide when to open and
// close sessions; the engine only checks structural shape.
type ScheduleService struct {
	repo     domain.ScheduleRepository
	notifier ChangePublisher
}

func NewScheduleService(repo domain.ScheduleRepository, notifier ChangePublisher) *ScheduleService {
	return &ScheduleService{
		repo:     repo,
		notifier: notifier,
	}
}

type ScheduleInput struct {
	Name             string `json:"name"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	RepeatDays       []int  `json:"repeat_days"`
	Enabled          bool   `json:"enabled"`
	PreNotifyMinutes int    `json:"pre_notify_minutes"`
}

func (s *ScheduleService) Create(ctx context.Context, input ScheduleInput) (*domain.Schedule, error) {
	schedule, err := domain.NewSchedule(input.Name, input.StartTime, input.EndTime, input.RepeatDays, input.Enabled, input.PreNotifyMinutes)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, err
	}
	s.publish()
	return schedule, nil
}

func (s *ScheduleService) Update(ctx context.Context, id string, input ScheduleInput) (*domain.Schedule, error) {
	schedule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := schedule.Update(input.Name, input.StartTime, input.EndTime, input.RepeatDays, input.Enabled, input.PreNotifyMinutes); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, err
	}
	s.publish()
	return schedule, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish()
	return nil
}

func (s *ScheduleService) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ScheduleService) List(ctx context.Context) ([]*domain.Schedule, error) {
	return s.repo.List(ctx)
}

func (s *ScheduleService) ListEnabled(ctx context.Context) ([]*domain.Schedule, error) {
	return s.repo.ListEnabled(ctx)
}

func (s *ScheduleService) publish() {
	if s.notifier != nil {
		s.notifier.Publish(domain.TableSchedules)
	}
}
