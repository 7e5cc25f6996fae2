package services

import (
	"context"
	"time"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
	"github.com/grepguru/zenlock-engine/internal/core/workers"
)

// ChangePublisher receives table names after a write commits. The live
// query registry implements it; services never know who is subscribed.
type ChangePublisher interface {
	Publish(tables ...domain.Table)
}

const (
	DefaultRecentLimit = 10
	MaxListLimit       = 100
)

// SessionService is the write-in and read-out surface over the raw event
// log: sessions and their app usage rows.
type SessionService struct {
	repo     domain.SessionRepository
	worker   *workers.RefreshWorker
	notifier ChangePublisher
}

func NewSessionService(repo domain.SessionRepository, worker *workers.RefreshWorker, notifier ChangePublisher) *SessionService {
	return &SessionService{
		repo:     repo,
		worker:   worker,
		notifier: notifier,
	}
}

type UsageInput struct {
	SessionID     string `json:"session_id,omitempty"`
	PackageName   string `json:"package_name"`
	AppName       string `json:"app_name"`
	UsageTime     int64  `json:"usage_time"`
	IsWhitelisted bool   `json:"is_whitelisted"`
}

type InsertSessionInput struct {
	StartTime      time.Time    `json:"start_time"`
	EndTime        time.Time    `json:"end_time"`
	TargetDuration int64        `json:"target_duration"`
	ActualDuration int64        `json:"actual_duration"`
	Completed      bool         `json:"completed"`
	Source         string       `json:"source"`
	FocusScore     float64      `json:"focus_score"`
	Usage          []UsageInput `json:"usage"`
}

type StartSessionInput struct {
	StartTime      time.Time `json:"start_time"`
	TargetDuration int64     `json:"target_duration"`
	Source         string    `json:"source"`
}

type FinalizeSessionInput struct {
	ID             string       `json:"-"`
	EndTime        time.Time    `json:"end_time"`
	ActualDuration int64        `json:"actual_duration"`
	Completed      bool         `json:"completed"`
	FocusScore     float64      `json:"focus_score"`
	Usage          []UsageInput `json:"usage"`
}

func buildUsageRows(sessionID string, inputs []UsageInput) ([]*domain.AppUsage, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	rows := make([]*domain.AppUsage, 0, len(inputs))
	for _, in := range inputs {
		row := domain.NewAppUsage(in.PackageName, in.AppName, in.UsageTime, in.IsWhitelisted)
		row.SessionID = in.SessionID
		if err := row.Validate(); err != nil {
			return nil, err
		}
		if err := row.StampSession(sessionID); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// InsertSessionWithUsage records an already-finished session together with
// its usage batch in one atomic write. The engine assigns the session id
// and stamps it onto every usage row; a row naming a different session is
// rejected before anything touches storage.
func (s *SessionService) InsertSessionWithUsage(ctx context.Context, input InsertSessionInput) (*domain.Session, error) {
	session, err := domain.NewSession(input.StartTime, input.TargetDuration, input.Source)
	if err != nil {
		return nil, err
	}
	if err := session.Finalize(input.EndTime, input.ActualDuration, input.Completed, input.FocusScore); err != nil {
		return nil, err
	}

	usage, err := buildUsageRows(session.ID, input.Usage)
	if err != nil {
		return nil, err
	}

	if err := s.repo.InsertWithUsage(ctx, session, usage); err != nil {
		return nil, err
	}

	s.afterSessionWrite(session)
	return session, nil
}

// StartSession opens a session at focus-window start. Open sessions are
// excluded from rollups until finalized.
func (s *SessionService) StartSession(ctx context.Context, input StartSessionInput) (*domain.Session, error) {
	session, err := domain.NewSession(input.StartTime, input.TargetDuration, input.Source)
	if err != nil {
		return nil, err
	}

	if err := s.repo.InsertWithUsage(ctx, session, nil); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Publish(domain.TableSessions)
	}
	return session, nil
}

// FinalizeSession applies the single allowed session mutation and persists
// the sampler's usage batch alongside it.
func (s *SessionService) FinalizeSession(ctx context.Context, input FinalizeSessionInput) (*domain.Session, error) {
	session, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if err := session.Finalize(input.EndTime, input.ActualDuration, input.Completed, input.FocusScore); err != nil {
		return nil, err
	}

	usage, err := buildUsageRows(session.ID, input.Usage)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Finalize(ctx, session, usage); err != nil {
		return nil, err
	}

	s.afterSessionWrite(session)
	return session, nil
}

func (s *SessionService) afterSessionWrite(session *domain.Session) {
	if s.worker != nil {
		s.worker.Enqueue(workers.RefreshJob{
			DateKey:  session.DateKey(),
			WeekKey:  session.WeekKey(),
			MonthKey: session.MonthKey(),
		})
	}
	if s.notifier != nil {
		s.notifier.Publish(domain.TableSessions, domain.TableAppUsage)
	}
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *SessionService) RecentSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *SessionService) SessionsForDate(ctx context.Context, dateKey string) ([]*domain.Session, error) {
	if err := domain.ValidateDateKey(dateKey); err != nil {
		return nil, err
	}
	return s.repo.ListForDate(ctx, dateKey)
}

func (s *SessionService) SessionsForRange(ctx context.Context, from, to time.Time) ([]*domain.Session, error) {
	if !from.Before(to) {
		return nil, domain.ErrInvalidSessionWindow
	}
	return s.repo.ListForRange(ctx, from, to)
}

func (s *SessionService) SessionUsage(ctx context.Context, sessionID string) ([]*domain.AppUsage, error) {
	if _, err := s.repo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListUsage(ctx, sessionID)
}

// Overview is an all-time snapshot of the event log.
type Overview struct {
	TotalSessions   int        `json:"total_sessions"`
	TotalFocusTime  int64      `json:"total_focus_time"`
	ActiveDays      int        `json:"active_days"`
	LastSessionTime *time.Time `json:"last_session_time,omitempty"`
}

func (s *SessionService) GetOverview(ctx context.Context) (*Overview, error) {
	count, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.TotalFocusTime(ctx)
	if err != nil {
		return nil, err
	}
	days, err := s.repo.ActiveDayCount(ctx)
	if err != nil {
		return nil, err
	}
	last, err := s.repo.LastSessionTime(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{
		TotalSessions:   count,
		TotalFocusTime:  total,
		ActiveDays:      days,
		LastSessionTime: last,
	}, nil
}

func (s *SessionService) FocusTimeForRange(ctx context.Context, from, to time.Time) (int64, error) {
	if !from.Before(to) {
		return 0, domain.ErrInvalidSessionWindow
	}
	return s.repo.FocusTimeForRange(ctx, from, to)
}
