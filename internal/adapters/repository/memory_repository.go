package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

// In-memory implementations of the storage interfaces. They back the
// service tests and serve as the reference semantics for the Postgres
// adapters: every mutation happens under one lock, so a reader never
// observes a half-applied composite write.

type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	usage    map[string][]*domain.AppUsage
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[string]*domain.Session),
		usage:    make(map[string][]*domain.AppUsage),
	}
}

func copySession(s *domain.Session) *domain.Session {
	c := *s
	if s.EndTime != nil {
		end := *s.EndTime
		c.EndTime = &end
	}
	return &c
}

func copyUsage(u *domain.AppUsage) *domain.AppUsage {
	c := *u
	return &c
}

func (r *InMemorySessionRepository) InsertWithUsage(ctx context.Context, session *domain.Session, usage []*domain.AppUsage) error {
	for _, row := range usage {
		if row.SessionID != session.ID {
			return domain.ErrUsageSessionMismatch
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = copySession(session)
	for _, row := range usage {
		r.usage[session.ID] = append(r.usage[session.ID], copyUsage(row))
	}
	return nil
}

func (r *InMemorySessionRepository) Finalize(ctx context.Context, session *domain.Session, usage []*domain.AppUsage) error {
	for _, row := range usage {
		if row.SessionID != session.ID {
			return domain.ErrUsageSessionMismatch
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[session.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if stored.EndTime != nil {
		return domain.ErrSessionFinalized
	}

	r.sessions[session.ID] = copySession(session)
	for _, row := range usage {
		r.usage[session.ID] = append(r.usage[session.ID], copyUsage(row))
	}
	return nil
}

func (r *InMemorySessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return copySession(session), nil
}

func (r *InMemorySessionRepository) list(filter func(*domain.Session) bool) []*domain.Session {
	var out []*domain.Session
	for _, s := range r.sessions {
		if filter(s) {
			out = append(out, copySession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

func (r *InMemorySessionRepository) ListForDate(ctx context.Context, dateKey string) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.list(func(s *domain.Session) bool {
		return domain.DateKeyOf(s.StartTime) == dateKey
	}), nil
}

func (r *InMemorySessionRepository) ListForRange(ctx context.Context, from, to time.Time) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.list(func(s *domain.Session) bool {
		return !s.StartTime.Before(from) && s.StartTime.Before(to)
	}), nil
}

func (r *InMemorySessionRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.list(func(*domain.Session) bool { return true })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *InMemorySessionRepository) ListUsage(ctx context.Context, sessionID string) ([]*domain.AppUsage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]*domain.AppUsage, 0, len(r.usage[sessionID]))
	for _, u := range r.usage[sessionID] {
		rows = append(rows, copyUsage(u))
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].UsageTime > rows[j].UsageTime
	})
	return rows, nil
}

func (r *InMemorySessionRepository) ListUsageForSessions(ctx context.Context, sessionIDs []string) ([]*domain.AppUsage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []*domain.AppUsage
	for _, id := range sessionIDs {
		for _, u := range r.usage[id] {
			rows = append(rows, copyUsage(u))
		}
	}
	return rows, nil
}

func (r *InMemorySessionRepository) CountAll(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

func (r *InMemorySessionRepository) TotalFocusTime(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, s := range r.sessions {
		total += s.ActualDuration
	}
	return total, nil
}

func (r *InMemorySessionRepository) LastSessionTime(ctx context.Context) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last *time.Time
	for _, s := range r.sessions {
		if last == nil || s.StartTime.After(*last) {
			start := s.StartTime
			last = &start
		}
	}
	return last, nil
}

func (r *InMemorySessionRepository) ActiveDayCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	days := make(map[string]bool)
	for _, s := range r.sessions {
		days[domain.DateKeyOf(s.StartTime)] = true
	}
	return len(days), nil
}

func (r *InMemorySessionRepository) FocusTimeForRange(ctx context.Context, from, to time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, s := range r.sessions {
		if !s.StartTime.Before(from) && s.StartTime.Before(to) {
			total += s.ActualDuration
		}
	}
	return total, nil
}

type InMemoryStatsRepository struct {
	mu      sync.RWMutex
	daily   map[string]*domain.DailyStats
	weekly  map[string]*domain.WeeklyStats
	monthly map[string]*domain.MonthlyStats
}

func NewInMemoryStatsRepository() *InMemoryStatsRepository {
	return &InMemoryStatsRepository{
		daily:   make(map[string]*domain.DailyStats),
		weekly:  make(map[string]*domain.WeeklyStats),
		monthly: make(map[string]*domain.MonthlyStats),
	}
}

func (r *InMemoryStatsRepository) UpsertDaily(ctx context.Context, stats *domain.DailyStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *stats
	r.daily[stats.Date] = &c
	return nil
}

func (r *InMemoryStatsRepository) GetDaily(ctx context.Context, date string) (*domain.DailyStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats, ok := r.daily[date]
	if !ok {
		return nil, domain.ErrStatsNotFound
	}
	c := *stats
	return &c, nil
}

func (r *InMemoryStatsRepository) ListDailyRange(ctx context.Context, startDate, endDate string) ([]*domain.DailyStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.DailyStats
	for date, stats := range r.daily {
		if date >= startDate && date <= endDate {
			c := *stats
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (r *InMemoryStatsRepository) UpsertWeekly(ctx context.Context, stats *domain.WeeklyStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *stats
	r.weekly[stats.WeekKey] = &c
	return nil
}

func (r *InMemoryStatsRepository) GetWeekly(ctx context.Context, weekKey string) (*domain.WeeklyStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats, ok := r.weekly[weekKey]
	if !ok {
		return nil, domain.ErrStatsNotFound
	}
	c := *stats
	return &c, nil
}

func (r *InMemoryStatsRepository) ListRecentWeekly(ctx context.Context, limit int) ([]*domain.WeeklyStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.WeeklyStats
	for _, stats := range r.weekly {
		c := *stats
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekKey > out[j].WeekKey })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryStatsRepository) UpsertMonthly(ctx context.Context, stats *domain.MonthlyStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *stats
	r.monthly[stats.MonthKey] = &c
	return nil
}

func (r *InMemoryStatsRepository) GetMonthly(ctx context.Context, monthKey string) (*domain.MonthlyStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats, ok := r.monthly[monthKey]
	if !ok {
		return nil, domain.ErrStatsNotFound
	}
	c := *stats
	return &c, nil
}

func (r *InMemoryStatsRepository) ListRecentMonthly(ctx context.Context, limit int) ([]*domain.MonthlyStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.MonthlyStats
	for _, stats := range r.monthly {
		c := *stats
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthKey > out[j].MonthKey })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type InMemoryMobileUsageRepository struct {
	mu      sync.RWMutex
	samples map[string]*domain.DailyMobileUsage
}

func NewInMemoryMobileUsageRepository() *InMemoryMobileUsageRepository {
	return &InMemoryMobileUsageRepository{
		samples: make(map[string]*domain.DailyMobileUsage),
	}
}

func (r *InMemoryMobileUsageRepository) Upsert(ctx context.Context, usage *domain.DailyMobileUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *usage
	if existing, ok := r.samples[usage.Date]; ok {
		c.CreatedAt = existing.CreatedAt
	}
	r.samples[usage.Date] = &c
	return nil
}

func (r *InMemoryMobileUsageRepository) GetByDate(ctx context.Context, date string) (*domain.DailyMobileUsage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	usage, ok := r.samples[date]
	if !ok {
		return nil, domain.ErrMobileUsageNotFound
	}
	c := *usage
	return &c, nil
}

func (r *InMemoryMobileUsageRepository) sortedDesc() []*domain.DailyMobileUsage {
	var out []*domain.DailyMobileUsage
	for _, u := range r.samples {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (r *InMemoryMobileUsageRepository) ListRecent(ctx context.Context, limit int) ([]*domain.DailyMobileUsage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.sortedDesc()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryMobileUsageRepository) ListRange(ctx context.Context, startDate, endDate string) ([]*domain.DailyMobileUsage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.DailyMobileUsage
	for _, u := range r.sortedDesc() {
		if u.Date >= startDate && u.Date <= endDate {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *InMemoryMobileUsageRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.samples), nil
}

type InMemoryScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[string]*domain.Schedule
}

func NewInMemoryScheduleRepository() *InMemoryScheduleRepository {
	return &InMemoryScheduleRepository{
		schedules: make(map[string]*domain.Schedule),
	}
}

func copySchedule(s *domain.Schedule) *domain.Schedule {
	c := *s
	if s.RepeatDays != nil {
		c.RepeatDays = append([]int(nil), s.RepeatDays...)
	}
	return &c
}

func (r *InMemoryScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[schedule.ID] = copySchedule(schedule)
	return nil
}

func (r *InMemoryScheduleRepository) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schedule, ok := r.schedules[id]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	return copySchedule(schedule), nil
}

func (r *InMemoryScheduleRepository) list(filter func(*domain.Schedule) bool) []*domain.Schedule {
	var out []*domain.Schedule
	for _, s := range r.schedules {
		if filter(s) {
			out = append(out, copySchedule(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *InMemoryScheduleRepository) List(ctx context.Context) ([]*domain.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(func(*domain.Schedule) bool { return true }), nil
}

func (r *InMemoryScheduleRepository) ListEnabled(ctx context.Context) ([]*domain.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(func(s *domain.Schedule) bool { return s.Enabled }), nil
}

func (r *InMemoryScheduleRepository) Update(ctx context.Context, schedule *domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[schedule.ID]; !ok {
		return domain.ErrScheduleNotFound
	}
	r.schedules[schedule.ID] = copySchedule(schedule)
	return nil
}

func (r *InMemoryScheduleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[id]; !ok {
		return domain.ErrScheduleNotFound
	}
	delete(r.schedules, id)
	return nil
}
