package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUsageSessionMismatch = errors.New("usage row references a different session")
	ErrInvalidUsage         = errors.New("invalid app usage data")
)

// AppUsage records foreground time of one app during one session. Rows are
// exclusively owned by their session, written alongside it and immutable
// afterwards.
type AppUsage struct {
	ID            string    `json:"id" db:"id"`
	SessionID     string    `json:"session_id" db:"session_id"`
	PackageName   string    `json:"package_name" db:"package_name"`
	AppName       string    `json:"app_name" db:"app_name"`
	UsageTime     int64     `json:"usage_time" db:"usage_time"`
	IsWhitelisted bool      `json:"is_whitelisted" db:"is_whitelisted"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

func NewAppUsage(packageName, appName string, usageTime int64, whitelisted bool) *AppUsage {
	return &AppUsage{
		ID:            uuid.NewString(),
		PackageName:   packageName,
		AppName:       appName,
		UsageTime:     usageTime,
		IsWhitelisted: whitelisted,
		CreatedAt:     time.Now().UTC(),
	}
}

func (u *AppUsage) Validate() error {
	if strings.TrimSpace(u.PackageName) == "" {
		return ErrInvalidUsage
	}
	if u.UsageTime < 0 {
		return ErrInvalidUsage
	}
	return nil
}

// StampSession binds the row to its owning session. A row already carrying
// a different session id is rejected rather than silently rewritten.
func (u *AppUsage) StampSession(sessionID string) error {
	if u.SessionID != "" && u.SessionID != sessionID {
		return ErrUsageSessionMismatch
	}
	u.SessionID = sessionID
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
