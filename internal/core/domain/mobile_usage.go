package domain

import (
	"errors"
	"time"
)

var (
	ErrMobileUsageNotFound = errors.New("mobile usage sample not found")
)

// MobileUsageWindowDays bounds the daily_mobile_usage table: retention
// keeps exactly the most recent distinct dates up to this count.
const MobileUsageWindowDays = 30

// DailyMobileUsage is a raw device-wide usage sample for one date. Unlike
// the rollup tables it is primary data, upserted by the sampler and
// retained under the fixed-size FIFO window.
type DailyMobileUsage struct {
	Date       string    `json:"date" db:"date"`
	TotalUsage int64     `json:"total_usage" db:"total_usage"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

func NewDailyMobileUsage(date string, totalUsage int64) (*DailyMobileUsage, error) {
	if err := ValidateDateKey(date); err != nil {
		return nil, err
	}
	if totalUsage < 0 {
		totalUsage = 0
	}
	now := time.Now().UTC()
	return &DailyMobileUsage{
		Date:       date,
		TotalUsage: totalUsage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
