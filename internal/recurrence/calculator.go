// Package recurrence implements the date arithmetic for recurring expenses.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/spendwise/backend/internal/types"
)

// Interval is the cadence of a recurring expense.
type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

var ErrIntervalInvalid = errors.New("the recurring interval must be one of daily, weekly, monthly")

// ParseInterval parses a string into an Interval.
func ParseInterval(s string) (Interval, error) {
	interval := Interval(s)
	if !interval.Valid() {
		return "", fmt.Errorf("%w, got %q", ErrIntervalInvalid, s)
	}

	return interval, nil
}

// Valid reports whether the interval is a known cadence.
func (i Interval) Valid() bool {
	return i == IntervalDaily || i == IntervalWeekly || i == IntervalMonthly
}

func (i Interval) String() string {
	return string(i)
}

// Next computes the occurrence following the anchor date.
//
// Daily advances by one day, weekly by seven. Monthly preserves the
// anchor's day of month and clamps it to the last valid day of the
// target month, so an anchor of January 31 yields February 28 (or 29
// in leap years) instead of rolling over into March.
//
// The target day is derived from the anchor that is passed in. After
// a clamp the series therefore re-anchors on the clamped day: January
// 31 advances to February 29 and from there to March 29, not back to
// March 31. This matches the historical behavior of the schedules
// already stored in production data.
func Next(anchor types.Date, interval Interval) (types.Date, error) {
	switch interval {
	case IntervalDaily:
		return anchor.AddDays(1), nil
	case IntervalWeekly:
		return anchor.AddDays(7), nil
	case IntervalMonthly:
		year, month, day := anchor.Date()

		// Day 0 of the month after next is the last day of the next month
		lastDay := time.Date(year, month+2, 0, 0, 0, 0, 0, time.UTC).Day()
		if day > lastDay {
			day = lastDay
		}

		return types.NewDate(year, month+1, day), nil
	}

	return types.Date{}, fmt.Errorf("%w, got %q", ErrIntervalInvalid, interval)
}
