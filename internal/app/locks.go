package app

import (
	"context"
	"fmt"
	"time"

	"scheduling-service/internal/timeutil"
)

// GetMonthLockSummary lists the week days without availability and the days of month that have
// no bookable hour left.
func (a *App) GetMonthLockSummary(ctx context.Context, username string, year int, month time.Month) (LockSummary, error) {
	user, err := a.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return LockSummary{}, err
	}
	return a.lockSummaryFor(ctx, user.ID, year, month)
}

func (a *App) lockSummaryFor(ctx context.Context, userID string, year int, month time.Month) (LockSummary, error) {
	rules, err := a.Rules.ListRules(ctx, userID)
	if err != nil {
		return LockSummary{}, fmt.Errorf("list rules: %w", err)
	}

	byWeekDay := make(map[int]*AvailabilityRule, len(rules))
	for i := range rules {
		if _, dup := byWeekDay[rules[i].WeekDay]; !dup {
			byWeekDay[rules[i].WeekDay] = &rules[i]
		}
	}

	summary := LockSummary{LockedWeekDays: []int{}, LockedDates: []int{}}
	for wd := 0; wd < 7; wd++ {
		if _, ok := byWeekDay[wd]; !ok {
			summary.LockedWeekDays = append(summary.LockedWeekDays, wd)
		}
	}
	if len(byWeekDay) == 0 {
		return summary, nil
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, a.loc())
	next := first.AddDate(0, 1, 0)
	bookings, err := a.Bookings.ListBookingsBetween(ctx, userID, first, next.Add(-time.Nanosecond))
	if err != nil {
		return LockSummary{}, fmt.Errorf("list bookings: %w", err)
	}
	booked := make(map[int][]time.Time)
	for _, b := range bookings {
		d := b.Date.In(a.loc())
		booked[d.Day()] = append(booked[d.Day()], d)
	}

	now := a.now()
	for day := first; day.Before(next); day = day.AddDate(0, 0, 1) {
		rule, ok := byWeekDay[int(day.Weekday())]
		if !ok || timeutil.EndOfDay(day).Before(now) {
			continue
		}
		if view := ResolveDay(rule, booked[day.Day()], day, now); len(view.AvailableHours) == 0 {
			summary.LockedDates = append(summary.LockedDates, day.Day())
		}
	}
	return summary, nil
}
