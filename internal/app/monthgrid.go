package app

import (
	"context"
	"time"

	"scheduling-service/internal/timeutil"
)

// BuildMonthGrid lays out month as calendar weeks of 7 days starting on Sunday. Days borrowed from
// the neighbouring months are always disabled.
func BuildMonthGrid(year int, month time.Month, locked LockSummary, now time.Time, loc *time.Location) []CalendarWeek {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	lockedWeekDays := toSet(locked.LockedWeekDays)
	lockedDates := toSet(locked.LockedDates)

	days := make([]CalendarDay, 0, 42)
	for i := int(first.Weekday()); i > 0; i-- {
		days = append(days, CalendarDay{Date: first.AddDate(0, 0, -i), Disabled: true})
	}
	for d := 1; d <= last.Day(); d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, loc)
		_, weekDayLocked := lockedWeekDays[int(date.Weekday())]
		_, dateLocked := lockedDates[d]
		days = append(days, CalendarDay{
			Date:     date,
			Disabled: timeutil.EndOfDay(date).Before(now) || weekDayLocked || dateLocked,
		})
	}
	for i := 1; i <= 6-int(last.Weekday()); i++ {
		days = append(days, CalendarDay{Date: last.AddDate(0, 0, i), Disabled: true})
	}

	weeks := make([]CalendarWeek, 0, len(days)/7)
	for i := 0; i < len(days); i += 7 {
		weeks = append(weeks, CalendarWeek{Week: len(weeks) + 1, Days: days[i : i+7]})
	}
	return weeks
}

// GetMonthCalendar returns the booking page calendar of username for the given month.
func (a *App) GetMonthCalendar(ctx context.Context, username string, year int, month time.Month) ([]CalendarWeek, error) {
	summary, err := a.GetMonthLockSummary(ctx, username, year, month)
	if err != nil {
		return nil, err
	}
	return BuildMonthGrid(year, month, summary, a.now(), a.loc()), nil
}

func toSet(values []int) map[int]struct{} {
	set := make(map[int]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
