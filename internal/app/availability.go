package app

import (
	"context"
	"fmt"
	"time"

	"scheduling-service/internal/timeutil"
)

// ResolveDay derives the bookable hours of date under rule. booked holds the start instants of
// existing bookings; only those falling on date count. An hour is available when it is not booked
// and its start lies after now truncated to the minute.
func ResolveDay(rule *AvailabilityRule, booked []time.Time, date, now time.Time) DayAvailability {
	out := emptyDay()
	if rule == nil || timeutil.EndOfDay(date).Before(now) {
		return out
	}

	loc := date.Location()
	bookedHours := make(map[int]struct{}, len(booked))
	for _, b := range booked {
		b = b.In(loc)
		if timeutil.SameDay(b, date) {
			bookedHours[b.Hour()] = struct{}{}
		}
	}

	cutoff := now.Truncate(time.Minute)
	startHour, endHour := ruleHours(rule)
	for h := startHour; h < endHour; h++ {
		out.PossibleHours = append(out.PossibleHours, h)
		if _, ok := bookedHours[h]; ok {
			continue
		}
		if !timeutil.AtHour(date, h).After(cutoff) {
			continue
		}
		out.AvailableHours = append(out.AvailableHours, h)
	}
	return out
}

// ruleHours returns the [start, end) range of whole hours a rule can start a booking at.
func ruleHours(rule *AvailabilityRule) (int, int) {
	return rule.StartMinute / 60, rule.EndMinute / 60
}

// GetAvailability answers the public availability query for username on date.
func (a *App) GetAvailability(ctx context.Context, username string, date time.Time) (DayAvailability, error) {
	user, err := a.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return DayAvailability{}, err
	}
	return a.availabilityFor(ctx, user.ID, date)
}

func (a *App) availabilityFor(ctx context.Context, userID string, date time.Time) (DayAvailability, error) {
	day := timeutil.StartOfDay(date.In(a.loc()))
	now := a.now()
	if timeutil.EndOfDay(day).Before(now) {
		return emptyDay(), nil
	}

	rule, err := a.Rules.GetRule(ctx, userID, int(day.Weekday()))
	if err != nil {
		return DayAvailability{}, fmt.Errorf("get rule: %w", err)
	}
	if rule == nil {
		return emptyDay(), nil
	}

	startHour, endHour := ruleHours(rule)
	bookings, err := a.Bookings.ListBookingsBetween(ctx, userID,
		timeutil.AtHour(day, startHour), timeutil.AtHour(day, endHour))
	if err != nil {
		return DayAvailability{}, fmt.Errorf("list bookings: %w", err)
	}
	return ResolveDay(rule, bookingDates(bookings), day, now), nil
}

func bookingDates(bookings []Booking) []time.Time {
	out := make([]time.Time, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Date)
	}
	return out
}
