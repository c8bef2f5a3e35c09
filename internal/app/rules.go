package app

import (
	"context"
	"fmt"

	"scheduling-service/internal/timeutil"
)

const minRuleSpanMinutes = 60

// IntervalInput is one row of the weekly availability form; the form always carries all 7 days.
type IntervalInput struct {
	WeekDay   int    `json:"weekDay"`
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// WeeklyRules is the stored availability after a weekly form was applied. Rules already stored for a
// week day are never replaced; a submitted window that differs from the stored one is listed in
// IgnoredWeekDays.
type WeeklyRules struct {
	Rules           []AvailabilityRule `json:"rules"`
	Created         int                `json:"created"`
	IgnoredWeekDays []int              `json:"ignoredWeekDays"`
}

// SetWeeklyRules validates the raw weekly form, keeps the enabled days and stores one rule per day.
func (a *App) SetWeeklyRules(ctx context.Context, userID string, intervals []IntervalInput) (*WeeklyRules, error) {
	if len(intervals) != 7 {
		return nil, newValidationError("intervals", "exactly 7 week days are required")
	}

	verr := &ValidationError{}
	var rules []AvailabilityRule
	for i, in := range intervals {
		if in.WeekDay < 0 || in.WeekDay > 6 {
			verr.Add(fmt.Sprintf("intervals.%d.weekDay", i), "week day must be between 0 and 6")
			continue
		}
		if !in.Enabled {
			continue
		}
		start, err := timeutil.TimeStringToMinutes(in.StartTime)
		if err != nil {
			verr.Add(fmt.Sprintf("intervals.%d.startTime", i), err.Error())
			continue
		}
		end, err := timeutil.TimeStringToMinutes(in.EndTime)
		if err != nil {
			verr.Add(fmt.Sprintf("intervals.%d.endTime", i), err.Error())
			continue
		}
		rules = append(rules, AvailabilityRule{WeekDay: in.WeekDay, StartMinute: start, EndMinute: end})
	}
	if verr.HasError() {
		return nil, verr
	}
	if len(rules) == 0 {
		return nil, newValidationError("intervals", "select at least one week day")
	}

	if err := a.AddRules(ctx, userID, rules); err != nil {
		return nil, err
	}

	stored, err := a.Rules.ListRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	byWeekDay := make(map[int]AvailabilityRule, len(stored))
	for _, r := range stored {
		byWeekDay[r.WeekDay] = r
	}

	out := &WeeklyRules{Rules: stored, IgnoredWeekDays: []int{}}
	if out.Rules == nil {
		out.Rules = []AvailabilityRule{}
	}
	for _, r := range rules {
		if r.ID != 0 {
			out.Created++
			continue
		}
		if cur, ok := byWeekDay[r.WeekDay]; ok && (cur.StartMinute != r.StartMinute || cur.EndMinute != r.EndMinute) {
			out.IgnoredWeekDays = append(out.IgnoredWeekDays, r.WeekDay)
		}
	}
	if len(out.IgnoredWeekDays) > 0 {
		a.logger().Info("weekly availability changes ignored", "user_id", userID, "week_days", out.IgnoredWeekDays)
	}
	return out, nil
}

// AddRules stores rules for userID. Inserts are independent: a failure part way leaves the
// earlier rules stored, and re-running the same batch is harmless. Rules that were inserted come
// back with a non-zero ID.
func (a *App) AddRules(ctx context.Context, userID string, rules []AvailabilityRule) error {
	if len(rules) == 0 {
		return newValidationError("intervals", "select at least one week day")
	}
	if verr := validateRules(rules); verr != nil {
		return verr
	}

	for i := range rules {
		rules[i].UserID = userID
		rules[i].ID = 0
		if err := a.Rules.InsertRule(ctx, &rules[i]); err != nil {
			return fmt.Errorf("insert rule for week day %d: %w", rules[i].WeekDay, err)
		}
	}
	a.logger().Info("weekly availability stored", "user_id", userID, "rules", len(rules))
	return nil
}

func validateRules(rules []AvailabilityRule) *ValidationError {
	verr := &ValidationError{}
	seen := make(map[int]bool, len(rules))
	for _, r := range rules {
		field := fmt.Sprintf("weekDay.%d", r.WeekDay)
		switch {
		case r.WeekDay < 0 || r.WeekDay > 6:
			verr.Add(field, "week day must be between 0 and 6")
		case seen[r.WeekDay]:
			verr.Add(field, "only one interval per week day is allowed")
		case r.StartMinute < 0 || r.StartMinute > 1439:
			verr.Add(field, "start time must be within the day")
		case r.EndMinute < 1 || r.EndMinute > 1440:
			verr.Add(field, "end time must be within the day")
		case r.EndMinute-r.StartMinute < minRuleSpanMinutes:
			verr.Add(field, fmt.Sprintf("the interval %s-%s must be at least 1 hour long",
				timeutil.MinutesToTimeString(r.StartMinute), timeutil.MinutesToTimeString(r.EndMinute)))
		}
		seen[r.WeekDay] = true
	}
	if !verr.HasError() {
		return nil
	}
	return verr
}
