package app

import "time"

// AvailabilityRule is a recurring weekly window, in minutes since midnight, during which a user
// accepts bookings. EndMinute is exclusive.
type AvailabilityRule struct {
	ID          int       `json:"id"`
	UserID      string    `json:"user_id"`
	WeekDay     int       `json:"week_day"`
	StartMinute int       `json:"start_time_in_minutes"`
	EndMinute   int       `json:"end_time_in_minutes"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type Booking struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Date            time.Time `json:"date"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Observations    string    `json:"observations"`
	ExternalEventID string    `json:"external_event_id,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// CalendarAccount holds the Google OAuth credentials used to mirror bookings.
type CalendarAccount struct {
	UserID        string
	Provider      string
	ProviderEmail string
	AccessToken   string
	RefreshToken  string
	ExpiresAt     *time.Time
	Scope         string
	UpdatedAt     time.Time
}

type DayAvailability struct {
	PossibleHours  []int `json:"possibleHours"`
	AvailableHours []int `json:"availableHours"`
}

type LockSummary struct {
	LockedWeekDays []int `json:"lockedWeekDays"`
	LockedDates    []int `json:"lockedDates"`
}

type CalendarDay struct {
	Date     time.Time `json:"date"`
	Disabled bool      `json:"disabled"`
}

type CalendarWeek struct {
	Week int           `json:"week"`
	Days []CalendarDay `json:"days"`
}

func emptyDay() DayAvailability {
	return DayAvailability{PossibleHours: []int{}, AvailableHours: []int{}}
}
