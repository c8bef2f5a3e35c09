package app

import (
	"context"
	"log/slog"
	"time"
)

type RuleStore interface {
	// GetRule returns nil, nil when the user has no rule for weekDay.
	GetRule(ctx context.Context, userID string, weekDay int) (*AvailabilityRule, error)
	ListRules(ctx context.Context, userID string) ([]AvailabilityRule, error)
	// InsertRule is a no-op when a rule for (user, weekday) already exists.
	InsertRule(ctx context.Context, r *AvailabilityRule) error
}

type BookingLedger interface {
	HasConflict(ctx context.Context, userID string, dateHour time.Time) (bool, error)
	// ListBookingsBetween returns bookings with from <= date <= to, ordered by date.
	ListBookingsBetween(ctx context.Context, userID string, from, to time.Time) ([]Booking, error)
	// InsertBooking returns *ConflictError when (user, date) is already taken.
	InsertBooking(ctx context.Context, b *Booking) error
	SetExternalEventID(ctx context.Context, bookingID, eventID string) error
}

type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	InsertUser(ctx context.Context, u *User) error
}

type AccountStore interface {
	GetCalendarAccount(ctx context.Context, userID string) (*CalendarAccount, error)
	UpsertCalendarAccount(ctx context.Context, acc *CalendarAccount) error
}

// EventMirror replicates a committed booking into the user's external calendar.
type EventMirror interface {
	CreateRemoteEvent(ctx context.Context, user *User, b *Booking) (string, error)
}

type App struct {
	Rules    RuleStore
	Bookings BookingLedger
	Users    UserStore
	Accounts AccountStore
	Mirror   EventMirror
	Google   *GoogleCalendar
	Tokens   *TokenIssuer

	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
	// Ping reports database health for /healthz.
	Ping func(ctx context.Context) error
}

func (a *App) loc() *time.Location {
	if a.Location == nil {
		return time.UTC
	}
	return a.Location
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now().In(a.loc())
	}
	return a.Now().In(a.loc())
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
