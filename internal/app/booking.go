package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"scheduling-service/internal/timeutil"
)

// CreateBooking books the hour containing in.Date with username. When the booking is stored but
// cannot be mirrored to the external calendar, the booking is returned together with an
// *UpstreamSyncWarning.
func (a *App) CreateBooking(ctx context.Context, username string, in BookingInput) (*Booking, error) {
	user, err := a.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	date, verr := ValidateBookingRequest(in)
	if verr != nil {
		return nil, verr
	}

	dateHour := timeutil.TruncateToHour(date.In(a.loc()))
	if !dateHour.After(timeutil.TruncateToHour(a.now())) {
		return nil, &PastDateError{Date: dateHour}
	}

	taken, err := a.Bookings.HasConflict(ctx, user.ID, dateHour)
	if err != nil {
		return nil, fmt.Errorf("check conflict: %w", err)
	}
	if taken {
		return nil, &ConflictError{Message: "there is another booking at the same time"}
	}

	rule, err := a.Rules.GetRule(ctx, user.ID, int(dateHour.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	if rule == nil {
		return nil, newValidationError("date", "the selected time is outside the user's availability")
	}
	if startHour, endHour := ruleHours(rule); dateHour.Hour() < startHour || dateHour.Hour() >= endHour {
		return nil, newValidationError("date", "the selected time is outside the user's availability")
	}

	b := &Booking{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Date:         dateHour,
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Observations: in.Observations,
	}
	if err := a.Bookings.InsertBooking(ctx, b); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	a.logger().Info("booking created", "booking_id", b.ID, "user_id", user.ID, "date", b.Date)

	if err := a.mirrorBooking(ctx, user, b); err != nil {
		return b, err
	}
	return b, nil
}

func (a *App) mirrorBooking(ctx context.Context, user *User, b *Booking) error {
	if a.Mirror == nil {
		return &UpstreamSyncWarning{BookingID: b.ID, Err: errors.New("calendar mirroring is not configured")}
	}

	eventID, err := a.Mirror.CreateRemoteEvent(ctx, user, b)
	if err != nil {
		a.logger().Warn("calendar event creation failed", "booking_id", b.ID, "user_id", user.ID, "error", err)
		return &UpstreamSyncWarning{BookingID: b.ID, Err: err}
	}

	b.ExternalEventID = eventID
	if err := a.Bookings.SetExternalEventID(ctx, b.ID, eventID); err != nil {
		a.logger().Warn("storing calendar event id failed", "booking_id", b.ID, "event_id", eventID, "error", err)
		return &UpstreamSyncWarning{BookingID: b.ID, Err: err}
	}
	return nil
}
