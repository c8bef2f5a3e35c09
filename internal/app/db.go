package app

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Store implements the rule, booking, user and calendar account stores on Postgres.
type Store struct {
	DB *pgxpool.Pool
}

func OpenPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// conflictOnUnique turns a unique-constraint violation into a *ConflictError and passes any other
// error through.
func conflictOnUnique(err error, message string) error {
	if isUniqueViolation(err) {
		return &ConflictError{Message: message}
	}
	return err
}

func (s *Store) GetRule(ctx context.Context, userID string, weekDay int) (*AvailabilityRule, error) {
	q := `SELECT id,user_id,week_day,time_start_in_minutes,time_end_in_minutes,created_at
	      FROM availability_rules WHERE user_id=$1 AND week_day=$2`
	var r AvailabilityRule
	err := s.DB.QueryRow(ctx, q, userID, weekDay).Scan(
		&r.ID, &r.UserID, &r.WeekDay, &r.StartMinute, &r.EndMinute, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListRules(ctx context.Context, userID string) ([]AvailabilityRule, error) {
	q := `SELECT id,user_id,week_day,time_start_in_minutes,time_end_in_minutes,created_at
	      FROM availability_rules WHERE user_id=$1 ORDER BY week_day`
	rows, err := s.DB.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AvailabilityRule
	for rows.Next() {
		var r AvailabilityRule
		if err := rows.Scan(&r.ID, &r.UserID, &r.WeekDay, &r.StartMinute, &r.EndMinute, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) InsertRule(ctx context.Context, r *AvailabilityRule) error {
	q := `INSERT INTO availability_rules (user_id, week_day, time_start_in_minutes, time_end_in_minutes)
	      VALUES ($1,$2,$3,$4)
	      ON CONFLICT (user_id, week_day) DO NOTHING
	      RETURNING id, created_at`
	err := s.DB.QueryRow(ctx, q, r.UserID, r.WeekDay, r.StartMinute, r.EndMinute).Scan(&r.ID, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// rule already present
		return nil
	}
	return err
}

func (s *Store) HasConflict(ctx context.Context, userID string, dateHour time.Time) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id=$1 AND date=$2)`,
		userID, dateHour).Scan(&exists)
	return exists, err
}

func (s *Store) ListBookingsBetween(ctx context.Context, userID string, from, to time.Time) ([]Booking, error) {
	q := `SELECT id,user_id,date,name,email,observations,COALESCE(external_event_id,''),created_at
	      FROM bookings
	      WHERE user_id=$1 AND date >= $2 AND date <= $3
	      ORDER BY date`
	rows, err := s.DB.Query(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.Date, &b.Name, &b.Email,
			&b.Observations, &b.ExternalEventID, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) InsertBooking(ctx context.Context, b *Booking) error {
	q := `INSERT INTO bookings (id, user_id, date, name, email, observations)
	      VALUES ($1,$2,$3,$4,$5,$6)
	      RETURNING created_at`
	err := s.DB.QueryRow(ctx, q, b.ID, b.UserID, b.Date, b.Name, b.Email, b.Observations).Scan(&b.CreatedAt)
	return conflictOnUnique(err, "there is another booking at the same time")
}

func (s *Store) SetExternalEventID(ctx context.Context, bookingID, eventID string) error {
	_, err := s.DB.Exec(ctx, `UPDATE bookings SET external_event_id=$1 WHERE id=$2`, eventID, bookingID)
	return err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, `WHERE username=$1`, username, username)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, `WHERE id=$1`, id, id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any, key string) (*User, error) {
	q := `SELECT id,username,name,bio,avatar_url,created_at FROM users ` + where
	var u User
	err := s.DB.QueryRow(ctx, q, arg).Scan(&u.ID, &u.Username, &u.Name, &u.Bio, &u.AvatarURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Resource: "user", Key: key}
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) InsertUser(ctx context.Context, u *User) error {
	q := `INSERT INTO users (id, username, name, bio, avatar_url)
	      VALUES ($1,$2,$3,$4,$5)
	      RETURNING created_at`
	err := s.DB.QueryRow(ctx, q, u.ID, u.Username, u.Name, u.Bio, u.AvatarURL).Scan(&u.CreatedAt)
	return conflictOnUnique(err, "username already taken")
}

func (s *Store) GetCalendarAccount(ctx context.Context, userID string) (*CalendarAccount, error) {
	q := `SELECT user_id,provider,provider_email,access_token,refresh_token,expires_at,scope,updated_at
	      FROM calendar_accounts WHERE user_id=$1`
	var acc CalendarAccount
	err := s.DB.QueryRow(ctx, q, userID).Scan(&acc.UserID, &acc.Provider, &acc.ProviderEmail,
		&acc.AccessToken, &acc.RefreshToken, &acc.ExpiresAt, &acc.Scope, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Resource: "calendar account", Key: userID}
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *Store) UpsertCalendarAccount(ctx context.Context, acc *CalendarAccount) error {
	q := `INSERT INTO calendar_accounts
	        (user_id, provider, provider_email, access_token, refresh_token, expires_at, scope, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,now())
	      ON CONFLICT (user_id) DO UPDATE SET
	        provider=EXCLUDED.provider,
	        provider_email=CASE WHEN EXCLUDED.provider_email <> '' THEN EXCLUDED.provider_email ELSE calendar_accounts.provider_email END,
	        access_token=EXCLUDED.access_token,
	        refresh_token=CASE WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token ELSE calendar_accounts.refresh_token END,
	        expires_at=EXCLUDED.expires_at,
	        scope=CASE WHEN EXCLUDED.scope <> '' THEN EXCLUDED.scope ELSE calendar_accounts.scope END,
	        updated_at=now()
	      RETURNING updated_at`
	return s.DB.QueryRow(ctx, q, acc.UserID, acc.Provider, acc.ProviderEmail, acc.AccessToken,
		acc.RefreshToken, acc.ExpiresAt, acc.Scope).Scan(&acc.UpdatedAt)
}
