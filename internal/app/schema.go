package app

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	username    TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	bio         TEXT NOT NULL DEFAULT '',
	avatar_url  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS calendar_accounts (
	user_id        TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	provider       TEXT NOT NULL,
	provider_email TEXT NOT NULL DEFAULT '',
	access_token   TEXT NOT NULL,
	refresh_token  TEXT NOT NULL DEFAULT '',
	expires_at     TIMESTAMPTZ,
	scope          TEXT NOT NULL DEFAULT '',
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS availability_rules (
	id                    SERIAL PRIMARY KEY,
	user_id               TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	week_day              SMALLINT NOT NULL CHECK (week_day BETWEEN 0 AND 6),
	time_start_in_minutes INT NOT NULL CHECK (time_start_in_minutes BETWEEN 0 AND 1439),
	time_end_in_minutes   INT NOT NULL CHECK (time_end_in_minutes BETWEEN 1 AND 1440),
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (time_end_in_minutes > time_start_in_minutes),
	UNIQUE (user_id, week_day)
);

CREATE TABLE IF NOT EXISTS bookings (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date              TIMESTAMPTZ NOT NULL,
	name              TEXT NOT NULL,
	email             TEXT NOT NULL,
	observations      TEXT NOT NULL DEFAULT '',
	external_event_id TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, date)
);
`

// Migrate creates the tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, schema)
	return err
}
