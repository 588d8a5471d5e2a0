package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied idempotently at startup (and by the e2e harness).
// The btree_gist exclusion constraint on bookings is the last line of
// defence for the non-overlap invariant: even a code path that skips
// the advisory lock cannot commit two overlapping Pending/Active
// bookings for the same bike.
const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'guest' CHECK (role IN ('guest', 'operator', 'admin')),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	last_login TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bikes (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	engine_cc INT NOT NULL DEFAULT 0,
	day_rate_cents BIGINT NOT NULL CHECK (day_rate_cents > 0),
	deposit_cents BIGINT NOT NULL DEFAULT 0 CHECK (deposit_cents >= 0),
	image_url TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'busy')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bookings (
	id UUID PRIMARY KEY,
	bike_id UUID NOT NULL REFERENCES bikes(id),
	user_id UUID NOT NULL REFERENCES users(id),
	contact_name TEXT NOT NULL,
	contact_phone TEXT NOT NULL,
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	total_cents BIGINT NOT NULL CHECK (total_cents >= 0),
	status TEXT NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending', 'Active', 'Completed', 'Cancelled')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (end_date >= start_date),
	CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
		bike_id WITH =,
		daterange(start_date, end_date, '[]') WITH &&
	) WHERE (status IN ('Pending', 'Active'))
);

CREATE INDEX IF NOT EXISTS idx_bookings_bike_status ON bookings(bike_id, status);
CREATE INDEX IF NOT EXISTS idx_bookings_user_created ON bookings(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	key UUID NOT NULL,
	user_id UUID NOT NULL REFERENCES users(id),
	endpoint TEXT NOT NULL,
	request_hash TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'processing' CHECK (status IN ('processing', 'completed')),
	result_booking_id UUID,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (key, user_id)
);

CREATE OR REPLACE FUNCTION notify_content_update() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('content_updates', json_build_object('table', TG_TABLE_NAME, 'kind', TG_OP)::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS bikes_notify ON bikes;
CREATE TRIGGER bikes_notify
	AFTER INSERT OR UPDATE OR DELETE ON bikes
	FOR EACH STATEMENT EXECUTE FUNCTION notify_content_update();

DROP TRIGGER IF EXISTS bookings_notify ON bookings;
CREATE TRIGGER bookings_notify
	AFTER INSERT OR UPDATE OR DELETE ON bookings
	FOR EACH STATEMENT EXECUTE FUNCTION notify_content_update();
`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
