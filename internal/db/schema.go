package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied in order on every start; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS public.users (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS public.services (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price       DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (price >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS public.venues (
		id         BIGSERIAL PRIMARY KEY,
		owner_id   BIGINT NOT NULL REFERENCES public.users(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		address    TEXT NOT NULL DEFAULT '',
		price      DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (price >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS public.venue_services (
		venue_id   BIGINT NOT NULL REFERENCES public.venues(id) ON DELETE CASCADE,
		service_id BIGINT NOT NULL REFERENCES public.services(id) ON DELETE CASCADE,
		PRIMARY KEY (venue_id, service_id)
	)`,
	`CREATE TABLE IF NOT EXISTS public.providers (
		id          BIGSERIAL PRIMARY KEY,
		kind        TEXT NOT NULL CHECK (kind IN ('vendor', 'carter')),
		name        TEXT NOT NULL,
		contact     TEXT NOT NULL DEFAULT '',
		specialties TEXT[] NOT NULL DEFAULT '{}',
		description TEXT NOT NULL DEFAULT '',
		price       DOUBLE PRECISION CHECK (price >= 0),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS providers_kind_idx ON public.providers (kind)`,
	`CREATE TABLE IF NOT EXISTS public.images (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT NOT NULL UNIQUE,
		owner_kind     TEXT NOT NULL,
		owner_id       BIGINT NOT NULL,
		position       INT NOT NULL DEFAULT 0,
		storage_path   TEXT NOT NULL,
		thumbnail_path TEXT,
		content_type   TEXT NOT NULL,
		size           BIGINT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS images_owner_idx ON public.images (owner_kind, owner_id, position)`,
	`CREATE TABLE IF NOT EXISTS public.bookings (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES public.users(id) ON DELETE CASCADE,
		venue_id        BIGINT NOT NULL REFERENCES public.venues(id) ON DELETE CASCADE,
		booking_date    DATE NOT NULL,
		total_price     DOUBLE PRECISION NOT NULL,
		status          TEXT NOT NULL DEFAULT 'Pending',
		idempotency_key TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, idempotency_key)
	)`,
	`CREATE TABLE IF NOT EXISTS public.booking_providers (
		booking_id  BIGINT NOT NULL REFERENCES public.bookings(id) ON DELETE CASCADE,
		provider_id BIGINT NOT NULL REFERENCES public.providers(id) ON DELETE RESTRICT,
		position    INT NOT NULL DEFAULT 0,
		PRIMARY KEY (booking_id, provider_id)
	)`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i, err)
		}
	}
	return nil
}

// Tables lists the tables in truncation-safe order, for test cleanup.
var Tables = []string{
	"public.booking_providers",
	"public.bookings",
	"public.images",
	"public.venue_services",
	"public.providers",
	"public.venues",
	"public.services",
	"public.users",
}
