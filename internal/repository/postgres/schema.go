package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS drivers (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		home_lat           DOUBLE PRECISION NOT NULL,
		home_lng           DOUBLE PRECISION NOT NULL,
		workplace_name     TEXT NOT NULL,
		workplace_lat      DOUBLE PRECISION NOT NULL,
		workplace_lng      DOUBLE PRECISION NOT NULL,
		max_detour_seconds DOUBLE PRECISION NOT NULL,
		max_riders         INTEGER NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rides (
		id                      TEXT PRIMARY KEY,
		driver_id               TEXT NOT NULL UNIQUE REFERENCES drivers(id),
		rider_ids               TEXT[] NOT NULL DEFAULT '{}',
		route                   JSONB NOT NULL,
		matched_geometry        JSONB,
		direct_duration_seconds DOUBLE PRECISION NOT NULL,
		direct_distance_km      DOUBLE PRECISION NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS riders (
		id                      TEXT PRIMARY KEY,
		name                    TEXT NOT NULL,
		home_lat                DOUBLE PRECISION NOT NULL,
		home_lng                DOUBLE PRECISION NOT NULL,
		workplace_name          TEXT NOT NULL,
		workplace_lat           DOUBLE PRECISION NOT NULL,
		workplace_lng           DOUBLE PRECISION NOT NULL,
		ride_id                 TEXT REFERENCES rides(id),
		direct_duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		direct_distance_km      DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS riders_workplace_idx ON riders (workplace_name)`,
}

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
