package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE bot_status AS ENUM ('pending', 'bot_scheduled', 'bot_joined', 'transcribing', 'completed', 'failed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS bots (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		provider_bot_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS meetings (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		identity TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		attendee_bot_id UUID REFERENCES bots(id),
		bot_status bot_status NOT NULL DEFAULT 'pending',
		polling_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		next_poll_at TIMESTAMPTZ,
		last_polled_at TIMESTAMPTZ,
		transcript TEXT,
		transcript_summary TEXT,
		transcript_metadata JSONB,
		transcript_retrieved_at TIMESTAMPTZ,
		transcript_fetch_attempts INTEGER NOT NULL DEFAULT 0,
		final_transcript_ready BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_pollable ON meetings (next_poll_at) WHERE polling_enabled AND attendee_bot_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS watch_subscriptions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		identity TEXT NOT NULL,
		provider TEXT NOT NULL,
		resource TEXT NOT NULL,
		channel_id TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		expiration_time TIMESTAMPTZ NOT NULL,
		sync_token TEXT,
		history_id TEXT,
		polling_only BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_sync_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (identity, provider, resource)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_watch_subscriptions_active ON watch_subscriptions (expiration_time) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS credentials (
		identity TEXT PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NOT NULL,
		scope TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sync_attempts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_attempts_resource ON sync_attempts (resource_type, resource_id, created_at)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
