package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/foxseedlab/meetsync/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const meetingColumns = `id, identity, title, attendee_bot_id, bot_status, polling_enabled,
	next_poll_at, last_polled_at, transcript, transcript_summary, transcript_metadata,
	transcript_retrieved_at, transcript_fetch_attempts, final_transcript_ready,
	created_at, updated_at`

const subscriptionColumns = `id, identity, provider, resource, channel_id, resource_id,
	expiration_time, sync_token, history_id, polling_only, is_active, last_sync_at,
	created_at, updated_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) store.Store {
	return &PostgresStore{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*store.Meeting, error) {
	var m store.Meeting
	var metadata []byte
	err := row.Scan(&m.ID, &m.Identity, &m.Title, &m.AttendeeBotID, &m.BotStatus, &m.PollingEnabled,
		&m.NextPollAt, &m.LastPolledAt, &m.Transcript, &m.TranscriptSummary, &metadata,
		&m.TranscriptRetrievedAt, &m.TranscriptFetchAttempts, &m.FinalTranscriptReady,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		var tm store.TranscriptMetadata
		if err := json.Unmarshal(metadata, &tm); err != nil {
			return nil, fmt.Errorf("decode transcript metadata for meeting %s: %w", m.ID, err)
		}
		m.TranscriptMetadata = &tm
	}
	return &m, nil
}

func (s *PostgresStore) GetMeeting(ctx context.Context, id string) (*store.Meeting, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id)
	m, err := scanMeeting(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (s *PostgresStore) ListEligibleMeetings(ctx context.Context, now time.Time) ([]store.Meeting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+meetingColumns+` FROM meetings
		 WHERE polling_enabled
		   AND attendee_bot_id IS NOT NULL
		   AND bot_status IN ('bot_scheduled', 'bot_joined', 'transcribing', 'completed')
		   AND NOT (bot_status = 'completed' AND final_transcript_ready)
		   AND (next_poll_at IS NULL OR next_poll_at <= $1)
		 ORDER BY next_poll_at ASC NULLS FIRST`,
		now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []store.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

func (s *PostgresStore) MarkMeetingPolled(ctx context.Context, id string, polledAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE meetings SET last_polled_at = $2, updated_at = NOW() WHERE id = $1`,
		id, polledAt)
	return err
}

func (s *PostgresStore) UpdateMeetingStatus(ctx context.Context, id string, status store.BotStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE meetings SET bot_status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	return err
}

func (s *PostgresStore) SetNextPollAt(ctx context.Context, id string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE meetings SET next_poll_at = $2, updated_at = NOW() WHERE id = $1`,
		id, at)
	return err
}

func (s *PostgresStore) SaveLiveTranscript(ctx context.Context, id, text string) error {
	// Interim snapshot only; final transcript fields stay untouched.
	_, err := s.pool.Exec(ctx,
		`UPDATE meetings SET transcript = $2, updated_at = NOW()
		 WHERE id = $1 AND NOT final_transcript_ready`,
		id, text)
	return err
}

func (s *PostgresStore) SaveFinalTranscript(ctx context.Context, input store.SaveFinalTranscriptInput) error {
	metadata, err := json.Marshal(input.Metadata)
	if err != nil {
		return fmt.Errorf("encode transcript metadata: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE meetings SET
			transcript = $2,
			transcript_summary = $3,
			transcript_metadata = $4,
			transcript_retrieved_at = $5,
			transcript_fetch_attempts = 0,
			final_transcript_ready = TRUE,
			updated_at = NOW()
		 WHERE id = $1`,
		input.MeetingID, input.Transcript, input.Summary, metadata, input.RetrievedAt)
	return err
}

func (s *PostgresStore) IncrementTranscriptFetchAttempts(ctx context.Context, id string) (int, error) {
	var attempts int
	err := s.pool.QueryRow(ctx,
		`UPDATE meetings SET transcript_fetch_attempts = transcript_fetch_attempts + 1, updated_at = NOW()
		 WHERE id = $1
		 RETURNING transcript_fetch_attempts`,
		id).Scan(&attempts)
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (s *PostgresStore) GetBot(ctx context.Context, id string) (*store.Bot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, provider_bot_id, created_at FROM bots WHERE id = $1`, id)
	var b store.Bot
	if err := row.Scan(&b.ID, &b.ProviderBotID, &b.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func scanSubscription(row rowScanner) (*store.WatchSubscription, error) {
	var sub store.WatchSubscription
	err := row.Scan(&sub.ID, &sub.Identity, &sub.Provider, &sub.Resource, &sub.ChannelID, &sub.ResourceID,
		&sub.ExpirationTime, &sub.SyncToken, &sub.HistoryID, &sub.PollingOnly, &sub.IsActive, &sub.LastSyncAt,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *PostgresStore) GetActiveSubscription(ctx context.Context, identity string, provider store.Provider, resource string) (*store.WatchSubscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM watch_subscriptions
		 WHERE identity = $1 AND provider = $2 AND resource = $3 AND is_active
		 LIMIT 1`,
		identity, provider, resource)
	sub, err := scanSubscription(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (s *PostgresStore) ListActiveSubscriptions(ctx context.Context) ([]store.WatchSubscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM watch_subscriptions
		 WHERE is_active ORDER BY expiration_time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []store.WatchSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *sub)
	}
	return list, rows.Err()
}

// UpsertSubscription relies on the unique (identity, provider, resource) key
// so a concurrent renewal can never leave two active rows for one resource.
func (s *PostgresStore) UpsertSubscription(ctx context.Context, input store.UpsertSubscriptionInput) (*store.WatchSubscription, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO watch_subscriptions
			(identity, provider, resource, channel_id, resource_id, expiration_time, sync_token, history_id, polling_only, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		 ON CONFLICT (identity, provider, resource) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			resource_id = EXCLUDED.resource_id,
			expiration_time = EXCLUDED.expiration_time,
			sync_token = EXCLUDED.sync_token,
			history_id = EXCLUDED.history_id,
			polling_only = EXCLUDED.polling_only,
			is_active = TRUE,
			updated_at = NOW()
		 RETURNING `+subscriptionColumns,
		input.Identity, input.Provider, input.Resource, input.ChannelID, input.ResourceID,
		input.ExpirationTime, input.SyncToken, input.HistoryID, input.PollingOnly)
	return scanSubscription(row)
}

func (s *PostgresStore) DeactivateSubscription(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE watch_subscriptions SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) GetCredential(ctx context.Context, identity string) (*store.Credential, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT identity, access_token, refresh_token, expires_at, scope, updated_at
		 FROM credentials WHERE identity = $1`,
		identity)
	var c store.Credential
	if err := row.Scan(&c.Identity, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt, &c.Scope, &c.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) UpdateCredentialToken(ctx context.Context, input store.UpdateCredentialTokenInput) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE credentials SET access_token = $2, expires_at = $3, updated_at = NOW() WHERE identity = $1`,
		input.Identity, input.AccessToken, input.ExpiresAt)
	return err
}

func (s *PostgresStore) InsertAttempt(ctx context.Context, input store.InsertAttemptInput) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sync_attempts (resource_type, resource_id, operation, outcome, detail)
		 VALUES ($1, $2, $3, $4, $5)`,
		input.ResourceType, input.ResourceID, input.Operation, input.Outcome, input.Detail)
	return err
}
