package store

import (
	"context"
	"time"
)

type SaveFinalTranscriptInput struct {
	MeetingID   string
	Transcript  string
	Summary     string
	Metadata    TranscriptMetadata
	RetrievedAt time.Time
}

type UpsertSubscriptionInput struct {
	Identity       string
	Provider       Provider
	Resource       string
	ChannelID      string
	ResourceID     string
	ExpirationTime time.Time
	SyncToken      *string
	HistoryID      *string
	PollingOnly    bool
}

type UpdateCredentialTokenInput struct {
	Identity    string
	AccessToken string
	ExpiresAt   time.Time
}

type InsertAttemptInput struct {
	ResourceType string
	ResourceID   string
	Operation    string
	Outcome      string
	Detail       string
}

type MeetingStore interface {
	GetMeeting(ctx context.Context, id string) (*Meeting, error)
	ListEligibleMeetings(ctx context.Context, now time.Time) ([]Meeting, error)
	MarkMeetingPolled(ctx context.Context, id string, polledAt time.Time) error
	UpdateMeetingStatus(ctx context.Context, id string, status BotStatus) error
	SetNextPollAt(ctx context.Context, id string, at time.Time) error
	SaveLiveTranscript(ctx context.Context, id, text string) error
	SaveFinalTranscript(ctx context.Context, input SaveFinalTranscriptInput) error
	IncrementTranscriptFetchAttempts(ctx context.Context, id string) (int, error)
}

type BotStore interface {
	GetBot(ctx context.Context, id string) (*Bot, error)
}

type SubscriptionStore interface {
	GetActiveSubscription(ctx context.Context, identity string, provider Provider, resource string) (*WatchSubscription, error)
	ListActiveSubscriptions(ctx context.Context) ([]WatchSubscription, error)
	UpsertSubscription(ctx context.Context, input UpsertSubscriptionInput) (*WatchSubscription, error)
	DeactivateSubscription(ctx context.Context, id string) error
}

type CredentialStore interface {
	GetCredential(ctx context.Context, identity string) (*Credential, error)
	UpdateCredentialToken(ctx context.Context, input UpdateCredentialTokenInput) error
}

type AttemptStore interface {
	InsertAttempt(ctx context.Context, input InsertAttemptInput) error
}

type Store interface {
	MeetingStore
	BotStore
	SubscriptionStore
	CredentialStore
	AttemptStore
}
