package store

import "time"

type BotStatus string

const (
	BotStatusPending      BotStatus = "pending"
	BotStatusScheduled    BotStatus = "bot_scheduled"
	BotStatusJoined       BotStatus = "bot_joined"
	BotStatusTranscribing BotStatus = "transcribing"
	BotStatusCompleted    BotStatus = "completed"
	BotStatusFailed       BotStatus = "failed"
)

type Provider string

const (
	ProviderCalendar Provider = "calendar"
	ProviderGmail    Provider = "gmail"
)

type Meeting struct {
	ID                      string
	Identity                string
	Title                   string
	AttendeeBotID           *string
	BotStatus               BotStatus
	PollingEnabled          bool
	NextPollAt              *time.Time
	LastPolledAt            *time.Time
	Transcript              *string
	TranscriptSummary       *string
	TranscriptMetadata      *TranscriptMetadata
	TranscriptRetrievedAt   *time.Time
	TranscriptFetchAttempts int
	FinalTranscriptReady    bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

type TranscriptMetadata struct {
	WordCount   int       `json:"word_count"`
	CharCount   int       `json:"char_count"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Bot decouples the local deployment record from the provider's own
// handle; a meeting is only pollable through a resolvable Bot chain.
type Bot struct {
	ID            string
	ProviderBotID string
	CreatedAt     time.Time
}

type WatchSubscription struct {
	ID             string
	Identity       string
	Provider       Provider
	Resource       string
	ChannelID      string
	ResourceID     string
	ExpirationTime time.Time
	SyncToken      *string
	HistoryID      *string
	PollingOnly    bool
	IsActive       bool
	LastSyncAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Credential struct {
	Identity     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
	UpdatedAt    time.Time
}

// SyncAttempt is an append-only record of one poll or renewal attempt.
type SyncAttempt struct {
	ID           string
	ResourceType string
	ResourceID   string
	Operation    string
	Outcome      string
	Detail       string
	CreatedAt    time.Time
}
