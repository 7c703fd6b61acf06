package watch

import (
	"context"
	"errors"
)

var (
	// ErrCredentialsMissing means the vault could not produce a usable
	// credential for the identity; the renewal is skipped this cycle.
	ErrCredentialsMissing = errors.New("watch: credentials missing")
	// ErrSetupFailed means the provider rejected the watch registration or
	// returned a response we refuse to trust.
	ErrSetupFailed = errors.New("watch: subscription setup failed")
)

// WatchResult is what a provider hands back from a watch registration. The
// expiration crosses this boundary as the provider's raw millisecond string
// and is validated by the manager, never silently defaulted.
type WatchResult struct {
	ChannelID    string
	ResourceID   string
	ExpirationMs string
	HistoryID    string
}

type CalendarProvider interface {
	Watch(ctx context.Context, identity, calendarID, channelID string) (*WatchResult, error)
	Stop(ctx context.Context, identity, channelID, resourceID string) error
}

type GmailProvider interface {
	Watch(ctx context.Context, identity string) (*WatchResult, error)
	Stop(ctx context.Context, identity string) error
	Profile(ctx context.Context, identity string) (historyID string, err error)
}

type Result struct {
	Renewed     bool
	ChannelID   string
	PollingOnly bool
}
