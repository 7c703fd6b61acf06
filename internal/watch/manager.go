package watch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/foxseedlab/meetsync/internal/store"
	"github.com/foxseedlab/meetsync/internal/vault"
	"github.com/google/uuid"
)

const (
	// CalendarResource is the single calendar we watch per identity.
	CalendarResource = "primary"
	// GmailResource names the identity's mailbox subscription row.
	GmailResource = "mailbox"

	// renewalThreshold: a subscription expiring further out than this is
	// left alone, which makes renewal safe to call on every tick.
	renewalThreshold = 24 * time.Hour

	// pollingFallbackTTL is the synthetic expiration recorded when gmail
	// push registration fails and we fall back to cursor polling.
	pollingFallbackTTL = 7 * 24 * time.Hour
)

type Manager struct {
	subs     store.SubscriptionStore
	vault    vault.Vault
	calendar CalendarProvider
	gmail    GmailProvider
	now      func() time.Time
}

func NewManager(subs store.SubscriptionStore, v vault.Vault, calendar CalendarProvider, gmail GmailProvider) *Manager {
	return &Manager{
		subs:     subs,
		vault:    v,
		calendar: calendar,
		gmail:    gmail,
		now:      time.Now,
	}
}

func (m *Manager) RenewCalendar(ctx context.Context, identity string) (*Result, error) {
	sub, skip, err := m.loadAndCheck(ctx, identity, store.ProviderCalendar, CalendarResource)
	if err != nil || skip != nil {
		return skip, err
	}

	if sub != nil {
		if err := m.calendar.Stop(ctx, identity, sub.ChannelID, sub.ResourceID); err != nil {
			// The provider lets an unstopped channel lapse on its own.
			slog.Warn("failed to stop old calendar channel", "error", err, "identity", identity, "channel_id", sub.ChannelID)
		}
	}

	channelID := uuid.NewString()
	res, err := m.calendar.Watch(ctx, identity, CalendarResource, channelID)
	if err != nil {
		return nil, fmt.Errorf("%w: calendar watch for %s: %v", ErrSetupFailed, identity, err)
	}
	expiration, err := parseExpiration(res.ExpirationMs)
	if err != nil {
		slog.Error("calendar watch returned malformed expiration", "error", err, "identity", identity, "raw_expiration", res.ExpirationMs)
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}

	// Carrying the sync token forward keeps the next sync incremental
	// instead of a full listing.
	var syncToken *string
	if sub != nil {
		syncToken = sub.SyncToken
	}
	saved, err := m.subs.UpsertSubscription(ctx, store.UpsertSubscriptionInput{
		Identity:       identity,
		Provider:       store.ProviderCalendar,
		Resource:       CalendarResource,
		ChannelID:      res.ChannelID,
		ResourceID:     res.ResourceID,
		ExpirationTime: expiration,
		SyncToken:      syncToken,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("calendar watch renewed", "identity", identity, "channel_id", saved.ChannelID, "expiration_time", saved.ExpirationTime)
	return &Result{Renewed: true, ChannelID: saved.ChannelID}, nil
}

func (m *Manager) RenewGmail(ctx context.Context, identity string) (*Result, error) {
	sub, skip, err := m.loadAndCheck(ctx, identity, store.ProviderGmail, GmailResource)
	if err != nil || skip != nil {
		return skip, err
	}

	if sub != nil && !sub.PollingOnly {
		if err := m.gmail.Stop(ctx, identity); err != nil {
			slog.Warn("failed to stop old gmail watch", "error", err, "identity", identity)
		}
	}

	res, err := m.gmail.Watch(ctx, identity)
	if err != nil {
		return m.gmailPollingFallback(ctx, identity, err)
	}
	expiration, err := parseExpiration(res.ExpirationMs)
	if err != nil {
		slog.Error("gmail watch returned malformed expiration", "error", err, "identity", identity, "raw_expiration", res.ExpirationMs)
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}

	saved, err := m.subs.UpsertSubscription(ctx, store.UpsertSubscriptionInput{
		Identity:       identity,
		Provider:       store.ProviderGmail,
		Resource:       GmailResource,
		ChannelID:      uuid.NewString(),
		ExpirationTime: expiration,
		HistoryID:      optional(res.HistoryID),
	})
	if err != nil {
		return nil, err
	}
	slog.Info("gmail watch renewed", "identity", identity, "history_id", res.HistoryID, "expiration_time", saved.ExpirationTime)
	return &Result{Renewed: true, ChannelID: saved.ChannelID}, nil
}

// gmailPollingFallback trades push freshness for availability: when push
// registration fails we record the current history cursor and keep the
// mailbox syncable by polling.
func (m *Manager) gmailPollingFallback(ctx context.Context, identity string, watchErr error) (*Result, error) {
	slog.Warn("gmail push registration failed, falling back to polling mode", "error", watchErr, "identity", identity)

	historyID, err := m.gmail.Profile(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: gmail push failed (%v) and profile fallback failed: %v", ErrSetupFailed, watchErr, err)
	}
	saved, err := m.subs.UpsertSubscription(ctx, store.UpsertSubscriptionInput{
		Identity:       identity,
		Provider:       store.ProviderGmail,
		Resource:       GmailResource,
		ChannelID:      uuid.NewString(),
		ExpirationTime: m.now().Add(pollingFallbackTTL),
		HistoryID:      optional(historyID),
		PollingOnly:    true,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("gmail subscription switched to polling mode", "identity", identity, "history_id", historyID)
	return &Result{Renewed: true, ChannelID: saved.ChannelID, PollingOnly: true}, nil
}

// loadAndCheck returns the existing subscription, or a non-nil no-op Result
// when the subscription is far enough from expiry that renewal is skipped.
func (m *Manager) loadAndCheck(ctx context.Context, identity string, provider store.Provider, resource string) (*store.WatchSubscription, *Result, error) {
	sub, err := m.subs.GetActiveSubscription(ctx, identity, provider, resource)
	if err != nil {
		return nil, nil, err
	}
	if sub != nil && sub.ExpirationTime.Sub(m.now()) > renewalThreshold {
		return nil, &Result{Renewed: false, ChannelID: sub.ChannelID, PollingOnly: sub.PollingOnly}, nil
	}
	if _, err := m.vault.GetValid(ctx, identity); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCredentialsMissing, err)
	}
	return sub, nil, nil
}

func parseExpiration(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid watch expiration %q: %w", raw, err)
	}
	if ms <= 0 {
		return time.Time{}, fmt.Errorf("non-positive watch expiration %q", raw)
	}
	return time.UnixMilli(ms), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
