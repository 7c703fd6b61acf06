package googlesync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/foxseedlab/meetsync/internal/vault"
	"github.com/foxseedlab/meetsync/internal/watch"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type CalendarClient struct {
	vault      vault.Vault
	webhookURL string
}

func NewCalendarClient(v vault.Vault, webhookURL string) watch.CalendarProvider {
	return &CalendarClient{vault: v, webhookURL: webhookURL}
}

func (c *CalendarClient) service(ctx context.Context, identity string) (*calendar.Service, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(newTokenSource(ctx, c.vault, identity)))
	if err != nil {
		return nil, fmt.Errorf("build calendar service for %s: %w", identity, err)
	}
	return svc, nil
}

func (c *CalendarClient) Watch(ctx context.Context, identity, calendarID, channelID string) (*watch.WatchResult, error) {
	svc, err := c.service(ctx, identity)
	if err != nil {
		return nil, err
	}
	channel := &calendar.Channel{
		Id:      channelID,
		Type:    "web_hook",
		Address: c.webhookURL,
	}
	res, err := svc.Events.Watch(calendarID, channel).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar events watch: %w", err)
	}
	return &watch.WatchResult{
		ChannelID:    res.Id,
		ResourceID:   res.ResourceId,
		ExpirationMs: strconv.FormatInt(res.Expiration, 10),
	}, nil
}

func (c *CalendarClient) Stop(ctx context.Context, identity, channelID, resourceID string) error {
	svc, err := c.service(ctx, identity)
	if err != nil {
		return err
	}
	channel := &calendar.Channel{
		Id:         channelID,
		ResourceId: resourceID,
	}
	if err := svc.Channels.Stop(channel).Context(ctx).Do(); err != nil {
		return fmt.Errorf("calendar channels stop: %w", err)
	}
	return nil
}
