package googlesync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/foxseedlab/meetsync/internal/vault"
	"github.com/foxseedlab/meetsync/internal/watch"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

type GmailClient struct {
	vault     vault.Vault
	topicName string
}

func NewGmailClient(v vault.Vault, topicName string) watch.GmailProvider {
	return &GmailClient{vault: v, topicName: topicName}
}

func (c *GmailClient) service(ctx context.Context, identity string) (*gmail.Service, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(newTokenSource(ctx, c.vault, identity)))
	if err != nil {
		return nil, fmt.Errorf("build gmail service for %s: %w", identity, err)
	}
	return svc, nil
}

func (c *GmailClient) Watch(ctx context.Context, identity string) (*watch.WatchResult, error) {
	svc, err := c.service(ctx, identity)
	if err != nil {
		return nil, err
	}
	req := &gmail.WatchRequest{
		TopicName: c.topicName,
		LabelIds:  []string{"INBOX"},
	}
	res, err := svc.Users.Watch(gmailUser, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail users watch: %w", err)
	}
	return &watch.WatchResult{
		ExpirationMs: strconv.FormatInt(res.Expiration, 10),
		HistoryID:    strconv.FormatUint(res.HistoryId, 10),
	}, nil
}

func (c *GmailClient) Stop(ctx context.Context, identity string) error {
	svc, err := c.service(ctx, identity)
	if err != nil {
		return err
	}
	if err := svc.Users.Stop(gmailUser).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail users stop: %w", err)
	}
	return nil
}

func (c *GmailClient) Profile(ctx context.Context, identity string) (string, error) {
	svc, err := c.service(ctx, identity)
	if err != nil {
		return "", err
	}
	res, err := svc.Users.GetProfile(gmailUser).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail get profile: %w", err)
	}
	return strconv.FormatUint(res.HistoryId, 10), nil
}
