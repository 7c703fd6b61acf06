package alerts

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/foxseedlab/meetsync/internal/alerts"
)

// DiscordNotifier posts operator alerts to a channel over the REST API; no
// gateway connection is opened.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(token, channelID string) (alerts.Notifier, error) {
	if token == "" || channelID == "" {
		return &NoopNotifier{}, nil
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("build discord session: %w", err)
	}
	return &DiscordNotifier{session: s, channelID: channelID}, nil
}

func (n *DiscordNotifier) Notify(ctx context.Context, subject, detail string) error {
	_ = ctx
	content := fmt.Sprintf(":rotating_light: **%s**\n%s", subject, detail)
	_, err := n.session.ChannelMessageSend(n.channelID, content)
	return err
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, string) error { return nil }
