package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/meetsync/internal/config"
)

type envConfig struct {
	Env                   string        `env:"ENV" envDefault:"production"`
	DatabaseURL           string        `env:"DATABASE_URL,required"`
	BotAPIBaseURL         string        `env:"BOT_API_BASE_URL,required"`
	BotAPIKey             string        `env:"BOT_API_KEY,required"`
	GoogleClientID        string        `env:"GOOGLE_CLIENT_ID,required"`
	GoogleClientSecret    string        `env:"GOOGLE_CLIENT_SECRET,required"`
	GoogleTokenURL        string        `env:"GOOGLE_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	CalendarWebhookURL    string        `env:"CALENDAR_WEBHOOK_URL,required"`
	GmailPubSubTopic      string        `env:"GMAIL_PUBSUB_TOPIC,required"`
	PipelineWebhookURL    string        `env:"PIPELINE_WEBHOOK_URL"`
	DiscordAlertToken     string        `env:"DISCORD_ALERT_TOKEN"`
	DiscordAlertChannelID string        `env:"DISCORD_ALERT_CHANNEL_ID"`
	TriggerListenAddr     string        `env:"TRIGGER_LISTEN_ADDR"`
	TickInterval          time.Duration `env:"TICK_INTERVAL" envDefault:"30s"`
	TickTimeout           time.Duration `env:"TICK_TIMEOUT" envDefault:"2m"`
	ResourceTimeout       time.Duration `env:"RESOURCE_TIMEOUT" envDefault:"20s"`
	MaxConcurrentPolls    int           `env:"MAX_CONCURRENT_POLLS" envDefault:"8"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                   raw.Env,
		DatabaseURL:           raw.DatabaseURL,
		BotAPIBaseURL:         raw.BotAPIBaseURL,
		BotAPIKey:             raw.BotAPIKey,
		GoogleClientID:        raw.GoogleClientID,
		GoogleClientSecret:    raw.GoogleClientSecret,
		GoogleTokenURL:        raw.GoogleTokenURL,
		CalendarWebhookURL:    raw.CalendarWebhookURL,
		GmailPubSubTopic:      raw.GmailPubSubTopic,
		PipelineWebhookURL:    raw.PipelineWebhookURL,
		DiscordAlertToken:     raw.DiscordAlertToken,
		DiscordAlertChannelID: raw.DiscordAlertChannelID,
		TriggerListenAddr:     raw.TriggerListenAddr,
		TickInterval:          raw.TickInterval,
		TickTimeout:           raw.TickTimeout,
		ResourceTimeout:       raw.ResourceTimeout,
		MaxConcurrentPolls:    raw.MaxConcurrentPolls,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
