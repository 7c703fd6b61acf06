package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env                   string
	DatabaseURL           string
	BotAPIBaseURL         string
	BotAPIKey             string
	GoogleClientID        string
	GoogleClientSecret    string
	GoogleTokenURL        string
	CalendarWebhookURL    string
	GmailPubSubTopic      string
	PipelineWebhookURL    string
	DiscordAlertToken     string
	DiscordAlertChannelID string
	TriggerListenAddr     string
	TickInterval          time.Duration
	TickTimeout           time.Duration
	ResourceTimeout       time.Duration
	MaxConcurrentPolls    int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.TickTimeout <= 0 {
		return fmt.Errorf("TICK_TIMEOUT must be positive, got %s", c.TickTimeout)
	}
	if c.ResourceTimeout <= 0 {
		return fmt.Errorf("RESOURCE_TIMEOUT must be positive, got %s", c.ResourceTimeout)
	}
	if c.ResourceTimeout > c.TickTimeout {
		return fmt.Errorf("RESOURCE_TIMEOUT (%s) must not exceed TICK_TIMEOUT (%s)", c.ResourceTimeout, c.TickTimeout)
	}
	if c.MaxConcurrentPolls <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_POLLS must be positive, got %d", c.MaxConcurrentPolls)
	}
	if c.DiscordAlertToken != "" && c.DiscordAlertChannelID == "" {
		return fmt.Errorf("DISCORD_ALERT_CHANNEL_ID is required when DISCORD_ALERT_TOKEN is set")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "BOT_API_BASE_URL", value: c.BotAPIBaseURL},
		{name: "BOT_API_KEY", value: c.BotAPIKey},
		{name: "GOOGLE_CLIENT_ID", value: c.GoogleClientID},
		{name: "GOOGLE_CLIENT_SECRET", value: c.GoogleClientSecret},
		{name: "GOOGLE_TOKEN_URL", value: c.GoogleTokenURL},
		{name: "CALENDAR_WEBHOOK_URL", value: c.CalendarWebhookURL},
		{name: "GMAIL_PUBSUB_TOPIC", value: c.GmailPubSubTopic},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
