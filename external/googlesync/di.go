package googlesync

import (
	"github.com/foxseedlab/meetsync/internal/config"
	"github.com/foxseedlab/meetsync/internal/vault"
	"github.com/foxseedlab/meetsync/internal/watch"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (watch.CalendarProvider, error) {
		cfg := do.MustInvoke[*config.Config](i)
		v := do.MustInvoke[vault.Vault](i)
		return NewCalendarClient(v, cfg.CalendarWebhookURL), nil
	})
	do.Provide(injector, func(i do.Injector) (watch.GmailProvider, error) {
		cfg := do.MustInvoke[*config.Config](i)
		v := do.MustInvoke[vault.Vault](i)
		return NewGmailClient(v, cfg.GmailPubSubTopic), nil
	})
}
