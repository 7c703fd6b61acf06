package alerts

import (
	"github.com/foxseedlab/meetsync/internal/alerts"
	"github.com/foxseedlab/meetsync/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (alerts.Notifier, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewDiscordNotifier(c.DiscordAlertToken, c.DiscordAlertChannelID)
	})
}
