package botapi

import (
	"github.com/foxseedlab/meetsync/internal/botapi"
	"github.com/foxseedlab/meetsync/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (botapi.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPClient(c.BotAPIBaseURL, c.BotAPIKey), nil
	})
}
