package lifecycle

import (
	"github.com/foxseedlab/meetsync/internal/alerts"
	"github.com/foxseedlab/meetsync/internal/botapi"
	"github.com/foxseedlab/meetsync/internal/pipeline"
	"github.com/foxseedlab/meetsync/internal/store"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Poller, error) {
		st := do.MustInvoke[store.Store](i)
		client := do.MustInvoke[botapi.Client](i)
		sender := do.MustInvoke[pipeline.Sender](i)
		notifier := do.MustInvoke[alerts.Notifier](i)
		return NewPoller(st, st, client, sender, notifier), nil
	})
}
