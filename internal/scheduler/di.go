package scheduler

import (
	"github.com/foxseedlab/meetsync/internal/config"
	"github.com/foxseedlab/meetsync/internal/lifecycle"
	"github.com/foxseedlab/meetsync/internal/store"
	"github.com/foxseedlab/meetsync/internal/watch"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Orchestrator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		st := do.MustInvoke[store.Store](i)
		poller := do.MustInvoke[*lifecycle.Poller](i)
		renewer := do.MustInvoke[*watch.Manager](i)
		return NewOrchestrator(st, poller, renewer, cfg.MaxConcurrentPolls, cfg.ResourceTimeout), nil
	})
}
