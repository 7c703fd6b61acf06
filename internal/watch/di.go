package watch

import (
	"github.com/foxseedlab/meetsync/internal/store"
	"github.com/foxseedlab/meetsync/internal/vault"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		st := do.MustInvoke[store.Store](i)
		v := do.MustInvoke[vault.Vault](i)
		calendar := do.MustInvoke[CalendarProvider](i)
		gmail := do.MustInvoke[GmailProvider](i)
		return NewManager(st, v, calendar, gmail), nil
	})
}
