package vault

import (
	"github.com/foxseedlab/meetsync/internal/config"
	"github.com/foxseedlab/meetsync/internal/store"
	"github.com/foxseedlab/meetsync/internal/vault"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (vault.Vault, error) {
		cfg := do.MustInvoke[*config.Config](i)
		st := do.MustInvoke[store.Store](i)
		return NewOAuthVault(st, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleTokenURL), nil
	})
}
