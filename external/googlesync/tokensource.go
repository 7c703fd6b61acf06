package googlesync

import (
	"context"

	"github.com/foxseedlab/meetsync/internal/vault"
	"golang.org/x/oauth2"
)

// vaultTokenSource adapts the credential vault to oauth2.TokenSource so the
// typed Google API clients ride on the vault's fast path and refresh logic.
type vaultTokenSource struct {
	ctx      context.Context
	vault    vault.Vault
	identity string
}

func newTokenSource(ctx context.Context, v vault.Vault, identity string) oauth2.TokenSource {
	return &vaultTokenSource{ctx: ctx, vault: v, identity: identity}
}

func (t *vaultTokenSource) Token() (*oauth2.Token, error) {
	cred, err := t.vault.GetValid(t.ctx, t.identity)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   "Bearer",
		Expiry:      cred.ExpiresAt,
	}, nil
}
