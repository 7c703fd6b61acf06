package vault

import (
	"context"
	"errors"

	"github.com/foxseedlab/meetsync/internal/store"
)

var (
	// ErrNotFound means no credential row exists for the identity.
	ErrNotFound = errors.New("vault: credential not found")
	// ErrRefreshFailed means the stored credential is expired and could not
	// be rotated. It aborts the current poll cycle only; the stored state is
	// left untouched so a later cycle can retry.
	ErrRefreshFailed = errors.New("vault: token refresh failed")
)

type Vault interface {
	GetValid(ctx context.Context, identity string) (*store.Credential, error)
}
