package vault

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/meetsync/internal/store"
	"github.com/foxseedlab/meetsync/internal/vault"
	"golang.org/x/oauth2"
)

const (
	// expirySkew treats tokens about to expire as already expired so a
	// request never goes out with a token that dies mid-flight.
	expirySkew = 60 * time.Second

	// defaultTokenLifetime covers token endpoints that omit expires_in.
	defaultTokenLifetime = time.Hour
)

type OAuthVault struct {
	store store.CredentialStore
	conf  *oauth2.Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOAuthVault(cs store.CredentialStore, clientID, clientSecret, tokenURL string) vault.Vault {
	return &OAuthVault{
		store: cs,
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		locks: make(map[string]*sync.Mutex),
	}
}

func (v *OAuthVault) GetValid(ctx context.Context, identity string) (*store.Credential, error) {
	cred, err := v.store.GetCredential(ctx, identity)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: %s", vault.ErrNotFound, identity)
	}
	if fresh(cred) {
		return cred, nil
	}

	// Refresh is serialized per identity so two concurrent callers cannot
	// both rotate the token and invalidate each other's copy.
	lock := v.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	cred, err = v.store.GetCredential(ctx, identity)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: %s", vault.ErrNotFound, identity)
	}
	if fresh(cred) {
		// The previous lock holder already rotated it.
		return cred, nil
	}
	return v.refresh(ctx, cred)
}

func (v *OAuthVault) refresh(ctx context.Context, cred *store.Credential) (*store.Credential, error) {
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token stored for %s", vault.ErrRefreshFailed, cred.Identity)
	}

	tok, err := v.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		slog.Error("credential refresh failed", "error", err, "identity", cred.Identity)
		return nil, fmt.Errorf("%w: %v", vault.ErrRefreshFailed, err)
	}
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = time.Now().Add(defaultTokenLifetime)
	}

	if err := v.store.UpdateCredentialToken(ctx, store.UpdateCredentialTokenInput{
		Identity:    cred.Identity,
		AccessToken: tok.AccessToken,
		ExpiresAt:   expiry,
	}); err != nil {
		return nil, fmt.Errorf("persist refreshed credential for %s: %w", cred.Identity, err)
	}
	slog.Info("credential refreshed", "identity", cred.Identity, "expires_at", expiry)

	cred.AccessToken = tok.AccessToken
	cred.ExpiresAt = expiry
	return cred, nil
}

func (v *OAuthVault) identityLock(identity string) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()
	lock, ok := v.locks[identity]
	if !ok {
		lock = &sync.Mutex{}
		v.locks[identity] = lock
	}
	return lock
}

func fresh(cred *store.Credential) bool {
	return time.Until(cred.ExpiresAt) > expirySkew
}
