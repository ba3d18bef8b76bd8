package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/bnema/wallet-bridge/internal/ports"
)

var errNilStore = errors.New("credential store is nil")

// Vault keeps the credential each browser hands back on connect.
type Vault struct {
	store ports.KeyValueStore
}

var _ ports.CredentialStore = (*Vault)(nil)

func NewVault(store ports.KeyValueStore) (*Vault, error) {
	if store == nil {
		return nil, errNilStore
	}
	return &Vault{store: store}, nil
}

func Key(id domain.BrowserID) string {
	return fmt.Sprintf("wallet-bridge/%s/credential", id)
}

func (v *Vault) SetCredential(ctx context.Context, browserID domain.BrowserID, credential domain.Credential) error {
	if credential.Empty() {
		return errors.New("credential is empty")
	}

	encoded, err := json.Marshal(credential)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := v.store.Put(ctx, Key(browserID), string(encoded)); err != nil {
		return fmt.Errorf("store credential for %s: %w", browserID, err)
	}

	return nil
}

func (v *Vault) Credential(ctx context.Context, browserID domain.BrowserID) (domain.Credential, error) {
	raw, err := v.store.Get(ctx, Key(browserID))
	if err != nil {
		return domain.Credential{}, fmt.Errorf("load credential for %s: %w", browserID, err)
	}

	var credential domain.Credential
	if err := json.Unmarshal([]byte(raw), &credential); err != nil {
		return domain.Credential{}, fmt.Errorf("decode credential for %s: %w", browserID, err)
	}
	return credential, nil
}

func (v *Vault) Forget(ctx context.Context, browserID domain.BrowserID) error {
	if err := v.store.Delete(ctx, Key(browserID)); err != nil {
		return fmt.Errorf("forget credential for %s: %w", browserID, err)
	}
	return nil
}
