package credentials

import (
	"context"
	"errors"
	"fmt"
	"testing"

	filestore "github.com/bnema/wallet-bridge/internal/adapters/store/file"
	"github.com/bnema/wallet-bridge/internal/domain"
	portmocks "github.com/bnema/wallet-bridge/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVaultStoresAndLoadsCredential(t *testing.T) {
	t.Parallel()

	vault, err := NewVault(filestore.NewStore(t.TempDir()))
	require.NoError(t, err)

	credential := domain.Credential{Address: "0xabc", Token: "session", RefreshToken: "refresh", Role: "owner"}
	require.NoError(t, vault.SetCredential(context.Background(), "chrome", credential))

	got, err := vault.Credential(context.Background(), "chrome")
	require.NoError(t, err)
	assert.Equal(t, credential, got)

	require.NoError(t, vault.Forget(context.Background(), "chrome"))
	_, err = vault.Credential(context.Background(), "chrome")
	assert.ErrorIs(t, err, domain.ErrValueNotFound)
}

func TestVaultUsesPerBrowserKey(t *testing.T) {
	t.Parallel()

	store := portmocks.NewMockKeyValueStore(t)
	store.EXPECT().Put(mock.Anything, "wallet-bridge/firefox/credential", `{"address":"0xabc","token":"session"}`).
		Return(nil).Once()

	vault, err := NewVault(store)
	require.NoError(t, err)
	require.NoError(t, vault.SetCredential(context.Background(), "firefox", domain.Credential{Address: "0xabc", Token: "session"}))
}

func TestVaultWrapsStoreFailures(t *testing.T) {
	t.Parallel()

	store := portmocks.NewMockKeyValueStore(t)
	store.EXPECT().Put(mock.Anything, mock.Anything, mock.Anything).Return(errors.New("pass locked")).Once()
	store.EXPECT().Get(mock.Anything, "wallet-bridge/brave/credential").Return("{", nil).Once()

	vault, err := NewVault(store)
	require.NoError(t, err)

	err = vault.SetCredential(context.Background(), "brave", domain.Credential{Token: "t"})
	assert.ErrorContains(t, err, "pass locked")

	_, err = vault.Credential(context.Background(), "brave")
	assert.ErrorContains(t, err, fmt.Sprintf("decode credential for %s", "brave"))
}

func TestVaultRejectsEmptyCredentialAndNilStore(t *testing.T) {
	t.Parallel()

	_, err := NewVault(nil)
	require.ErrorIs(t, err, errNilStore)

	vault, err := NewVault(portmocks.NewMockKeyValueStore(t))
	require.NoError(t, err)
	require.Error(t, vault.SetCredential(context.Background(), "brave", domain.Credential{}))
}
