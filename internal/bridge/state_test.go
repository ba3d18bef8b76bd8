package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/wallet-bridge/internal/domain"
	portmocks "github.com/bnema/wallet-bridge/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStateKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "wallet-bridge/chrome/connection", StateKey("chrome"))
}

func TestStateEncodeDecode(t *testing.T) {
	t.Parallel()

	encoded, err := encodeState(domain.ConnectionState{Accounts: []string{"0xabc", "0xdef"}, ChainID: 137})
	require.NoError(t, err)
	assert.Contains(t, encoded, "version = 1")

	decoded, err := decodeState(encoded)
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionState{Accounts: []string{"0xabc", "0xdef"}, ChainID: 137}, decoded)
}

func TestStateDecodeRejectsNewerSchema(t *testing.T) {
	t.Parallel()

	_, err := decodeState("version = 99\naccounts = []\nchain_id = 1\n")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported connection state schema version 99")
}

func TestStateStoreLoadMissingIsEmpty(t *testing.T) {
	t.Parallel()

	kv := portmocks.NewMockKeyValueStore(t)
	kv.EXPECT().Get(mock.Anything, "wallet-bridge/firefox/connection").
		Return("", fmt.Errorf("file value: %w", domain.ErrValueNotFound)).Once()

	state, err := newStateStore(kv, "firefox").Load(context.Background())
	require.NoError(t, err)
	assert.False(t, state.Connected())
}

func TestStateStoreLoadPropagatesBackendFailure(t *testing.T) {
	t.Parallel()

	kv := portmocks.NewMockKeyValueStore(t)
	kv.EXPECT().Get(mock.Anything, "wallet-bridge/firefox/connection").Return("", errors.New("disk on fire")).Once()

	_, err := newStateStore(kv, "firefox").Load(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestStateStoreSaveAndRemove(t *testing.T) {
	t.Parallel()

	kv := portmocks.NewMockKeyValueStore(t)
	kv.EXPECT().Put(mock.Anything, "wallet-bridge/brave/connection", mock.MatchedBy(func(value string) bool {
		state, err := decodeState(value)
		return err == nil && state.ChainID == 8453 && len(state.Accounts) == 1
	})).Return(nil).Once()
	kv.EXPECT().Delete(mock.Anything, "wallet-bridge/brave/connection").Return(nil).Once()

	store := newStateStore(kv, "brave")
	require.NoError(t, store.Save(context.Background(), domain.ConnectionState{Accounts: []string{"0xabc"}, ChainID: 8453}))
	require.NoError(t, store.Remove(context.Background()))
}
