package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stateKey = "wallet-bridge/chrome/connection"

type recordedRun struct {
	calls  []invocation
	stdout string
	stderr string
	err    error
}

func (r *recordedRun) run(_ context.Context, inv invocation) (string, string, error) {
	r.calls = append(r.calls, inv)
	return r.stdout, r.stderr, r.err
}

func newRecordedStore(rec *recordedRun, opts ...Option) *Store {
	store := NewStore(opts...)
	store.run = rec.run
	return store
}

func TestStorePutInsertsMultilineValue(t *testing.T) {
	t.Parallel()

	rec := &recordedRun{}
	store := newRecordedStore(rec)

	require.NoError(t, store.Put(context.Background(), stateKey, "version = 1\naccounts = [\"0xabc\"]"))
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"insert", "--multiline", "--force", stateKey}, rec.calls[0].args)
	assert.Equal(t, "version = 1\naccounts = [\"0xabc\"]\n", rec.calls[0].input)
	assert.Empty(t, rec.calls[0].env)
}

func TestStoreUsesDedicatedStoreDir(t *testing.T) {
	t.Parallel()

	rec := &recordedRun{stdout: "version = 1\n"}
	store := newRecordedStore(rec, WithStoreDir(" /home/me/.wallet-bridge/pass "))

	_, err := store.Get(context.Background(), stateKey)
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), stateKey))

	for _, call := range rec.calls {
		assert.Equal(t, []string{"PASSWORD_STORE_DIR=/home/me/.wallet-bridge/pass"}, call.env)
	}
}

func TestStoreGetTrimsTrailingLineEndings(t *testing.T) {
	t.Parallel()

	rec := &recordedRun{stdout: "version = 1\nchain_id = 1\r\n\n"}
	store := newRecordedStore(rec)

	value, err := store.Get(context.Background(), stateKey)
	require.NoError(t, err)
	assert.Equal(t, "version = 1\nchain_id = 1", value)
	assert.Equal(t, []string{"show", stateKey}, rec.calls[0].args)
	assert.Empty(t, rec.calls[0].input)
}

func TestStoreGetMapsMissingEntryToNotFound(t *testing.T) {
	t.Parallel()

	rec := &recordedRun{stderr: "Error: " + stateKey + " is not in the password store.", err: errors.New("exit status 1")}
	store := newRecordedStore(rec)

	_, err := store.Get(context.Background(), stateKey)
	require.ErrorIs(t, err, domain.ErrValueNotFound)
}

func TestStoreGetReturnsClearErrorForOtherFailures(t *testing.T) {
	t.Parallel()

	rec := &recordedRun{stderr: "gpg: decryption failed: No secret key", err: errors.New("exit status 2")}
	store := newRecordedStore(rec)

	_, err := store.Get(context.Background(), stateKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrValueNotFound)
	assert.ErrorContains(t, err, "pass get")
	assert.ErrorContains(t, err, "No secret key")
}

func TestStoreDeleteIgnoresMissingEntry(t *testing.T) {
	t.Parallel()

	rec := &recordedRun{stderr: "Error: " + stateKey + " is not in the password store.", err: errors.New("exit status 1")}
	store := newRecordedStore(rec)

	require.NoError(t, store.Delete(context.Background(), stateKey))
	assert.Equal(t, []string{"rm", "--force", stateKey}, rec.calls[0].args)
}

func TestStoreRejectsEntriesOutsideTheStore(t *testing.T) {
	t.Parallel()

	rec := &recordedRun{}
	store := newRecordedStore(rec)

	for _, key := range []string{"", "  ", "/etc/passwd", "../escape", "wallet-bridge/../../escape", "."} {
		require.ErrorIs(t, store.Put(context.Background(), key, "x"), ErrInvalidEntry, key)
	}
	assert.Empty(t, rec.calls)

	require.NoError(t, store.Put(context.Background(), "wallet-bridge//chrome/./connection", "x"))
	assert.Equal(t, stateKey, rec.calls[0].args[3])
}

func TestStorePropagatesUnavailable(t *testing.T) {
	t.Parallel()

	store := newRecordedStore(&recordedRun{err: ErrUnavailable})

	assert.ErrorIs(t, store.Put(context.Background(), stateKey, "value"), ErrUnavailable)
}
