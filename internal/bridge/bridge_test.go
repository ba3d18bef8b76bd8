package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/wallet-bridge/internal/adapters/delivery"
	filestore "github.com/bnema/wallet-bridge/internal/adapters/store/file"
	"github.com/bnema/wallet-bridge/internal/domain"
	portmocks "github.com/bnema/wallet-bridge/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

type harness struct {
	bridge      *Bridge
	hub         *delivery.Hub
	store       *filestore.Store
	credentials *portmocks.MockCredentialSink
	opened      chan DeepLinkRequest
	opens       *atomic.Int32
}

type harnessConfig struct {
	id      domain.BrowserID
	hub     *delivery.Hub
	store   *filestore.Store
	openErr error
	opts    []Option
}

func newHarness(t *testing.T, cfg harnessConfig) *harness {
	t.Helper()

	if cfg.id == "" {
		cfg.id = "chrome"
	}
	if cfg.hub == nil {
		cfg.hub = delivery.NewHub()
	}
	if cfg.store == nil {
		cfg.store = filestore.NewStore(t.TempDir())
	}

	h := &harness{
		hub:         cfg.hub,
		store:       cfg.store,
		credentials: portmocks.NewMockCredentialSink(t),
		opened:      make(chan DeepLinkRequest, 8),
		opens:       &atomic.Int32{},
	}

	opener := portmocks.NewMockURLOpener(t)
	opener.EXPECT().Open(mock.Anything, mock.Anything).RunAndReturn(func(_ context.Context, link string) error {
		h.opens.Add(1)
		if cfg.openErr != nil {
			return cfg.openErr
		}
		req, err := ParseRequestURL(link)
		if !assert.NoError(t, err) {
			return err
		}
		h.opened <- req
		return nil
	}).Maybe()

	hostInfo := portmocks.NewMockHostInfoProvider(t)
	hostInfo.EXPECT().GetInfo(mock.Anything).Return(testEndpoint, nil).Maybe()

	b, err := New(context.Background(), domain.BrowserProfile{ID: cfg.id, Command: "browser"}, Dependencies{
		Opener:      opener,
		HostInfo:    hostInfo,
		Deliveries:  cfg.hub,
		Store:       cfg.store,
		Credentials: h.credentials,
	}, cfg.opts...)
	require.NoError(t, err)
	h.bridge = b

	return h
}

func (h *harness) nextRequest(t *testing.T) DeepLinkRequest {
	t.Helper()

	select {
	case req := <-h.opened:
		return req
	case <-time.After(waitTimeout):
		t.Fatal("no request was opened in the browser")
		return DeepLinkRequest{}
	}
}

func (h *harness) respond(t *testing.T, payload string) DeepLinkRequest {
	t.Helper()

	req := h.nextRequest(t)
	h.hub.Publish(domain.Delivery{RequestID: req.RequestID, Data: json.RawMessage(payload)})
	return req
}

type connectOutcome struct {
	state domain.ConnectionState
	err   error
}

func (h *harness) connectAsync(params ConnectParams) <-chan connectOutcome {
	done := make(chan connectOutcome, 1)
	go func() {
		state, err := h.bridge.Connect(context.Background(), params)
		done <- connectOutcome{state: state, err: err}
	}()
	return done
}

func waitOutcome(t *testing.T, done <-chan connectOutcome) connectOutcome {
	t.Helper()

	select {
	case result := <-done:
		return result
	case <-time.After(waitTimeout):
		t.Fatal("connect did not complete")
		return connectOutcome{}
	}
}

func seedState(t *testing.T, store *filestore.Store, id domain.BrowserID, state domain.ConnectionState) {
	t.Helper()

	encoded, err := encodeState(state)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), StateKey(id), encoded))
}

func TestConnectStoresStateAndForwardsCredential(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{})
	h.credentials.EXPECT().
		SetCredential(mock.Anything, domain.BrowserID("chrome"), domain.Credential{Address: "0xabc", Token: "session-token"}).
		Return(nil).Once()

	done := h.connectAsync(ConnectParams{ChainID: 1})
	req := h.respond(t, `{"accounts":["0xabc"],"chainId":1,"auth":{"address":"0xabc","token":"session-token"}}`)
	result := waitOutcome(t, done)

	require.NoError(t, result.err)
	assert.Equal(t, TaskConnect, req.Task)
	assert.Equal(t, "walletbridge", req.CallbackScheme)
	assert.Equal(t, domain.ChainID(1), req.ChainID)
	assert.Equal(t, domain.ConnectionState{Accounts: []string{"0xabc"}, ChainID: 1}, result.state)
	assert.True(t, h.bridge.IsAuthorized())
	assert.Equal(t, []string{"0xabc"}, h.bridge.Accounts())
	assert.Equal(t, PhaseConnected, h.bridge.Status().Phase)

	chainID, err := h.bridge.Provider().Request(context.Background(), RequestArgs{Method: "eth_chainId"})
	require.NoError(t, err)
	assert.JSONEq(t, `"0x1"`, string(chainID))
	assert.Equal(t, int32(1), h.opens.Load())

	persisted, err := h.store.Get(context.Background(), StateKey("chrome"))
	require.NoError(t, err)
	state, err := decodeState(persisted)
	require.NoError(t, err)
	assert.Equal(t, result.state, state)
}

func TestConnectAdoptsRequestedChainWhenPayloadOmitsIt(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{})

	done := h.connectAsync(ConnectParams{ChainID: 137})
	h.respond(t, `{"accounts":["0xabc"]}`)
	result := waitOutcome(t, done)

	require.NoError(t, result.err)
	assert.Equal(t, domain.ChainID(137), result.state.ChainID)
}

func TestConnectReturnsCachedStateWithoutDispatch(t *testing.T) {
	t.Parallel()

	store := filestore.NewStore(t.TempDir())
	seedState(t, store, "chrome", domain.ConnectionState{Accounts: []string{"0xabc"}, ChainID: 137})
	h := newHarness(t, harnessConfig{store: store})

	state, err := h.bridge.Connect(context.Background(), ConnectParams{})
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionState{Accounts: []string{"0xabc"}, ChainID: 137}, state)

	state, err = h.bridge.Connect(context.Background(), ConnectParams{IsReconnecting: true, ChainID: 137})
	require.NoError(t, err)
	assert.Equal(t, domain.ChainID(137), state.ChainID)
	assert.Equal(t, int32(0), h.opens.Load())
}

func TestReconnectWithoutCachedStateFailsFast(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{})

	_, err := h.bridge.Connect(context.Background(), ConnectParams{IsReconnecting: true})
	require.ErrorIs(t, err, domain.ErrNoExistingConnection)
	assert.Equal(t, int32(0), h.opens.Load())
	assert.Equal(t, 0, h.bridge.table.Len())
}

func TestConnectTimesOutAndDropsLateDelivery(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{opts: []Option{WithTimeout(20 * time.Millisecond)}})

	done := h.connectAsync(ConnectParams{ChainID: 1})
	req := h.nextRequest(t)
	result := waitOutcome(t, done)

	require.ErrorIs(t, result.err, domain.ErrRequestTimedOut)
	assert.Equal(t, 0, h.bridge.table.Len())

	h.hub.Publish(domain.Delivery{RequestID: req.RequestID, Data: json.RawMessage(`{"accounts":["0xabc"],"chainId":1}`)})
	assert.False(t, h.bridge.IsAuthorized())
}

func TestConnectReportsDeliveredError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{})

	done := h.connectAsync(ConnectParams{ChainID: 1})
	h.respond(t, `{"error":{"code":4001,"message":"User rejected the request."}}`)
	result := waitOutcome(t, done)

	var deliveredErr *domain.DeliveredError
	require.ErrorAs(t, result.err, &deliveredErr)
	assert.Equal(t, 4001, deliveredErr.Code)
	assert.False(t, h.bridge.IsAuthorized())
}

func TestConnectRejectsPayloadWithoutAccounts(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{})

	done := h.connectAsync(ConnectParams{ChainID: 1})
	h.respond(t, `{"accounts":[],"chainId":1}`)
	result := waitOutcome(t, done)

	var deliveredErr *domain.DeliveredError
	require.ErrorAs(t, result.err, &deliveredErr)
	assert.Contains(t, deliveredErr.Message, "no accounts")
}

func TestConnectOpenFailureLeavesNoPendingRequest(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{openErr: errors.New("exec: browser not installed")})

	_, err := h.bridge.Connect(context.Background(), ConnectParams{ChainID: 1})
	require.Error(t, err)
	assert.ErrorContains(t, err, "browser not installed")
	assert.Equal(t, 0, h.bridge.table.Len())
}

func TestConnectCanceledContextRemovesPendingRequest(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := h.bridge.Connect(ctx, ConnectParams{ChainID: 1})
		done <- err
	}()
	h.nextRequest(t)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitTimeout):
		t.Fatal("connect did not observe cancellation")
	}
	assert.Equal(t, 0, h.bridge.table.Len())
}

func TestDisconnectAbandonsPendingAndClearsState(t *testing.T) {
	t.Parallel()

	store := filestore.NewStore(t.TempDir())
	seedState(t, store, "chrome", domain.ConnectionState{Accounts: []string{"0xabc"}, ChainID: 1})
	h := newHarness(t, harnessConfig{store: store})

	done := h.connectAsync(ConnectParams{ChainID: 137})
	h.nextRequest(t)

	require.NoError(t, h.bridge.Disconnect(context.Background()))
	result := waitOutcome(t, done)

	require.ErrorIs(t, result.err, domain.ErrRequestAbandoned)
	assert.False(t, h.bridge.IsAuthorized())
	assert.Equal(t, domain.ChainID(0), h.bridge.ChainID())
	assert.Equal(t, 0, h.bridge.table.Len())

	_, err := store.Get(context.Background(), StateKey("chrome"))
	assert.ErrorIs(t, err, domain.ErrValueNotFound)
}

func TestDeliveriesOnlyResolveTheOwningBridge(t *testing.T) {
	t.Parallel()

	hub := delivery.NewHub()
	chrome := newHarness(t, harnessConfig{id: "chrome", hub: hub})
	firefox := newHarness(t, harnessConfig{id: "firefox", hub: hub})

	chromeDone := chrome.connectAsync(ConnectParams{ChainID: 1})
	firefoxDone := firefox.connectAsync(ConnectParams{ChainID: 1})
	chrome.respond(t, `{"accounts":["0xaaa"],"chainId":1}`)
	firefoxReq := firefox.nextRequest(t)

	chromeResult := waitOutcome(t, chromeDone)
	require.NoError(t, chromeResult.err)
	assert.Equal(t, []string{"0xaaa"}, chromeResult.state.Accounts)
	assert.True(t, firefox.bridge.table.Has(firefoxReq.RequestID))
	assert.False(t, firefox.bridge.IsAuthorized())

	require.NoError(t, firefox.bridge.Disconnect(context.Background()))
	assert.ErrorIs(t, waitOutcome(t, firefoxDone).err, domain.ErrRequestAbandoned)
	assert.True(t, chrome.bridge.IsAuthorized())
}

func TestSwitchChainFallsBackToDefaultNetwork(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{})

	done := make(chan domain.Network, 1)
	go func() {
		network, err := h.bridge.SwitchChain(context.Background(), 999)
		assert.NoError(t, err)
		done <- network
	}()
	req := h.respond(t, `{"accounts":["0xabc"],"chainId":999}`)
	assert.Equal(t, domain.ChainID(999), req.ChainID)

	select {
	case network := <-done:
		assert.Equal(t, domain.DefaultNetwork, network)
	case <-time.After(waitTimeout):
		t.Fatal("switch chain did not complete")
	}
	assert.Equal(t, domain.ChainID(999), h.bridge.ChainID())
}

func TestSwitchChainStrictRejectsUnsupportedChain(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{opts: []Option{WithStrictChainSwitch()}})

	done := make(chan error, 1)
	go func() {
		_, err := h.bridge.SwitchChain(context.Background(), 999)
		done <- err
	}()
	h.respond(t, `{"accounts":["0xabc"],"chainId":999}`)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrUnsupportedChain)
	case <-time.After(waitTimeout):
		t.Fatal("switch chain did not complete")
	}
}

func TestSwitchChainToSupportedNetwork(t *testing.T) {
	t.Parallel()

	store := filestore.NewStore(t.TempDir())
	seedState(t, store, "chrome", domain.ConnectionState{Accounts: []string{"0xabc"}, ChainID: 137})
	h := newHarness(t, harnessConfig{store: store})

	network, err := h.bridge.SwitchChain(context.Background(), 137)
	require.NoError(t, err)
	assert.Equal(t, domain.NetworkPolygon, network)
	assert.Equal(t, int32(0), h.opens.Load())
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), domain.BrowserProfile{ID: "chrome", Command: "browser"}, Dependencies{})
	require.ErrorIs(t, err, errNilOpener)
}

func TestNewIgnoresUnreadableState(t *testing.T) {
	t.Parallel()

	store := filestore.NewStore(t.TempDir())
	require.NoError(t, store.Put(context.Background(), StateKey("chrome"), "not = [valid"))
	h := newHarness(t, harnessConfig{store: store})

	assert.False(t, h.bridge.IsAuthorized())
	assert.Equal(t, PhaseUninitialized, h.bridge.Status().Phase)
}

func TestRoundTripUsesInjectedClockAndRequestIDs(t *testing.T) {
	t.Parallel()

	issuedAt := time.UnixMilli(1712345678901)
	clock := portmocks.NewMockClock(t)
	clock.EXPECT().Now().Return(issuedAt).Once()

	h := newHarness(t, harnessConfig{opts: []Option{
		WithClock(clock),
		WithRequestIDGenerator(func() string { return "req-fixed" }),
	}})

	done := h.connectAsync(ConnectParams{ChainID: 8453})
	req := h.respond(t, `{"accounts":["0xabc"],"chainId":"0x2105"}`)
	result := waitOutcome(t, done)

	require.NoError(t, result.err)
	assert.Equal(t, "req-fixed", req.RequestID)
	assert.True(t, issuedAt.Equal(req.Timestamp))
	assert.Equal(t, domain.ChainID(8453), result.state.ChainID)
}

func TestCloseDetachesFromDeliveriesAndAbandonsWaiters(t *testing.T) {
	t.Parallel()

	h := newHarness(t, harnessConfig{})

	done := h.connectAsync(ConnectParams{ChainID: 1})
	req := h.nextRequest(t)
	require.Equal(t, 1, h.hub.Subscribers())

	require.NoError(t, h.bridge.Close())
	require.NoError(t, h.bridge.Close())

	result := waitOutcome(t, done)
	require.ErrorIs(t, result.err, domain.ErrRequestAbandoned)
	assert.Equal(t, 0, h.hub.Subscribers())
	assert.Equal(t, 0, h.hub.Publish(domain.Delivery{RequestID: req.RequestID, Data: json.RawMessage(`{"accounts":["0xabc"]}`)}))

	_, err := h.bridge.Connect(context.Background(), ConnectParams{ChainID: 1})
	require.ErrorIs(t, err, ErrBridgeClosed)
	assert.Equal(t, int32(1), h.opens.Load())
}

func TestCloseKeepsPersistedConnection(t *testing.T) {
	t.Parallel()

	h := connectedHarness(t)
	require.NoError(t, h.bridge.Close())

	next := newHarness(t, harnessConfig{store: h.store})
	assert.True(t, next.bridge.IsAuthorized())
	assert.Equal(t, domain.ChainID(11155111), next.bridge.ChainID())
}
