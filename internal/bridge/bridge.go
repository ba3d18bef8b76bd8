// Package bridge lets the host act as a wallet provider while signing happens
// in an external browser. Each call becomes a deep-link round trip: the
// request is encoded into a URL opened in the browser, and the answer comes
// back as a delivery correlated by request id.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/bnema/wallet-bridge/internal/ports"
	"github.com/rs/zerolog"
)

type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseDisconnected  Phase = "disconnected"
	PhaseConnecting    Phase = "connecting"
	PhaseConnected     Phase = "connected"
)

var ErrBridgeClosed = errors.New("bridge is closed")

var (
	errNilOpener     = errors.New("url opener is nil")
	errNilHostInfo   = errors.New("host info provider is nil")
	errNilDeliveries = errors.New("delivery source is nil")
	errNilStore      = errors.New("key value store is nil")
)

// Dependencies are the host collaborators a bridge relays through.
// Credentials is optional.
type Dependencies struct {
	Opener      ports.URLOpener
	HostInfo    ports.HostInfoProvider
	Deliveries  ports.DeliverySource
	Store       ports.KeyValueStore
	Credentials ports.CredentialSink
}

func (d Dependencies) validate() error {
	switch {
	case d.Opener == nil:
		return errNilOpener
	case d.HostInfo == nil:
		return errNilHostInfo
	case d.Deliveries == nil:
		return errNilDeliveries
	case d.Store == nil:
		return errNilStore
	}
	return nil
}

type ConnectParams struct {
	IsReconnecting bool
	// ChainID is the chain to connect on; zero accepts whatever is cached.
	ChainID domain.ChainID
}

type Status struct {
	Profile domain.BrowserProfile
	Phase   Phase
	State   domain.ConnectionState
	Pending int
}

type Bridge struct {
	profile           domain.BrowserProfile
	deps              Dependencies
	clock             ports.Clock
	logger            zerolog.Logger
	timeout           time.Duration
	strictChainSwitch bool
	newRequestID      func() string

	table  *pendingTable
	router *router
	states *stateStore

	initMu      sync.Mutex
	unsubscribe func()
	closed      bool
	endpoint    *domain.HostEndpoint

	mu         sync.RWMutex
	state      domain.ConnectionState
	connecting int
}

// New builds the bridge for one browser profile and restores its persisted
// connection state. An unreadable state is logged and treated as empty.
func New(ctx context.Context, profile domain.BrowserProfile, deps Dependencies, opts ...Option) (*Bridge, error) {
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	b := &Bridge{
		profile:      profile,
		deps:         deps,
		clock:        ports.SystemClock{},
		logger:       zerolog.Nop(),
		timeout:      DefaultTimeout,
		newRequestID: newRequestID,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With().Str("bridge", string(profile.ID)).Logger()
	b.table = newPendingTable(b.logger)
	b.router = newRouter(b.table, b.logger)
	b.states = newStateStore(deps.Store, profile.ID)

	state, err := b.states.Load(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("ignoring unreadable connection state")
		state = domain.ConnectionState{}
	}
	b.state = state

	return b, nil
}

func (b *Bridge) ID() domain.BrowserID {
	return b.profile.ID
}

func (b *Bridge) Name() string {
	return b.profile.Name
}

func (b *Bridge) Icon() string {
	return b.profile.Icon
}

// Setup exists for connector compatibility; initialization is lazy.
func (b *Bridge) Setup(context.Context) error {
	return nil
}

func (b *Bridge) Connect(ctx context.Context, params ConnectParams) (domain.ConnectionState, error) {
	cached := b.snapshot()
	if cached.Connected() && (params.ChainID == 0 || params.ChainID == cached.ChainID) {
		return cached, nil
	}
	if params.IsReconnecting && !cached.Connected() {
		return domain.ConnectionState{}, domain.ErrNoExistingConnection
	}

	chainID := params.ChainID
	if chainID == 0 {
		chainID = cached.ChainID
	}
	if chainID == 0 {
		chainID = domain.DefaultNetwork.ChainID
	}

	b.setConnecting(1)
	defer b.setConnecting(-1)

	data, err := b.roundTrip(ctx, DeepLinkRequest{Task: TaskConnect, ChainID: chainID})
	if err != nil {
		return domain.ConnectionState{}, err
	}

	result, err := domain.DecodeConnectResult(data)
	if err != nil {
		return domain.ConnectionState{}, err
	}
	if deliveredErr := domain.DeliveredErrorFrom(result.Error); deliveredErr != nil {
		return domain.ConnectionState{}, deliveredErr
	}
	if len(result.Accounts) == 0 {
		return domain.ConnectionState{}, &domain.DeliveredError{Message: "wallet returned no accounts"}
	}

	state := domain.ConnectionState{Accounts: result.Accounts, ChainID: result.ChainID}
	if state.ChainID == 0 {
		state.ChainID = chainID
	}

	b.mu.Lock()
	b.state = state.Clone()
	b.mu.Unlock()

	if err := b.states.Save(ctx, state); err != nil {
		b.logger.Warn().Err(err).Msg("connection state not persisted")
	}
	if result.Auth != nil && !result.Auth.Empty() && b.deps.Credentials != nil {
		if err := b.deps.Credentials.SetCredential(ctx, b.profile.ID, *result.Auth); err != nil {
			b.logger.Warn().Err(err).Msg("wallet credential not stored")
		}
	}

	b.logger.Info().
		Int("accounts", len(state.Accounts)).
		Uint64("chain_id", uint64(state.ChainID)).
		Msg("wallet connected")

	return state, nil
}

// Disconnect abandons in-flight requests, forgets the connection and removes
// the persisted state.
func (b *Bridge) Disconnect(ctx context.Context) error {
	abandoned := b.table.Clear()

	b.mu.Lock()
	b.state = domain.ConnectionState{}
	b.mu.Unlock()

	if err := b.states.Remove(ctx); err != nil {
		return err
	}

	b.logger.Info().Int("abandoned", abandoned).Msg("wallet disconnected")
	return nil
}

// Close detaches the bridge from its delivery source and abandons in-flight
// requests. The persisted connection is kept for the next bridge on this
// browser; later round trips fail with ErrBridgeClosed.
func (b *Bridge) Close() error {
	b.initMu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.closed = true
	b.initMu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if abandoned := b.table.Clear(); abandoned > 0 {
		b.logger.Debug().Int("abandoned", abandoned).Msg("bridge closed with pending requests")
	}
	return nil
}

func (b *Bridge) Accounts() []string {
	return b.snapshot().Accounts
}

func (b *Bridge) ChainID() domain.ChainID {
	return b.snapshot().ChainID
}

func (b *Bridge) IsAuthorized() bool {
	return b.snapshot().Connected()
}

// SwitchChain reconnects on chainID and reports the matching network. A chain
// outside the supported set is reported as domain.DefaultNetwork unless the
// bridge was built WithStrictChainSwitch.
func (b *Bridge) SwitchChain(ctx context.Context, chainID domain.ChainID) (domain.Network, error) {
	state, err := b.Connect(ctx, ConnectParams{ChainID: chainID})
	if err != nil {
		return domain.Network{}, err
	}

	network, ok := domain.LookupNetwork(state.ChainID)
	if ok {
		return network, nil
	}
	if b.strictChainSwitch {
		return domain.Network{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedChain, state.ChainID)
	}

	b.logger.Warn().
		Uint64("chain_id", uint64(state.ChainID)).
		Str("fallback", domain.DefaultNetwork.Name).
		Msg("connected chain is not a supported network")
	return domain.DefaultNetwork, nil
}

func (b *Bridge) OnAccountsChanged([]string) {}

func (b *Bridge) OnChainChanged(string) {}

func (b *Bridge) OnConnect() {}

func (b *Bridge) OnDisconnect() {}

func (b *Bridge) Status() Status {
	b.mu.RLock()
	state := b.state.Clone()
	connecting := b.connecting > 0
	b.mu.RUnlock()

	b.initMu.Lock()
	initialized := b.endpoint != nil
	b.initMu.Unlock()

	phase := PhaseUninitialized
	switch {
	case connecting:
		phase = PhaseConnecting
	case state.Connected():
		phase = PhaseConnected
	case initialized:
		phase = PhaseDisconnected
	}

	return Status{
		Profile: b.profile,
		Phase:   phase,
		State:   state,
		Pending: b.table.Len(),
	}
}

// PendingRequests lists the round trips still waiting on the browser.
func (b *Bridge) PendingRequests() []PendingRequest {
	return b.table.Snapshot()
}

func (b *Bridge) snapshot() domain.ConnectionState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.state.Clone()
}

func (b *Bridge) setConnecting(delta int) {
	b.mu.Lock()
	b.connecting += delta
	b.mu.Unlock()
}

// ensureInitialized subscribes the router and resolves the host endpoint the
// first time a round trip needs them.
func (b *Bridge) ensureInitialized(ctx context.Context) (domain.HostEndpoint, error) {
	b.initMu.Lock()
	defer b.initMu.Unlock()

	if b.closed {
		return domain.HostEndpoint{}, ErrBridgeClosed
	}
	if b.unsubscribe == nil {
		unsubscribe, err := b.deps.Deliveries.Subscribe(ctx, b.router.Deliver)
		if err != nil {
			return domain.HostEndpoint{}, fmt.Errorf("subscribe to wallet deliveries: %w", err)
		}
		b.unsubscribe = unsubscribe
	}

	if b.endpoint == nil {
		endpoint, err := b.deps.HostInfo.GetInfo(ctx)
		if err != nil {
			return domain.HostEndpoint{}, fmt.Errorf("resolve host endpoint: %w", err)
		}
		if err := endpoint.Validate(); err != nil {
			return domain.HostEndpoint{}, fmt.Errorf("resolve host endpoint: %w", err)
		}
		b.endpoint = &endpoint
	}

	return *b.endpoint, nil
}

// roundTrip encodes req, registers it, opens it in the browser and waits for
// the delivery. Encoding happens before registration so a request that was
// never dispatched never occupies the table.
func (b *Bridge) roundTrip(ctx context.Context, req DeepLinkRequest) (json.RawMessage, error) {
	endpoint, err := b.ensureInitialized(ctx)
	if err != nil {
		return nil, err
	}

	req.RequestID = b.newRequestID()
	req.Timestamp = b.clock.Now()
	req.CallbackScheme = endpoint.Scheme

	link, err := BuildRequestURL(endpoint, req)
	if err != nil {
		return nil, err
	}

	entry, err := b.table.Register(req.RequestID, req.Timestamp, b.timeout)
	if err != nil {
		return nil, err
	}

	logger := b.logger.With().Str("request_id", req.RequestID).Str("task", string(req.Task)).Logger()
	if req.Method != "" {
		logger = logger.With().Str("method", req.Method).Logger()
	}

	if err := b.deps.Opener.Open(ctx, link); err != nil {
		b.table.Cancel(req.RequestID, err)
		return nil, fmt.Errorf("open %s: %w", b.profile.Name, err)
	}
	logger.Debug().Msg("wallet request dispatched")

	data, err := b.table.await(ctx, entry)
	if err != nil {
		logger.Debug().Err(err).Msg("wallet request failed")
		return nil, err
	}
	return data, nil
}
