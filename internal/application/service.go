package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/wallet-bridge/internal/bridge"
	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/bnema/wallet-bridge/internal/ports"
)

var errNilBridgeFactory = errors.New("bridge factory is nil")

// BridgeFactory builds the bridge for one browser profile.
type BridgeFactory func(ctx context.Context, profile domain.BrowserProfile) (*bridge.Bridge, error)

// Service owns one bridge per configured browser and routes calls to it by
// browser id.
type Service struct {
	profiles    ports.ProfileRepository
	credentials ports.CredentialStore
	newBridge   BridgeFactory

	mu      sync.Mutex
	bridges map[domain.BrowserID]*bridge.Bridge
}

func NewService(profiles ports.ProfileRepository, credentials ports.CredentialStore, newBridge BridgeFactory) (*Service, error) {
	if newBridge == nil {
		return nil, errNilBridgeFactory
	}

	return &Service{
		profiles:    profiles,
		credentials: credentials,
		newBridge:   newBridge,
		bridges:     make(map[domain.BrowserID]*bridge.Bridge),
	}, nil
}

func (s *Service) Connect(ctx context.Context, cmd ConnectCommand) (domain.ConnectionState, error) {
	b, err := s.bridgeFor(ctx, cmd.Browser)
	if err != nil {
		return domain.ConnectionState{}, err
	}

	state, err := b.Connect(ctx, bridge.ConnectParams{IsReconnecting: cmd.Reconnect, ChainID: cmd.ChainID})
	if err != nil {
		return domain.ConnectionState{}, fmt.Errorf("connect %s: %w", b.Name(), err)
	}

	return state, nil
}

// Disconnect drops the browser's connection and any credential it handed back.
func (s *Service) Disconnect(ctx context.Context, id domain.BrowserID) error {
	b, err := s.bridgeFor(ctx, id)
	if err != nil {
		return err
	}

	disconnectErr := b.Disconnect(ctx)
	var forgetErr error
	if s.credentials != nil {
		forgetErr = s.credentials.Forget(ctx, b.ID())
	}
	if err := errors.Join(disconnectErr, forgetErr); err != nil {
		return fmt.Errorf("disconnect %s: %w", b.Name(), err)
	}

	return nil
}

func (s *Service) Request(ctx context.Context, cmd RequestCommand) (json.RawMessage, error) {
	b, err := s.bridgeFor(ctx, cmd.Browser)
	if err != nil {
		return nil, err
	}

	result, err := b.Provider().Request(ctx, bridge.RequestArgs{Method: cmd.Method, Params: cmd.Params})
	if err != nil {
		return nil, fmt.Errorf("%s via %s: %w", cmd.Method, b.Name(), err)
	}

	return result, nil
}

func (s *Service) SwitchChain(ctx context.Context, cmd SwitchChainCommand) (domain.Network, error) {
	if cmd.ChainID == 0 {
		return domain.Network{}, errors.New("chain id is required")
	}

	b, err := s.bridgeFor(ctx, cmd.Browser)
	if err != nil {
		return domain.Network{}, err
	}

	network, err := b.SwitchChain(ctx, cmd.ChainID)
	if err != nil {
		return domain.Network{}, fmt.Errorf("switch %s to chain %s: %w", b.Name(), cmd.ChainID, err)
	}

	return network, nil
}

func (s *Service) GetStatus(ctx context.Context, id domain.BrowserID) (Status, error) {
	b, err := s.bridgeFor(ctx, id)
	if err != nil {
		return Status{}, err
	}

	return s.statusOf(ctx, b)
}

// PendingRequests lists the requests a browser has not answered yet.
func (s *Service) PendingRequests(ctx context.Context, id domain.BrowserID) ([]bridge.PendingRequest, error) {
	b, err := s.bridgeFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.PendingRequests(), nil
}

func (s *Service) GetStatusAll(ctx context.Context) ([]Status, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list browsers: %w", err)
	}

	statuses := make([]Status, 0, len(profiles))
	for _, profile := range profiles {
		b, err := s.bridgeForProfile(ctx, profile)
		if err != nil {
			return nil, err
		}
		status, err := s.statusOf(ctx, b)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

func (s *Service) ListBrowsers(ctx context.Context) ([]domain.BrowserProfile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list browsers: %w", err)
	}
	return profiles, nil
}

// SaveBrowser stores profile. A bridge already built for it is replaced on
// next use so command changes take effect.
func (s *Service) SaveBrowser(ctx context.Context, profile domain.BrowserProfile) error {
	profile.Normalize()
	if err := s.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("save browser %s: %w", profile.ID, err)
	}

	s.mu.Lock()
	evicted, ok := s.bridges[profile.ID]
	delete(s.bridges, profile.ID)
	s.mu.Unlock()

	if ok {
		if err := evicted.Close(); err != nil {
			return fmt.Errorf("close bridge %s: %w", profile.ID, err)
		}
	}
	return nil
}

// Close releases every bridge built so far.
func (s *Service) Close() error {
	s.mu.Lock()
	bridges := s.bridges
	s.bridges = make(map[domain.BrowserID]*bridge.Bridge)
	s.mu.Unlock()

	var errs []error
	for id, b := range bridges {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bridge %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) statusOf(ctx context.Context, b *bridge.Bridge) (Status, error) {
	snapshot := b.Status()
	status := Status{
		Browser:  snapshot.Profile,
		Phase:    snapshot.Phase,
		Accounts: snapshot.State.Accounts,
		ChainID:  snapshot.State.ChainID,
		Pending:  snapshot.Pending,
	}
	if network, ok := domain.LookupNetwork(snapshot.State.ChainID); ok {
		status.Network = &network
	}

	if s.credentials != nil {
		credential, err := s.credentials.Credential(ctx, b.ID())
		switch {
		case err == nil:
			status.HasCredential = !credential.Empty()
		case errors.Is(err, domain.ErrValueNotFound):
		default:
			return Status{}, fmt.Errorf("read credential for %s: %w", b.ID(), err)
		}
	}

	return status, nil
}

func (s *Service) bridgeFor(ctx context.Context, id domain.BrowserID) (*bridge.Bridge, error) {
	id = id.Normalized()

	s.mu.Lock()
	b, ok := s.bridges[id]
	s.mu.Unlock()
	if ok {
		return b, nil
	}

	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get browser %s: %w", id, err)
	}

	return s.bridgeForProfile(ctx, profile)
}

func (s *Service) bridgeForProfile(ctx context.Context, profile domain.BrowserProfile) (*bridge.Bridge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.bridges[profile.ID]; ok {
		return b, nil
	}

	b, err := s.newBridge(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("create bridge for %s: %w", profile.ID, err)
	}
	s.bridges[b.ID()] = b

	return b, nil
}
