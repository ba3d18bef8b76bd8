package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/bnema/wallet-bridge/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const currentStateSchemaVersion = 1

type stateSchema struct {
	Version  int      `toml:"version"`
	Accounts []string `toml:"accounts"`
	ChainID  uint64   `toml:"chain_id"`
}

// StateKey is the store key holding a browser's connection state.
func StateKey(id domain.BrowserID) string {
	return fmt.Sprintf("wallet-bridge/%s/connection", id)
}

type stateStore struct {
	kv  ports.KeyValueStore
	key string
}

func newStateStore(kv ports.KeyValueStore, id domain.BrowserID) *stateStore {
	return &stateStore{kv: kv, key: StateKey(id)}
}

// Load returns the persisted state, or an empty state when nothing is stored.
func (s *stateStore) Load(ctx context.Context) (domain.ConnectionState, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrValueNotFound) {
			return domain.ConnectionState{}, nil
		}
		return domain.ConnectionState{}, fmt.Errorf("load connection state: %w", err)
	}

	state, err := decodeState(raw)
	if err != nil {
		return domain.ConnectionState{}, err
	}
	return state, nil
}

func (s *stateStore) Save(ctx context.Context, state domain.ConnectionState) error {
	encoded, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, s.key, encoded); err != nil {
		return fmt.Errorf("save connection state: %w", err)
	}
	return nil
}

func (s *stateStore) Remove(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("remove connection state: %w", err)
	}
	return nil
}

func encodeState(state domain.ConnectionState) (string, error) {
	accounts := state.Accounts
	if accounts == nil {
		accounts = []string{}
	}
	data, err := toml.Marshal(stateSchema{
		Version:  currentStateSchemaVersion,
		Accounts: accounts,
		ChainID:  uint64(state.ChainID),
	})
	if err != nil {
		return "", fmt.Errorf("encode connection state: %w", err)
	}
	return string(data), nil
}

func decodeState(raw string) (domain.ConnectionState, error) {
	var schema stateSchema
	if err := toml.Unmarshal([]byte(raw), &schema); err != nil {
		return domain.ConnectionState{}, fmt.Errorf("decode connection state: %w", err)
	}
	if schema.Version > currentStateSchemaVersion {
		return domain.ConnectionState{}, fmt.Errorf("unsupported connection state schema version %d (current %d)", schema.Version, currentStateSchemaVersion)
	}

	state := domain.ConnectionState{ChainID: domain.ChainID(schema.ChainID)}
	if len(schema.Accounts) > 0 {
		state.Accounts = schema.Accounts
	}
	return state, nil
}
