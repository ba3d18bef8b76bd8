package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/wallet-bridge/internal/domain"
)

const methodChainID = "eth_chainId"

type RequestArgs struct {
	Method string
	Params []any
}

// Provider is the request entry point handed to wallet consumers.
type Provider struct {
	bridge *Bridge
}

func (b *Bridge) Provider() *Provider {
	return &Provider{bridge: b}
}

// Request relays an opaque provider call to the browser and returns the raw
// JSON result. eth_chainId is answered locally as a hex quantity. Any other
// method needs a connection and fails with domain.ErrNoExistingConnection
// without opening the browser.
func (p *Provider) Request(ctx context.Context, args RequestArgs) (json.RawMessage, error) {
	if args.Method == "" {
		return nil, fmt.Errorf("provider method is required")
	}
	state := p.bridge.snapshot()
	if args.Method == methodChainID {
		return json.Marshal(state.ChainID.Hex())
	}
	if !state.Connected() {
		return nil, fmt.Errorf("%s: %w", args.Method, domain.ErrNoExistingConnection)
	}

	data, err := p.bridge.roundTrip(ctx, DeepLinkRequest{
		Task:    TaskProvider,
		ChainID: state.ChainID,
		Method:  args.Method,
		Params:  args.Params,
	})
	if err != nil {
		return nil, err
	}

	result, err := domain.DecodeProviderResult(data)
	if err != nil {
		return nil, err
	}
	if deliveredErr := domain.DeliveredErrorFrom(result.Error); deliveredErr != nil {
		return nil, deliveredErr
	}
	if len(result.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return result.Result, nil
}
