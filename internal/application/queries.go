package application

import (
	"github.com/bnema/wallet-bridge/internal/bridge"
	"github.com/bnema/wallet-bridge/internal/domain"
)

type Status struct {
	Browser       domain.BrowserProfile
	Phase         bridge.Phase
	Accounts      []string
	ChainID       domain.ChainID
	Network       *domain.Network
	Pending       int
	HasCredential bool
}

func (s Status) Connected() bool {
	return len(s.Accounts) > 0
}
