package application

import "github.com/bnema/wallet-bridge/internal/domain"

type ConnectCommand struct {
	Browser   domain.BrowserID
	ChainID   domain.ChainID
	Reconnect bool
}

type RequestCommand struct {
	Browser domain.BrowserID
	Method  string
	Params  []any
}

type SwitchChainCommand struct {
	Browser domain.BrowserID
	ChainID domain.ChainID
}
