package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ChainID is an EVM chain identifier. Zero means "unspecified".
type ChainID uint64

func (c ChainID) Hex() string {
	return hexutil.EncodeUint64(uint64(c))
}

func (c ChainID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// ParseChainID accepts a decimal ("137") or 0x-prefixed hex ("0x89") chain id.
func ParseChainID(raw string) (ChainID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("chain id is empty")
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		// Wallets send padded quantities such as "0x01", which hexutil rejects.
		value, err := strconv.ParseUint(trimmed[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("parse chain id %q: %w", raw, err)
		}
		return ChainID(value), nil
	}

	value, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse chain id %q: %w", raw, err)
	}
	return ChainID(value), nil
}

// UnmarshalJSON decodes a JSON number, a decimal string or a hex quantity.
func (c *ChainID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = 0
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		parsed, err := ParseChainID(asString)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var asNumber uint64
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return fmt.Errorf("decode chain id: %w", err)
	}
	*c = ChainID(asNumber)
	return nil
}

type ConnectionState struct {
	Accounts []string `json:"accounts"`
	ChainID  ChainID  `json:"chainId"`
}

// Connected reports whether at least one account is authorized.
func (s ConnectionState) Connected() bool {
	return len(s.Accounts) > 0
}

func (s ConnectionState) Clone() ConnectionState {
	accounts := make([]string, len(s.Accounts))
	copy(accounts, s.Accounts)
	return ConnectionState{Accounts: accounts, ChainID: s.ChainID}
}

// Credential is the authentication material a browser hands back on connect.
type Credential struct {
	Address      string `json:"address"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Role         string `json:"role,omitempty"`
}

func (c Credential) Empty() bool {
	return c.Address == "" && c.Token == "" && c.RefreshToken == "" && c.Role == ""
}

// HostEndpoint is the runtime scheme/port pair used to build outbound links.
type HostEndpoint struct {
	Scheme string `json:"scheme"`
	Port   int    `json:"port"`
}

func (e HostEndpoint) Validate() error {
	if strings.TrimSpace(e.Scheme) == "" {
		return fmt.Errorf("host endpoint scheme is empty")
	}
	if e.Port <= 0 || e.Port > 65535 {
		return fmt.Errorf("host endpoint port %d out of range", e.Port)
	}
	return nil
}
