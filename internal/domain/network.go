package domain

type Network struct {
	ChainID  ChainID
	Name     string
	Currency string
	RPCURL   string
}

var (
	NetworkEthereum = Network{ChainID: 1, Name: "Ethereum", Currency: "ETH", RPCURL: "https://cloudflare-eth.com"}
	NetworkSepolia  = Network{ChainID: 11155111, Name: "Sepolia", Currency: "ETH", RPCURL: "https://rpc.sepolia.org"}
	NetworkPolygon  = Network{ChainID: 137, Name: "Polygon", Currency: "POL", RPCURL: "https://polygon-rpc.com"}
	NetworkBase     = Network{ChainID: 8453, Name: "Base", Currency: "ETH", RPCURL: "https://mainnet.base.org"}
)

// DefaultNetwork is reported when a chain id matches no supported network.
var DefaultNetwork = NetworkEthereum

func SupportedNetworks() []Network {
	return []Network{NetworkEthereum, NetworkSepolia, NetworkPolygon, NetworkBase}
}

func LookupNetwork(id ChainID) (Network, bool) {
	for _, network := range SupportedNetworks() {
		if network.ChainID == id {
			return network, true
		}
	}
	return Network{}, false
}

// NetworkName returns the supported network name, or the numeric id.
func NetworkName(id ChainID) string {
	if network, ok := LookupNetwork(id); ok {
		return network.Name
	}
	return "chain " + id.String()
}
