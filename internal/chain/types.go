// Package chain provides a client for the chain sidecar service, which fronts
// the ledger substrate: metagraph reads, weight submission, and key operations.
package chain

// Client is the interface the rest of the node uses to talk to the ledger.
type Client interface {
	GetMetagraph(netuid int) (MetagraphResponse, error)
	GetLatestBlock() (LatestBlockResponse, error)
	SetWeights(params SetWeightsParams) (ExtrinsicHashResponse, error)
	SignMessage(params SignMessageParams) (SignMessageResponse, error)
	GetKeyringPair() (KeyringPairInfoResponse, error)
}

// ChainResponse is the sidecar's standard response envelope.
type ChainResponse[T any] struct {
	StatusCode int            `json:"statusCode"`
	Success    bool           `json:"success"`
	Data       T              `json:"data"`
	Error      map[string]any `json:"error"`
}

type (
	MetagraphResponse       = ChainResponse[Metagraph]
	LatestBlockResponse     = ChainResponse[LatestBlock]
	KeyringPairInfoResponse = ChainResponse[KeyringPairInfo]
	SignMessageResponse     = ChainResponse[SignMessage]
	ExtrinsicHashResponse   = ChainResponse[string]
)

// Metagraph is the subnet's registered peer roster and stake snapshot.
type Metagraph struct {
	Netuid           int        `json:"netuid"`
	Name             string     `json:"name"`
	Block            int        `json:"block"`
	Tempo            int        `json:"tempo"`
	WeightsVersion   int        `json:"weightsVersion"`
	WeightsRateLimit int        `json:"weightsRateLimit"`
	NumUids          int        `json:"numUids"`
	MaxUids          int        `json:"maxUids"`
	Hotkeys          []string   `json:"hotkeys"`
	Coldkeys         []string   `json:"coldkeys"`
	Axons            []AxonInfo `json:"axons"`
	Active           []bool     `json:"active"`
	LastUpdate       []int      `json:"lastUpdate"`
	AlphaStake       []float64  `json:"alphaStake"`
	TaoStake         []float64  `json:"taoStake"`
	TotalStake       []float64  `json:"totalStake"`
}

type AxonInfo struct {
	Block    int    `json:"block"`
	Version  int    `json:"version"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	IPType   int    `json:"ipType"`
	Protocol int    `json:"protocol"`
}

type LatestBlock struct {
	ParentHash  string `json:"parentHash"`
	BlockNumber int    `json:"blockNumber"`
	StateRoot   string `json:"stateRoot"`
}

type KeyringPair struct {
	Address  string `json:"address"`
	IsLocked bool   `json:"isLocked"`
	Type     string `json:"type"`
}

type KeyringPairInfo struct {
	KeyringPair   KeyringPair `json:"keyringPair"`
	WalletColdkey string      `json:"walletColdkey"`
}

type SetWeightsParams struct {
	Netuid     int   `json:"netuid"`
	Dests      []int `json:"dests"`
	Weights    []int `json:"weights"`
	VersionKey int   `json:"versionKey"`
}

type SignMessageParams struct {
	Message string `json:"message"`
}

type SignMessage struct {
	Signature string `json:"signature"`
}
