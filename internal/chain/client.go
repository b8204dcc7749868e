package chain

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/subnet42/harvester/internal/config"
)

// Sidecar is a client wrapper for the chain sidecar HTTP API.
type Sidecar struct {
	client  *resty.Client
	BaseURL string
}

// NewSidecar creates a new sidecar client using the provided environment configuration.
func NewSidecar(cfg *config.SidecarEnvConfig) (*Sidecar, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	url := fmt.Sprintf("http://%s:%s", cfg.SidecarHost, cfg.SidecarPort)

	client := resty.New().
		SetBaseURL(url).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(15 * time.Second)

	return &Sidecar{
		client:  client,
		BaseURL: url,
	}, nil
}

func postJSON[T any](client *resty.Client, path string, body any) (ChainResponse[T], error) {
	var result ChainResponse[T]
	resp, err := client.R().
		SetBody(body).
		SetResult(&result).
		Post(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("post request failed")
		return ChainResponse[T]{}, fmt.Errorf("post %s: %w", path, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Str("path", path).Msg("post non-2xx")
		return ChainResponse[T]{}, fmt.Errorf("request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		log.Error().Interface("error", result.Error).Str("path", path).Msg("response contains error")
		return ChainResponse[T]{}, fmt.Errorf("response error: %v", result.Error)
	}
	return result, nil
}

func getJSON[T any](client *resty.Client, path string) (ChainResponse[T], error) {
	var result ChainResponse[T]
	resp, err := client.R().
		SetResult(&result).
		Get(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("get request failed")
		return ChainResponse[T]{}, fmt.Errorf("get %s: %w", path, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Str("path", path).Msg("get non-2xx")
		return ChainResponse[T]{}, fmt.Errorf("request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		log.Error().Interface("error", result.Error).Str("path", path).Msg("response contains error")
		return ChainResponse[T]{}, fmt.Errorf("response error: %v", result.Error)
	}
	return result, nil
}

// GetMetagraph fetches the subnet metagraph for the given netuid.
func (s *Sidecar) GetMetagraph(netuid int) (MetagraphResponse, error) {
	path := fmt.Sprintf("/chain/subnet-metagraph/%d", netuid)
	return getJSON[Metagraph](s.client, path)
}

// GetLatestBlock retrieves the latest block details from the chain.
func (s *Sidecar) GetLatestBlock() (LatestBlockResponse, error) {
	return getJSON[LatestBlock](s.client, "/chain/latest-block")
}

// SetWeights submits the subnet weights and returns the extrinsic hash response.
func (s *Sidecar) SetWeights(params SetWeightsParams) (ExtrinsicHashResponse, error) {
	return postJSON[string](s.client, "/chain/set-weights", params)
}

// SignMessage signs an arbitrary message with the node's keypair.
func (s *Sidecar) SignMessage(params SignMessageParams) (SignMessageResponse, error) {
	return postJSON[SignMessage](s.client, "/substrate/sign-message/sign", params)
}

// GetKeyringPair returns information about the node's keyring pair.
func (s *Sidecar) GetKeyringPair() (KeyringPairInfoResponse, error) {
	return getJSON[KeyringPairInfo](s.client, "/substrate/keyring-pair-info")
}
