package synapse

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// Client dispatches collect requests to miner axons. Each call carries its own
// context; callers bound it with the per-task timeout.
type Client struct {
	httpClient *resty.Client
	cfg        Config
}

func NewClient(cfg Config) *Client {
	cli := resty.New()
	// No resty-level timeout: per-call contexts own the deadline.
	return &Client{httpClient: cli, cfg: cfg}
}

// Collect sends one task to a miner axon at url and decodes its reply.
func (c *Client) Collect(ctx context.Context, url string, auth AuthHeaders, req CollectRequest) (CollectResponse, error) {
	var resp CollectResponse
	b, err := sonic.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("marshal collect request: %w", err)
	}

	r := c.httpClient.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Hotkey", auth.Hotkey).
		SetHeader("X-Signature", auth.Signature).
		SetHeader("X-Timestamp", auth.Timestamp).
		SetBody(b)

	restyResp, err := r.Post(url + "/collect")
	if err != nil {
		return resp, err
	}

	if restyResp.StatusCode() >= 400 {
		return resp, fmt.Errorf("bad status %d: %s", restyResp.StatusCode(), string(restyResp.Body()))
	}

	data := restyResp.Body()
	if strings.Contains(strings.ToLower(restyResp.Header().Get("Content-Encoding")), "zstd") {
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return resp, fmt.Errorf("zstd: failed to create reader: %w", err)
		}
		defer zr.Close()

		out, err := io.ReadAll(zr)
		if err != nil {
			return resp, fmt.Errorf("zstd: failed to decompress response: %w", err)
		}
		data = out
	}

	if err := sonic.Unmarshal(data, &resp); err != nil {
		log.Debug().Str("url", url).Msg("unparseable collect response body")
		return resp, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp, nil
}
