package hostinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bnema/wallet-bridge/internal/adapters/delivery"
	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/bnema/wallet-bridge/internal/ports"
)

const maxInfoResponseBytes = 64 << 10

// Client asks a running delivery server which scheme and port outbound
// links should carry.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ ports.HostInfoProvider = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: httpClient}
}

func (c *Client) GetInfo(ctx context.Context) (domain.HostEndpoint, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return domain.HostEndpoint{}, errors.New("host info base url is required")
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + delivery.InfoPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.HostEndpoint{}, fmt.Errorf("create host info request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return domain.HostEndpoint{}, fmt.Errorf("query host info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.HostEndpoint{}, fmt.Errorf("host info returned status %d", resp.StatusCode)
	}

	var info domain.HostEndpoint
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxInfoResponseBytes)).Decode(&info); err != nil {
		return domain.HostEndpoint{}, fmt.Errorf("decode host info: %w", err)
	}
	if err := info.Validate(); err != nil {
		return domain.HostEndpoint{}, err
	}

	return info, nil
}

// Static serves a fixed endpoint, for hosts that already know their own
// scheme and port.
type Static domain.HostEndpoint

var _ ports.HostInfoProvider = Static{}

func (s Static) GetInfo(ctx context.Context) (domain.HostEndpoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.HostEndpoint{}, err
	}
	return domain.HostEndpoint(s), nil
}
