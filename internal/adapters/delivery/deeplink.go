package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bnema/wallet-bridge/internal/domain"
)

const callbackHost = "wallet-connection"

// ParseCallbackURL decodes the deep link the OS dispatches when the browser
// finishes: {scheme}://wallet-connection?requestId=...&data={json}.
func ParseCallbackURL(raw string) (domain.Delivery, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("parse callback url: %w", err)
	}
	if parsed.Scheme == "" {
		return domain.Delivery{}, errors.New("callback url has no scheme")
	}

	target := parsed.Host
	if target == "" {
		target = strings.Trim(parsed.Opaque+parsed.Path, "/")
	}
	if target != callbackHost {
		return domain.Delivery{}, fmt.Errorf("unexpected callback target %q", target)
	}

	return deliveryFromQuery(parsed.Query())
}

func deliveryFromQuery(q url.Values) (domain.Delivery, error) {
	delivery := domain.Delivery{
		RequestID: q.Get("requestId"),
		Data:      json.RawMessage(q.Get("data")),
	}
	if err := validateDelivery(delivery); err != nil {
		return domain.Delivery{}, err
	}
	return delivery, nil
}

// Forward posts a delivery to a running delivery server, which is how a
// second process started by the OS for a callback link hands it over.
func Forward(ctx context.Context, client *http.Client, baseURL string, delivery domain.Delivery) error {
	if client == nil {
		client = http.DefaultClient
	}
	if err := validateDelivery(delivery); err != nil {
		return err
	}

	payload, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + CallbackPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("forward delivery: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("delivery server returned status %d", resp.StatusCode)
	}
	return nil
}
