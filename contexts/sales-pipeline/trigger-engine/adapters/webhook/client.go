package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	domainerrors "adops/contexts/sales-pipeline/trigger-engine/domain/errors"
)

const signatureHeader = "X-Webhook-Signature"

// Client delivers signed JSON payloads. The signature is hex(hmac-sha256)
// over the exact request body using the per-rule secret. Non-2xx responses
// are delivery failures; there is no retry.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Deliver(ctx context.Context, url, secret string, body []byte) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrWebhookDelivery, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(signatureHeader, Sign(secret, body))

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrWebhookDelivery, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("%w: status %d from %s", domainerrors.ErrWebhookDelivery, response.StatusCode, url)
	}
	return nil
}

// Sign computes the body signature receivers verify against.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
