// Package mono is the HTTP client for the direct-debit mandate provider.
package mono

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lending-backoffice/internal/domain/debit"
)

const Name = "mono"

var ErrMalformedResponse = errors.New("provider returned a malformed response")

// Error is a non-2xx provider response.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider request failed with status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the same request may succeed later.
func (e *Error) Retryable() bool {
	return e.StatusCode >= 500 ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests
}

type Client struct {
	baseURL string
	secret  string
	client  *http.Client
}

func New(baseURL, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) configured() bool { return c.baseURL != "" && c.secret != "" }

// Charge debits amount_minor from the mandate. The idempotency key is sent
// as-is so the provider collapses repeated attempts for the same item.
func (c *Client) Charge(ctx context.Context, req debit.ChargeRequest) (*debit.ChargeResult, error) {
	if !c.configured() {
		return nil, debit.ErrProviderNotConfigured
	}
	endpoint := fmt.Sprintf("/mandates/%s/charge", url.PathEscape(req.MandateReference))
	headers := map[string]string{"Idempotency-Key": req.IdempotencyKey}

	var out map[string]any
	if err := c.makeRequest(ctx, endpoint, headers, map[string]int64{"amount": req.AmountMinor}, &out); err != nil {
		return nil, err
	}

	ref := firstString(out, "id", "reference")
	if ref == "" {
		return nil, fmt.Errorf("%w: no transaction id", ErrMalformedResponse)
	}
	return &debit.ChargeResult{Reference: ref}, nil
}

func (c *Client) CreateMandateLink(ctx context.Context, req debit.MandateLinkRequest) (string, error) {
	if !c.configured() {
		return "", debit.ErrProviderNotConfigured
	}
	payload := map[string]any{
		"customer": map[string]string{"email": req.Email, "name": req.Name},
	}

	var out map[string]any
	if err := c.makeRequest(ctx, "/mandates/link", nil, payload, &out); err != nil {
		return "", err
	}

	link := firstString(out, "link", "url")
	if link == "" {
		return "", fmt.Errorf("%w: no mandate link", ErrMalformedResponse)
	}
	return link, nil
}

func (c *Client) makeRequest(ctx context.Context, endpoint string, headers map[string]string, payload, dst any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &Error{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// firstString returns the first non-empty key, accepting string or numeric
// ids. Numbers keep their literal digits.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}
