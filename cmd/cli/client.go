package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"
)

type transferBody struct {
	Sender         string `json:"sender"`
	Receiver       string `json:"receiver"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type apiResult struct {
	StatusCode int
	Message    string
}

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Transfer posts a transfer. An empty key is replaced by a fresh ULID so
// repeated invocations are distinct transfers.
func (c *client) Transfer(ctx context.Context, body transferBody) (apiResult, error) {
	if body.IdempotencyKey == "" {
		body.IdempotencyKey = ulid.Make().String()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return apiResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/transfers", bytes.NewReader(payload))
	if err != nil {
		return apiResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// Balance fetches the balance of one account.
func (c *client) Balance(ctx context.Context, id string) (apiResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/accounts/"+url.PathEscape(id)+"/balance", nil)
	if err != nil {
		return apiResult{}, err
	}

	return c.do(req)
}

func (c *client) do(req *http.Request) (apiResult, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return apiResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	var body struct {
		Message string `json:"message"`
	}
	res := apiResult{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		res.Message = string(raw)
	} else {
		res.Message = body.Message
	}

	return res, nil
}
