package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/trackcast/internal/adapters/http/api"
	"github.com/okian/trackcast/internal/domain/types"
)

// Client calls a running prediction service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Ready checks GET /readyz.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: readiness status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// Predict posts one batch to /predict.
func (c *Client) Predict(ctx context.Context, in types.PredictRequest) (types.PredictResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return types.PredictResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return types.PredictResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if in.BatchID != "" {
		req.Header.Set(api.RequestIDHeader, in.BatchID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return types.PredictResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.PredictResponse{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &e)
		return types.PredictResponse{}, fmt.Errorf("predict: status %d: %s: %s", resp.StatusCode, e.Code, e.Message)
	}

	var out types.PredictResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return types.PredictResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}
