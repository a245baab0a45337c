// Package broadcast delivers completed deployment transactions to a network
// endpoint and answers chain-state queries used during fee execution.
package broadcast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/chaindeploy/internal/shell/vm"
)

// DefaultEndpoint is the public explorer endpoint used when none is configured.
const DefaultEndpoint = "https://api.explorer.chain.dev/v1"

// =============================================================================
// Sink Interface
// =============================================================================

// Sink accepts completed transactions for delivery to the network.
type Sink interface {
	// Broadcast delivers the transaction and returns the network's
	// acknowledgment (typically the transaction ID).
	Broadcast(ctx context.Context, tx *vm.Transaction) (string, error)
}

// =============================================================================
// HTTP Client
// =============================================================================

// Client broadcasts transactions over HTTP. It never retries: a delivery
// failure is terminal for the run.
type Client struct {
	endpoint   string
	network    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config holds broadcast client configuration.
type Config struct {
	Endpoint string
	Network  string
	Timeout  time.Duration
}

// NewClient creates a broadcast client for one endpoint and network.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		network:  cfg.Network,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Broadcast POSTs the transaction to {endpoint}/{network}/transaction/broadcast.
func (c *Client) Broadcast(ctx context.Context, tx *vm.Transaction) (string, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("marshal transaction: %w", err)
	}

	url := fmt.Sprintf("%s/%s/transaction/broadcast", c.endpoint, c.network)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create broadcast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("broadcast to %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	ack := strings.Trim(strings.TrimSpace(string(respBody)), `"`)
	c.logger.Debug("broadcast accepted",
		"program", tx.Deployment.Program,
		"status", resp.StatusCode,
		"ack", ack,
	)
	return ack, nil
}

// StateRoot GETs the latest state root from {endpoint}/{network}/stateRoot/latest.
// This satisfies vm.Query for fee execution.
func (c *Client) StateRoot(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/%s/stateRoot/latest", c.endpoint, c.network)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create state root request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return strings.Trim(strings.TrimSpace(string(respBody)), `"`), nil
}

// =============================================================================
// No-Op Sink (for development/testing)
// =============================================================================

// NoOpSink accepts every transaction without touching the network.
type NoOpSink struct{}

// NewNoOpSink creates a no-op broadcast sink.
func NewNoOpSink() *NoOpSink {
	return &NoOpSink{}
}

// Broadcast does nothing.
func (s *NoOpSink) Broadcast(ctx context.Context, tx *vm.Transaction) (string, error) {
	return "", nil
}
