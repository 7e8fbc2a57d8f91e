package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultAPIBaseURL is the platform's HTTP API root.
const DefaultAPIBaseURL = "https://discord.com/api/v10"

const defaultTimeout = 10 * time.Second

// Client installs application commands.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithTimeout bounds each registration request.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// NewClient creates a registration client with default configuration.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultAPIBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InstallGlobalCommands bulk-overwrites the application's global command
// set with the given manifest.
func (c *Client) InstallGlobalCommands(ctx context.Context, appID, botToken string, manifest []Command) error {
	payload, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encode command manifest: %w", err)
	}

	url := fmt.Sprintf("%s/applications/%s/commands", c.baseURL, appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+botToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("install commands: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("install commands: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
