// Package source is the adapter for the CoST transparency registry API.
// Fetch failures are logged and reported as empty results: an unreachable
// registry means "no changes this cycle", never an aborted sync.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second, // bulk project payloads are large
		},
		logger: logger,
	}
}

// FetchProjects retrieves the full public project list. Returns an empty
// slice on any failure.
func (c *Client) FetchProjects(ctx context.Context) []json.RawMessage {
	var body struct {
		Projects []json.RawMessage `json:"projects"`
	}
	if err := c.getJSON(ctx, "/getPublicProjects", &body); err != nil {
		c.logger.Error("Failed to fetch public projects", zap.Error(err))
		return nil
	}
	return body.Projects
}

// FetchLocations retrieves the location catalog. Returns an empty slice on
// any failure.
func (c *Client) FetchLocations(ctx context.Context) []Location {
	var locations []Location
	if err := c.getJSON(ctx, "/getLocations", &locations); err != nil {
		c.logger.Error("Failed to fetch locations", zap.Error(err))
		return nil
	}
	return locations
}

type Location struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
