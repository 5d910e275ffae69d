package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"picvault/internal/store"
)

// Client talks to a running picvault daemon.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the daemon at bind (host:port or URL).
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimSuffix(base, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Stats fetches the aggregate upload statistics.
func (c *Client) Stats(ctx context.Context) (store.StatsSnapshot, error) {
	var snap store.StatsSnapshot
	if err := c.get(ctx, "/api/stats", &snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// ListImages fetches the upload ledger, newest first. limit <= 0 fetches
// everything.
func (c *Client) ListImages(ctx context.Context, limit int) (ImageList, error) {
	path := "/api/images"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var list ImageList
	if err := c.get(ctx, path, &list); err != nil {
		return list, err
	}
	return list, nil
}

// GetImage fetches one upload by id.
func (c *Client) GetImage(ctx context.Context, id string) (Image, error) {
	var img Image
	if err := c.get(ctx, "/api/images/"+url.PathEscape(id), &img); err != nil {
		return img, err
	}
	return img, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call daemon: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if env.Status != statusSuccess {
		message := env.Error
		if message == "" {
			message = fmt.Sprintf("daemon returned %d", resp.StatusCode)
		}
		return fmt.Errorf("%s", message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
