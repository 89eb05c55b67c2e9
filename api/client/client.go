// Package client is the Go consumer of the settings service, used by
// playback-side tooling to read the current record and follow changes.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/aouyang1/tvsettings/api/models"
	"github.com/aouyang1/tvsettings/settings"
)

type SettingsClient struct {
	baseURL string
	client  *http.Client
}

func NewSettingsClient(baseURL string) *SettingsClient {
	return &SettingsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// GetSettings retrieves the current settings record.
func (sc *SettingsClient) GetSettings(ctx context.Context) (*settings.Record, error) {
	var record settings.Record
	if err := sc.getJSON(ctx, "/settings", &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetTVURL retrieves the playback page address the service advertises.
func (sc *SettingsClient) GetTVURL(ctx context.Context) (string, error) {
	var resp models.TVURLResponse
	if err := sc.getJSON(ctx, "/tv/url", &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (sc *SettingsClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sc.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// SubscribeChanges connects to the change feed and invokes fn with each
// record pushed by the service, starting with the current one. It blocks
// until the context is canceled or the connection drops.
func (sc *SettingsClient) SubscribeChanges(ctx context.Context, fn func(*settings.Record)) error {
	wsURL := strings.Replace(sc.baseURL, "http", "ws", 1) + "/ws"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to change feed: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var record settings.Record
		if err := conn.ReadJSON(&record); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("change feed closed: %w", err)
		}
		fn(&record)
	}
}
