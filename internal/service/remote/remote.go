// Package remote implements service.Service against a running chime daemon
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julianstephens/chime/internal/audio"
	"github.com/julianstephens/chime/internal/constants"
	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/service"
)

// Client talks JSON over HTTP to the daemon
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

var (
	_ service.Service        = (*Client)(nil)
	_ service.StatusReporter = (*Client)(nil)
)

// New returns a client for the daemon at baseURL. secret may be empty when
// the daemon does not require one
func New(baseURL, secret string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    &http.Client{Timeout: constants.RequestTimeoutSeconds * time.Second},
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		req.Header.Set(constants.SecretHeader, c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
		if body.Error == "" {
			body.Error = resp.Status
		}
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", service.ErrNotFound, body.Error)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", service.ErrInvalidInput, body.Error)
	default:
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, body.Error)
	}
}

func schedulePath(id string, rest ...string) string {
	return "/api/schedules/" + url.PathEscape(id) + strings.Join(rest, "")
}

// Health checks that the daemon is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) ListSchedules(ctx context.Context) ([]models.Record, error) {
	var records []models.Record
	if err := c.do(ctx, http.MethodGet, "/api/schedules", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) CreateSchedule(ctx context.Context, in models.WireScheduleInput) (models.Record, error) {
	var rec models.Record
	if err := c.do(ctx, http.MethodPost, "/api/schedules", in, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Client) UpdateSchedule(ctx context.Context, id string, patch models.WireSchedulePatch) (models.Record, error) {
	var rec models.Record
	if err := c.do(ctx, http.MethodPatch, schedulePath(id), patch, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Client) DeleteSchedule(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, schedulePath(id), nil, nil)
}

func (c *Client) ToggleScheduleEnabled(ctx context.Context, id string, enabled bool) (models.Record, error) {
	var rec models.Record
	body := map[string]bool{"enabled": enabled}
	if err := c.do(ctx, http.MethodPut, schedulePath(id, "/enabled"), body, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Client) PlayAudio(ctx context.Context, path string, volume int) error {
	body := map[string]any{"path": path, "volume": volume}
	return c.do(ctx, http.MethodPost, "/api/audio/play", body, nil)
}

func (c *Client) StopAudio(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/audio/stop", struct{}{}, nil)
}

func (c *Client) AudioStatus(ctx context.Context) (audio.Status, error) {
	var status audio.Status
	err := c.do(ctx, http.MethodGet, "/api/audio/status", nil, &status)
	return status, err
}

func (c *Client) GetSettings(ctx context.Context) (models.WireSettings, error) {
	var settings models.WireSettings
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, &settings)
	return settings, err
}

func (c *Client) UpdateSettings(ctx context.Context, patch models.WireSettingsPatch) (models.WireSettings, error) {
	var settings models.WireSettings
	err := c.do(ctx, http.MethodPatch, "/api/settings", patch, &settings)
	return settings, err
}

func (c *Client) SetLaunchAtLogin(ctx context.Context, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.do(ctx, http.MethodPut, "/api/settings/launch-at-login", body, nil)
}
