/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carverauto/fleetradar/pkg/models"
	"github.com/carverauto/fleetradar/pkg/version"
)

const (
	defaultClientTimeout = 10 * time.Second
	maxErrorBody         = 4 << 10
)

// Client reads the fleetradar core API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a client for baseURL. A non-positive timeout uses 10s.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Devices lists every known device.
func (c *Client) Devices(ctx context.Context) ([]models.DeviceSummary, error) {
	var resp models.DevicesResponse
	if err := c.get(ctx, "/api/metrics/devices", &resp); err != nil {
		return nil, err
	}

	return resp.Devices, nil
}

// Device returns the latest report for id.
func (c *Client) Device(ctx context.Context, id string) (*models.DeviceDetail, error) {
	var detail models.DeviceDetail
	if err := c.get(ctx, "/api/metrics/device/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}

	return &detail, nil
}

// Dashboard returns the consolidated fleet view.
func (c *Client) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var dash models.Dashboard
	if err := c.get(ctx, "/api/metrics/latest", &dash); err != nil {
		return nil, err
	}

	return &dash, nil
}

// Health calls the liveness endpoint.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var health models.HealthResponse
	if err := c.get(ctx, "/healthz", &health); err != nil {
		return nil, err
	}

	return &health, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("cli"))

	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errRequestFailed, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := strings.TrimSpace(string(raw))

	var apiErr models.ErrorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		message = apiErr.Message
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", errDeviceNotFound, message)
	}

	return fmt.Errorf("%w: %d %s", errRequestFailed, resp.StatusCode, message)
}

// IsNotFound reports whether err came from a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, errDeviceNotFound)
}
