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

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carverauto/fleetradar/pkg/models"
	"github.com/carverauto/fleetradar/pkg/natsutil"
	"github.com/carverauto/fleetradar/pkg/version"
)

const (
	ingestPath         = "/api/metrics/ingest"
	apiKeyHeader       = "X-API-Key"
	defaultSendTimeout = 10 * time.Second
	maxErrorBodyBytes  = 4 << 10
)

var errIngestRejected = errors.New("ingest rejected")

// HTTPSender posts reports to the core ingest endpoint.
type HTTPSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPSender builds a sender for backendURL. A URL that already ends in
// the ingest path is accepted as is.
func NewHTTPSender(backendURL, apiKey string, client *http.Client) *HTTPSender {
	if client == nil {
		client = &http.Client{Timeout: defaultSendTimeout}
	}

	base := strings.TrimRight(backendURL, "/")
	base = strings.TrimSuffix(base, ingestPath)

	return &HTTPSender{
		endpoint: base + ingestPath,
		apiKey:   apiKey,
		client:   client,
	}
}

// Endpoint is the URL reports are posted to.
func (s *HTTPSender) Endpoint() string {
	return s.endpoint
}

// Send implements Sender. Any status other than 200 is an error carrying the
// core's error message.
func (s *HTTPSender) Send(ctx context.Context, report *models.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("agent"))

	if s.apiKey != "" {
		req.Header.Set(apiKeyHeader, s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", s.endpoint, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var apiErr models.ErrorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("%w: %d %s", errIngestRejected, resp.StatusCode, apiErr.Message)
	}

	return fmt.Errorf("%w: %d %s", errIngestRejected, resp.StatusCode, strings.TrimSpace(string(raw)))
}

// reportPublisher is satisfied by *natsutil.ReportPublisher.
type reportPublisher interface {
	Publish(ctx context.Context, report *models.Report) error
}

// NATSSender publishes reports to per-device NATS subjects.
type NATSSender struct {
	publisher reportPublisher
}

// NewNATSSender wraps a connection publisher under subject prefix.
func NewNATSSender(conn natsutil.MessagePublisher, prefix string) *NATSSender {
	return &NATSSender{publisher: natsutil.NewReportPublisher(conn, prefix)}
}

// Send implements Sender.
func (s *NATSSender) Send(ctx context.Context, report *models.Report) error {
	return s.publisher.Publish(ctx, report)
}
