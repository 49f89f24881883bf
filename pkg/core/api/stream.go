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

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/fleetradar/pkg/models"
)

const (
	defaultStreamInterval = 5 * time.Second
	streamWriteTimeout    = 10 * time.Second
)

// Stream frame types.
const (
	StreamMessageDashboard = "dashboard"
	StreamMessageError     = "error"
)

// StreamMessage is a frame sent over the dashboard websocket.
type StreamMessage struct {
	Type      string            `json:"type"`
	Dashboard *models.Dashboard `json:"dashboard,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// WithStreamInterval sets how often the dashboard stream pushes a frame.
func WithStreamInterval(d time.Duration) func(server *APIServer) {
	return func(server *APIServer) {
		if d > 0 {
			server.streamInterval = d
		}
	}
}

// @Summary Stream the fleet dashboard
// @Description Upgrades to a websocket and pushes the dashboard on a fixed interval.
// @Tags Metrics
// @Router /api/metrics/stream [get]
func (s *APIServer) handleStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkWebSocketOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Str("origin", r.Header.Get("Origin")).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	defer func() { _ = conn.Close() }()

	// The server read timeout still applies to the hijacked connection.
	_ = conn.SetReadDeadline(time.Time{})

	s.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("Dashboard stream opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.drainClient(conn, cancel)

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		if err := s.sendDashboard(conn); err != nil {
			s.logger.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Dashboard stream closed")

			return
		}

		select {
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(streamWriteTimeout))

			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteTimeout))

			return
		case <-ticker.C:
		}
	}
}

func (s *APIServer) sendDashboard(conn *websocket.Conn) error {
	msg := StreamMessage{Type: StreamMessageDashboard, Timestamp: time.Now().UTC()}

	if s.querier == nil {
		msg.Type = StreamMessageError
		msg.Error = msgInternalServerError
	} else {
		msg.Dashboard = s.querier.Dashboard()
	}

	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}

	return conn.WriteJSON(msg)
}

// drainClient reads until the peer goes away. Client frames are ignored.
func (*APIServer) drainClient(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// checkWebSocketOrigin applies the CORS allow list to browser upgrades.
// Requests without an Origin header are not from a browser and pass.
func (s *APIServer) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range s.corsConfig.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}
