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

// Package api provides the HTTP API server for fleetradar
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	srHttp "github.com/carverauto/fleetradar/pkg/http"
	"github.com/carverauto/fleetradar/pkg/ledger"
	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
	"github.com/carverauto/fleetradar/pkg/version"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultMaxReportBytes  = 1 << 20
	defaultMetricsPath     = "/metrics"
	transportHTTP          = "http"
	msgInvalidPayload      = "Invalid payload, device_id required"
	msgInvalidJSON         = "Invalid JSON payload"
	msgPayloadTooLarge     = "Payload too large"
	msgDeviceNotFound      = "Device not found"
	msgInternalServerError = "Internal server error"
)

// Rejection reasons passed to the IngestObserver.
const (
	ReasonInvalidJSON = "invalid_json"
	ReasonValidation  = "validation"
	ReasonTooLarge    = "too_large"
	ReasonInternal    = "internal"
)

// APIServer exposes the ledger and the fleet views over HTTP.
type APIServer struct {
	mu       sync.Mutex
	server   *http.Server
	done     chan struct{}
	stopOnce sync.Once

	router         *mux.Router
	corsConfig     models.CORSConfig
	recorder       ReportRecorder
	querier        FleetQuerier
	observer       IngestObserver
	logger         logger.Logger
	apiKey         string
	maxReportBytes int64
	metricsHandler http.Handler
	metricsPath    string
	tracing        bool
	streamInterval time.Duration
}

// NewAPIServer creates a new API server instance with the given configuration
func NewAPIServer(config models.CORSConfig, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		done:           make(chan struct{}),
		router:         mux.NewRouter(),
		corsConfig:     config,
		logger:         logger.NewTestLogger(),
		maxReportBytes: defaultMaxReportBytes,
		metricsPath:    defaultMetricsPath,
		streamInterval: defaultStreamInterval,
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

// WithLogger sets the logger used for request and error logging.
func WithLogger(log logger.Logger) func(server *APIServer) {
	return func(server *APIServer) {
		if log != nil {
			server.logger = log
		}
	}
}

// WithRecorder sets the ingest target.
func WithRecorder(r ReportRecorder) func(server *APIServer) {
	return func(server *APIServer) {
		server.recorder = r
	}
}

// WithQuerier sets the source of the read views.
func WithQuerier(q FleetQuerier) func(server *APIServer) {
	return func(server *APIServer) {
		server.querier = q
	}
}

// WithIngestObserver reports ingest outcomes, typically to Prometheus.
func WithIngestObserver(o IngestObserver) func(server *APIServer) {
	return func(server *APIServer) {
		server.observer = o
	}
}

// WithAPIKey requires the key on the ingest route.
func WithAPIKey(key string) func(server *APIServer) {
	return func(server *APIServer) {
		server.apiKey = key
	}
}

// WithMaxReportBytes caps the size of an ingest body.
func WithMaxReportBytes(n int64) func(server *APIServer) {
	return func(server *APIServer) {
		if n > 0 {
			server.maxReportBytes = n
		}
	}
}

// WithMetricsHandler mounts a scrape handler at path.
func WithMetricsHandler(path string, h http.Handler) func(server *APIServer) {
	return func(server *APIServer) {
		if path != "" {
			server.metricsPath = path
		}

		server.metricsHandler = h
	}
}

// WithTracing wraps the handler with OpenTelemetry HTTP instrumentation.
func WithTracing(enabled bool) func(server *APIServer) {
	return func(server *APIServer) {
		server.tracing = enabled
	}
}

// setupRoutes configures the HTTP routes for the API server.
func (s *APIServer) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if s.metricsHandler != nil {
		s.router.Handle(s.metricsPath, s.metricsHandler).Methods(http.MethodGet)
	}

	metrics := s.router.PathPrefix("/api/metrics").Subrouter()

	requireKey := srHttp.APIKeyMiddleware(s.apiKey, s.logger)
	metrics.Handle("/ingest", requireKey(http.HandlerFunc(s.handleIngest))).Methods(http.MethodPost)

	metrics.HandleFunc("/devices", s.handleListDevices).Methods(http.MethodGet)
	metrics.HandleFunc("/device/{id}", s.handleDeviceDetail).Methods(http.MethodGet)
	metrics.HandleFunc("/latest", s.handleDashboard).Methods(http.MethodGet)
	metrics.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
}

// Handler returns the root handler with CORS and logging applied around the
// router, so preflight requests are answered before route matching.
func (s *APIServer) Handler() http.Handler {
	var h http.Handler = srHttp.CommonMiddleware(s.router, s.corsConfig, s.logger)

	if s.tracing {
		h = otelhttp.NewHandler(h, "fleetradar-api")
	}

	return h
}

// Start serves on addr until Shutdown is called.
func (s *APIServer) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(lis)
}

// Serve serves on an existing listener until Shutdown is called.
func (s *APIServer) Serve(lis net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,  // Timeout for reading the entire request, including the body.
		WriteTimeout: defaultWriteTimeout, // Timeout for writing the response.
		IdleTimeout:  defaultIdleTimeout,  // Timeout for idle connections waiting in the Keep-Alive state.
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info().Str("addr", lis.Addr().String()).Msg("Starting HTTP API server")

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown gracefully stops the server and closes open dashboard streams,
// which http.Server does not track once upgraded.
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

// @Summary Ingest a device report
// @Description Stores the report as the latest state of its device.
// @Tags Metrics
// @Accept json
// @Produce json
// @Param report body object true "Device report"
// @Success 200 {object} models.IngestResponse "Report accepted"
// @Failure 400 {object} models.ErrorResponse "Missing device_id or malformed JSON"
// @Failure 413 {object} models.ErrorResponse "Report too large"
// @Router /api/metrics/ingest [post]
func (s *APIServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxReportBytes)

	var report models.Report

	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, r, ReasonTooLarge, msgPayloadTooLarge, http.StatusRequestEntityTooLarge, err)

			return
		}

		s.reject(w, r, ReasonInvalidJSON, msgInvalidJSON, http.StatusBadRequest, err)

		return
	}

	receipt, err := s.recorder.Record(&report)
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			s.reject(w, r, ReasonValidation, msgInvalidPayload, http.StatusBadRequest, err)

			return
		}

		s.reject(w, r, ReasonInternal, msgInternalServerError, http.StatusInternalServerError, err)

		return
	}

	if s.observer != nil {
		s.observer.ObserveIngested(transportHTTP)
	}

	s.encodeJSONResponse(w, models.IngestResponse{
		Status:     "ok",
		DeviceID:   receipt.DeviceID,
		ReceivedAt: receipt.ReceivedAt,
	})
}

func (s *APIServer) reject(w http.ResponseWriter, r *http.Request, reason, message string, status int, err error) {
	s.logger.Warn().
		Err(err).
		Str("reason", reason).
		Str("remote_addr", r.RemoteAddr).
		Msg("Rejected report")

	if s.observer != nil {
		s.observer.ObserveRejected(transportHTTP, reason)
	}

	writeError(w, message, status)
}

// @Summary List devices
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.DevicesResponse "Known devices"
// @Router /api/metrics/devices [get]
func (s *APIServer) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	s.encodeJSONResponse(w, models.DevicesResponse{Devices: s.querier.ListDevices()})
}

// @Summary Get device detail
// @Tags Metrics
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} models.DeviceDetail "Latest report with freshness"
// @Failure 404 {object} models.ErrorResponse "Device not found"
// @Router /api/metrics/device/{id} [get]
func (s *APIServer) handleDeviceDetail(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	detail, err := s.querier.DeviceDetail(deviceID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, msgDeviceNotFound, http.StatusNotFound)

			return
		}

		s.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to load device detail")
		writeError(w, msgInternalServerError, http.StatusInternalServerError)

		return
	}

	s.encodeJSONResponse(w, detail)
}

// @Summary Fleet dashboard
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.Dashboard "Consolidated fleet view"
// @Router /api/metrics/latest [get]
func (s *APIServer) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.encodeJSONResponse(w, s.querier.Dashboard())
}

func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := models.HealthResponse{
		Status:  "ok",
		Version: version.GetVersion(),
	}

	if s.querier != nil {
		resp.Devices = len(s.querier.ListDevices())
	}

	s.encodeJSONResponse(w, resp)
}

func (s *APIServer) encodeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(statusCode)

	errResponse := models.ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		// Fallback in case encoding fails
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
