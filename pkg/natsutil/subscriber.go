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

package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/fleetradar/pkg/ledger"
	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
)

const (
	transportNATS = "nats"

	reasonInvalidJSON = "invalid_json"
	reasonValidation  = "validation"
	reasonInternal    = "internal"

	defaultAckWait       = 30 * time.Second
	defaultMaxDeliver    = 3
	defaultMaxAckPending = 1000
	streamSetupTimeout   = 10 * time.Second
)

var errSubscriberStarted = errors.New("report subscriber already started")

// Recorder stores a decoded report.
type Recorder interface {
	Record(report *models.Report) (ledger.Receipt, error)
}

// Observer is told about every ingest outcome.
type Observer interface {
	ObserveIngested(transport string)
	ObserveRejected(transport, reason string)
}

// SubscriberConfig selects between a core queue subscription and a JetStream
// durable consumer.
type SubscriberConfig struct {
	Subject string
	Queue   string
	Stream  string
}

// ReportSubscriber feeds reports published on NATS into a Recorder. Requests
// that carry a reply subject are answered with the receipt or an error body.
type ReportSubscriber struct {
	nc       *nats.Conn
	cfg      SubscriberConfig
	recorder Recorder
	observer Observer
	logger   logger.Logger

	mu      sync.Mutex
	sub     *nats.Subscription
	consume jetstream.ConsumeContext
}

// NewReportSubscriber creates a subscriber. Start begins delivery.
func NewReportSubscriber(nc *nats.Conn, cfg SubscriberConfig, recorder Recorder, observer Observer, log logger.Logger) *ReportSubscriber {
	if cfg.Subject == "" {
		cfg.Subject = DefaultReportSubject
	}

	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &ReportSubscriber{
		nc:       nc,
		cfg:      cfg,
		recorder: recorder,
		observer: observer,
		logger:   log,
	}
}

// Start subscribes. With a stream configured the stream is created or
// extended to cover the subject before a durable consumer is attached.
func (s *ReportSubscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub != nil || s.consume != nil {
		return errSubscriberStarted
	}

	if s.cfg.Stream == "" {
		sub, err := s.nc.QueueSubscribe(s.cfg.Subject, s.cfg.Queue, s.handleCore)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.Subject, err)
		}

		s.sub = sub

		s.logger.Info().
			Str("subject", s.cfg.Subject).
			Str("queue", s.cfg.Queue).
			Msg("Subscribed to report subject")

		return nil
	}

	cc, err := s.startJetStream(ctx)
	if err != nil {
		return err
	}

	s.consume = cc

	return nil
}

func (s *ReportSubscriber) startJetStream(ctx context.Context) (jetstream.ConsumeContext, error) {
	js, err := jetstream.New(s.nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, streamSetupTimeout)
	defer cancel()

	if err := s.ensureStream(ctx, js); err != nil {
		return nil, err
	}

	consumer, err := js.CreateOrUpdateConsumer(ctx, s.cfg.Stream, jetstream.ConsumerConfig{
		Durable:       s.cfg.Queue,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       defaultAckWait,
		MaxDeliver:    defaultMaxDeliver,
		MaxAckPending: defaultMaxAckPending,
		FilterSubject: s.cfg.Subject,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer %s: %w", s.cfg.Queue, err)
	}

	cc, err := consumer.Consume(s.handleJetStream)
	if err != nil {
		return nil, fmt.Errorf("failed to consume from %s: %w", s.cfg.Stream, err)
	}

	s.logger.Info().
		Str("stream", s.cfg.Stream).
		Str("consumer", s.cfg.Queue).
		Str("subject", s.cfg.Subject).
		Msg("Consuming reports from JetStream")

	return cc, nil
}

func (s *ReportSubscriber) ensureStream(ctx context.Context, js jetstream.JetStream) error {
	stream, err := js.Stream(ctx, s.cfg.Stream)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", s.cfg.Stream, err)
		}

		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     s.cfg.Stream,
			Subjects: []string{s.cfg.Subject},
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", s.cfg.Stream, err)
		}

		return nil
	}

	cfg := stream.CachedInfo().Config
	subjects := ensureSubjectList(cfg.Subjects, s.cfg.Subject)

	if len(subjects) == len(cfg.Subjects) {
		return nil
	}

	cfg.Subjects = subjects

	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to add %s to stream %s: %w", s.cfg.Subject, s.cfg.Stream, err)
	}

	return nil
}

// Stop drains the subscription or stops the consumer.
func (s *ReportSubscriber) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consume != nil {
		s.consume.Drain()
		s.consume = nil
	}

	if s.sub == nil {
		return nil
	}

	err := s.sub.Drain()
	s.sub = nil

	if err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("failed to drain subscription: %w", err)
	}

	return nil
}

func (s *ReportSubscriber) handleCore(msg *nats.Msg) {
	reply, _ := s.process(msg.Data)

	if msg.Reply == "" {
		return
	}

	if err := msg.Respond(reply); err != nil {
		s.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("Failed to reply to report request")
	}
}

func (s *ReportSubscriber) handleJetStream(msg jetstream.Msg) {
	_, err := s.process(msg.Data())

	var ackErr error

	switch {
	case err == nil:
		ackErr = msg.Ack()
	case errors.Is(err, ledger.ErrValidation), isDecodeErr(err):
		// redelivery cannot fix a malformed report
		ackErr = msg.Term()
	default:
		ackErr = msg.Nak()
	}

	if ackErr != nil {
		s.logger.Warn().Err(ackErr).Str("subject", msg.Subject()).Msg("Failed to acknowledge report")
	}
}

type decodeError struct{ err error }

func (e decodeError) Error() string { return "invalid JSON payload: " + e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

func isDecodeErr(err error) bool {
	var de decodeError
	return errors.As(err, &de)
}

// process decodes and records one report, returning the reply body.
func (s *ReportSubscriber) process(data []byte) ([]byte, error) {
	var report models.Report

	if err := json.Unmarshal(data, &report); err != nil {
		s.reject(reasonInvalidJSON, err)
		return errorBody("Invalid JSON payload", http.StatusBadRequest), decodeError{err: err}
	}

	receipt, err := s.recorder.Record(&report)
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			s.reject(reasonValidation, err)
			return errorBody("Invalid payload, device_id required", http.StatusBadRequest), err
		}

		s.reject(reasonInternal, err)

		return errorBody("Failed to store report", http.StatusInternalServerError), err
	}

	if s.observer != nil {
		s.observer.ObserveIngested(transportNATS)
	}

	body, err := json.Marshal(models.IngestResponse{
		Status:     "ok",
		DeviceID:   receipt.DeviceID,
		ReceivedAt: receipt.ReceivedAt,
	})
	if err != nil {
		return errorBody("Failed to encode receipt", http.StatusInternalServerError), err
	}

	return body, nil
}

func (s *ReportSubscriber) reject(reason string, err error) {
	s.logger.Warn().Err(err).Str("transport", transportNATS).Str("reason", reason).Msg("Rejected report")

	if s.observer != nil {
		s.observer.ObserveRejected(transportNATS, reason)
	}
}

func errorBody(message string, status int) []byte {
	body, _ := json.Marshal(models.ErrorResponse{Message: message, Status: status})
	return body
}
