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

package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fleetradar/pkg/logger"
)

type fakeService struct {
	startErr error
	stopErr  error
	stopped  atomic.Bool
	started  chan struct{}
}

func newFakeService() *fakeService {
	return &fakeService{started: make(chan struct{})}
}

func (f *fakeService) Start(ctx context.Context) error {
	close(f.started)

	if f.startErr != nil {
		return f.startErr
	}

	<-ctx.Done()

	return nil
}

func (f *fakeService) Stop(_ context.Context) error {
	f.stopped.Store(true)
	return f.stopErr
}

func TestRunRequiresService(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Run(context.Background(), nil), errNoService)
	require.ErrorIs(t, Run(context.Background(), &RunOptions{}), errNoService)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, &RunOptions{Service: svc, Logger: logger.NewTestLogger(), ShutdownTimeout: time.Second})
	}()

	<-svc.started
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.True(t, svc.stopped.Load())
}

func TestRunReturnsStartError(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("bind failed")
	svc := newFakeService()
	svc.startErr = errBoom

	err := Run(context.Background(), &RunOptions{Service: svc})
	require.ErrorIs(t, err, errBoom)
	assert.True(t, svc.stopped.Load())
}

func TestRunJoinsStopError(t *testing.T) {
	t.Parallel()

	errStart := errors.New("start failed")
	errStop := errors.New("stop failed")

	svc := newFakeService()
	svc.startErr = errStart
	svc.stopErr = errStop

	err := Run(context.Background(), &RunOptions{Service: svc})
	require.ErrorIs(t, err, errStart)
	require.ErrorIs(t, err, errStop)
}

func TestCreateComponentLogger(t *testing.T) {
	t.Parallel()

	log, err := CreateComponentLogger("test", &logger.Config{Level: "debug", Output: "stderr"})
	require.NoError(t, err)
	require.NotNil(t, log)

	_, err = CreateComponentLogger("test", &logger.Config{Level: "loud"})
	require.Error(t, err)
}
