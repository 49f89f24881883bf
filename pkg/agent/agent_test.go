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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/fleetradar/pkg/logger"
	"github.com/carverauto/fleetradar/pkg/models"
)

func TestNewAgentValidation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	_, err := New([]Collector{NewMockCollector(ctrl)}, nil, time.Second, nil)
	require.ErrorIs(t, err, errNoSender)

	_, err = New(nil, NewMockSender(ctrl), time.Second, nil)
	require.ErrorIs(t, err, errNoAgentSources)

	a, err := New([]Collector{NewMockCollector(ctrl)}, NewMockSender(ctrl), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultInterval, a.interval)
}

func TestAgentRunOnce(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	good := NewMockCollector(ctrl)
	broken := NewMockCollector(ctrl)
	rejected := NewMockCollector(ctrl)
	sender := NewMockSender(ctrl)

	goodReport := &models.Report{DeviceID: "host-a", OverallStatus: models.StatusHealthy}
	rejectedReport := &models.Report{DeviceID: "snmp-b"}

	good.EXPECT().Collect(gomock.Any()).Return(goodReport, nil)
	good.EXPECT().DeviceID().Return("host-a").AnyTimes()
	broken.EXPECT().Collect(gomock.Any()).Return(nil, errors.New("snmp connect: timeout"))
	broken.EXPECT().DeviceID().Return("snmp-a").AnyTimes()
	rejected.EXPECT().Collect(gomock.Any()).Return(rejectedReport, nil)
	rejected.EXPECT().DeviceID().Return("snmp-b").AnyTimes()

	sender.EXPECT().Send(gomock.Any(), goodReport).Return(nil)
	sender.EXPECT().Send(gomock.Any(), rejectedReport).Return(errIngestRejected)

	a, err := New([]Collector{good, broken, rejected}, sender, time.Minute, logger.NewTestLogger())
	require.NoError(t, err)

	delivered, err := a.RunOnce(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, errIngestRejected)
	assert.Contains(t, err.Error(), "snmp-a")
	assert.Contains(t, err.Error(), "snmp-b")

	require.Len(t, delivered, 1)
	assert.Same(t, goodReport, delivered[0])
}

func TestAgentRunPushesUntilCancelled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	collector := NewMockCollector(ctrl)
	sender := NewMockSender(ctrl)

	report := &models.Report{DeviceID: "host-a"}
	sent := make(chan struct{}, 16)

	collector.EXPECT().DeviceID().Return("host-a").AnyTimes()
	collector.EXPECT().Collect(gomock.Any()).Return(report, nil).MinTimes(2)
	sender.EXPECT().Send(gomock.Any(), report).DoAndReturn(func(context.Context, *models.Report) error {
		sent <- struct{}{}
		return nil
	}).MinTimes(2)

	a, err := New([]Collector{collector}, sender, 10*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- a.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-sent:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for push")
		}
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not stop")
	}
}

func TestAgentRunSurvivesFailures(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	collector := NewMockCollector(ctrl)
	sender := NewMockSender(ctrl)
	attempts := make(chan struct{}, 16)

	collector.EXPECT().DeviceID().Return("host-a").AnyTimes()
	collector.EXPECT().Collect(gomock.Any()).DoAndReturn(func(context.Context) (*models.Report, error) {
		attempts <- struct{}{}
		return nil, errors.New("boom")
	}).MinTimes(2)

	a, err := New([]Collector{collector}, sender, 10*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- a.Run(ctx) }()

	<-attempts
	<-attempts
	cancel()

	require.NoError(t, <-done)
}

func TestBuildCollectors(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		DeviceID: "laptop",
		SNMP:     []SNMPTarget{{Host: "10.0.0.1"}, {Host: "10.0.0.2", DeviceID: "edge"}},
	}

	collectors := BuildCollectors(cfg, nil)
	require.Len(t, collectors, 3)
	assert.Equal(t, "laptop", collectors[0].DeviceID())
	assert.Equal(t, "snmp-10.0.0.1", collectors[1].DeviceID())
	assert.Equal(t, "edge", collectors[2].DeviceID())

	cfg.DisableLocal = true
	collectors = BuildCollectors(cfg, nil)
	require.Len(t, collectors, 2)
}
