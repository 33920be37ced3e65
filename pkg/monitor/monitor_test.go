/*
 * Copyright 2025 Bitshield Networks.
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

package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitshield/school-network-monitor/pkg/db"
	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

type fakeStore struct {
	mu      sync.Mutex
	devices map[string]*models.Device
	links   map[string]*models.Link
	events  []*models.Event
	metrics []*models.CableHealthMetric
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		devices: make(map[string]*models.Device),
		links:   make(map[string]*models.Link),
	}
}

func (f *fakeStore) addDevice(d *models.Device) {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *d
	f.devices[d.ID] = &copied
}

func (f *fakeStore) addLink(l *models.Link) {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *l
	f.links[l.ID] = &copied
}

func (f *fakeStore) removeDevice(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.devices, id)
}

func (f *fakeStore) removeLink(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.links, id)
}

func (f *fakeStore) deviceStatus(id string) models.DeviceStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.devices[id].Status
}

func (f *fakeStore) linkStatus(id string) models.LinkStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.links[id].Status
}

func (f *fakeStore) eventsOfType(t models.EventType) []*models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Event

	for _, e := range f.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}

	return out
}

func (f *fakeStore) ListMonitoredDevices(_ context.Context) ([]*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*models.Device, 0, len(f.devices))

	for _, d := range f.devices {
		if d.IsMonitored {
			copied := *d
			out = append(out, &copied)
		}
	}

	return out, nil
}

func (f *fakeStore) UpdateDeviceStatus(_ context.Context, id string, status models.DeviceStatus, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[id]
	if !ok {
		return db.ErrNotFound
	}

	d.Status = status
	d.LastSeen = &lastSeen

	return nil
}

func (f *fakeStore) GetDevice(_ context.Context, id string) (*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[id]
	if !ok {
		return nil, db.ErrNotFound
	}

	copied := *d

	return &copied, nil
}

func (f *fakeStore) ListAllLinks(_ context.Context) ([]*models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*models.Link, 0, len(f.links))

	for _, l := range f.links {
		copied := *l
		out = append(out, &copied)
	}

	return out, nil
}

func (f *fakeStore) UpdateLinkHealth(_ context.Context, id string, status models.LinkStatus, latencyMs, lossPct, jitterMs float64, checkedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.links[id]
	if !ok {
		return db.ErrNotFound
	}

	l.Status = status
	l.LatencyMs = latencyMs
	l.PacketLossPct = lossPct
	l.JitterMs = jitterMs
	l.LastChecked = &checkedAt

	return nil
}

func (f *fakeStore) InsertCableHealthMetric(_ context.Context, metric *models.CableHealthMetric) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.metrics = append(f.metrics, metric)

	return nil
}

func (f *fakeStore) CreateEvents(_ context.Context, events []*models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, events...)

	return nil
}

// fakeScanner answers every target from the down set, optionally blocking
// until released. started, when set, is closed as soon as the first scan
// begins so tests can act between target listing and probing.
type fakeScanner struct {
	mu      sync.Mutex
	down    map[string]bool
	latency time.Duration
	gate    chan struct{}
	started chan struct{}
}

func newFakeScanner() *fakeScanner {
	return &fakeScanner{down: make(map[string]bool), latency: 5 * time.Millisecond}
}

func (f *fakeScanner) setDown(id string, down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.down[id] = down
}

func (f *fakeScanner) Scan(_ context.Context, targets []models.Target) <-chan models.ProbeResult {
	out := make(chan models.ProbeResult, len(targets))

	go func() {
		defer close(out)

		f.mu.Lock()
		if f.started != nil {
			close(f.started)
			f.started = nil
		}
		f.mu.Unlock()

		if f.gate != nil {
			<-f.gate
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		for _, t := range targets {
			if f.down[t.DeviceID] {
				out <- models.ProbeResult{
					Target:      t,
					Available:   false,
					PacketLoss:  100,
					PacketsSent: 3,
					Failure:     models.FailureTimeout,
					CheckedAt:   time.Now().UTC(),
				}

				continue
			}

			out <- models.ProbeResult{
				Target:       t,
				Available:    true,
				LatencyMin:   f.latency,
				LatencyAvg:   f.latency,
				LatencyMax:   f.latency,
				PacketsSent:  3,
				PacketsRecvd: 3,
				CheckedAt:    time.Now().UTC(),
			}
		}
	}()

	return out
}

type capturePublisher struct {
	mu       sync.Mutex
	messages []models.StreamMessage
}

func (c *capturePublisher) Publish(msg models.StreamMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
}

func (c *capturePublisher) ofType(t models.StreamMessageType) []models.StreamMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.StreamMessage

	for _, m := range c.messages {
		if m.Type == t {
			out = append(out, m)
		}
	}

	return out
}

func newTestMonitor(store *fakeStore, scanner *fakeScanner, pub *capturePublisher) *Monitor {
	cfg := models.MonitoringConfig{FailureThreshold: 3}

	return New(store, scanner, scanner, pub, cfg, logger.NewTestLogger())
}

func TestRunCycleHoldsStatusBelowFailureThreshold(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "core-sw", IP: "10.0.0.1", IsMonitored: true, Status: models.DeviceStatusUp})

	scanner := newFakeScanner()
	scanner.setDown("d1", true)

	pub := &capturePublisher{}
	mon := newTestMonitor(store, scanner, pub)

	for i := 0; i < 2; i++ {
		_, err := mon.RunCycle(context.Background())
		require.NoError(t, err)

		assert.Equal(t, models.DeviceStatusUp, store.deviceStatus("d1"))
		assert.Empty(t, store.eventsOfType(models.EventDeviceDown))
	}

	summary, err := mon.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.DeviceStatusDown, store.deviceStatus("d1"))
	assert.Equal(t, 1, summary.Transitions)

	downEvents := store.eventsOfType(models.EventDeviceDown)
	require.Len(t, downEvents, 1)
	assert.Equal(t, "d1", downEvents[0].DeviceID)
	assert.Equal(t, models.SeverityCritical, downEvents[0].Severity)
}

func TestRunCycleSuccessResetsFailureCounter(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "core-sw", IP: "10.0.0.1", IsMonitored: true, Status: models.DeviceStatusUp})

	scanner := newFakeScanner()
	pub := &capturePublisher{}
	mon := newTestMonitor(store, scanner, pub)

	// Two failures, then a success: the counter must reset.
	scanner.setDown("d1", true)

	for i := 0; i < 2; i++ {
		_, err := mon.RunCycle(context.Background())
		require.NoError(t, err)
	}

	scanner.setDown("d1", false)

	_, err := mon.RunCycle(context.Background())
	require.NoError(t, err)

	// Two more failures stay below the threshold again.
	scanner.setDown("d1", true)

	for i := 0; i < 2; i++ {
		_, err := mon.RunCycle(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, models.DeviceStatusUp, store.deviceStatus("d1"))
	assert.Empty(t, store.eventsOfType(models.EventDeviceDown))
	assert.Empty(t, store.eventsOfType(models.EventDeviceUp))
}

func TestRunCycleEmitsExactlyOneEventPerTransition(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "core-sw", IP: "10.0.0.1", IsMonitored: true, Status: models.DeviceStatusDown})

	scanner := newFakeScanner()
	pub := &capturePublisher{}
	mon := newTestMonitor(store, scanner, pub)

	// First success after DOWN transitions UP with one event.
	_, err := mon.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.DeviceStatusUp, store.deviceStatus("d1"))
	require.Len(t, store.eventsOfType(models.EventDeviceUp), 1)

	// Repeated identical-status cycles create zero new events.
	for i := 0; i < 3; i++ {
		_, err := mon.RunCycle(context.Background())
		require.NoError(t, err)
	}

	assert.Len(t, store.eventsOfType(models.EventDeviceUp), 1)
	assert.Len(t, pub.ofType(models.StreamEventNotification), 1)
}

func TestRunCycleRejectsConcurrentTrigger(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "core-sw", IP: "10.0.0.1", IsMonitored: true, Status: models.DeviceStatusUp})

	scanner := newFakeScanner()
	scanner.gate = make(chan struct{})

	mon := newTestMonitor(store, scanner, &capturePublisher{})

	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		close(started)

		_, err := mon.RunCycle(context.Background())
		done <- err
	}()

	<-started

	// Wait until the first cycle holds the lock.
	require.Eventually(t, func() bool {
		_, err := mon.RunCycle(context.Background())
		return err == ErrCycleInProgress
	}, time.Second, 5*time.Millisecond)

	close(scanner.gate)
	require.NoError(t, <-done)

	// After the first cycle finishes, triggers work again.
	scanner.gate = nil

	_, err := mon.RunCycle(context.Background())
	require.NoError(t, err)
}

func TestRunCycleMarksAddresslessDeviceUnreachable(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "ghost", IsMonitored: true, Status: models.DeviceStatusUnknown})

	pub := &capturePublisher{}
	mon := newTestMonitor(store, newFakeScanner(), pub)

	summary, err := mon.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.DeviceStatusUnreachable, store.deviceStatus("d1"))
	assert.Zero(t, summary.DevicesProbed)
	assert.Equal(t, 1, summary.Transitions)
	assert.Equal(t, 1, summary.Events)

	// The transition carries exactly one event, like any other.
	events := store.eventsOfType(models.EventDeviceUnreachable)
	require.Len(t, events, 1)
	assert.Equal(t, "d1", events[0].DeviceID)
	assert.Equal(t, string(models.DeviceStatusUnknown), events[0].Details["previous_status"])
	assert.Len(t, pub.ofType(models.StreamEventNotification), 1)

	// A second cycle sees the status already set and stays quiet.
	summary, err = mon.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Transitions)
	assert.Len(t, store.eventsOfType(models.EventDeviceUnreachable), 1)
}

func TestRunCycleSkipsDeviceDeletedMidCycle(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "core-sw", IP: "10.0.0.1", IsMonitored: true, Status: models.DeviceStatusUnknown})
	store.addDevice(&models.Device{ID: "d2", Name: "lab-sw", IP: "10.0.0.2", IsMonitored: true, Status: models.DeviceStatusUnknown})

	scanner := newFakeScanner()
	scanner.gate = make(chan struct{})
	scanner.started = make(chan struct{})
	started := scanner.started

	mon := newTestMonitor(store, scanner, &capturePublisher{})

	done := make(chan error, 1)

	go func() {
		_, err := mon.RunCycle(context.Background())
		done <- err
	}()

	// Delete one target after the cycle has fetched its device list but
	// before any result is diffed.
	<-started
	store.removeDevice("d2")
	close(scanner.gate)

	require.NoError(t, <-done)

	// The surviving device was still processed.
	assert.Equal(t, models.DeviceStatusUp, store.deviceStatus("d1"))

	upEvents := store.eventsOfType(models.EventDeviceUp)
	require.Len(t, upEvents, 1)
	assert.Equal(t, "d1", upEvents[0].DeviceID)
}

func TestRunCyclePrunesCountersForRemovedTargets(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "core-sw", IP: "10.0.0.1", IsMonitored: true, Status: models.DeviceStatusUp})
	store.addDevice(&models.Device{ID: "d2", Name: "lib-sw", IP: "10.0.0.2", IsMonitored: true, Status: models.DeviceStatusUp})
	store.addLink(&models.Link{ID: "l1", Name: "core-lib", SourceDeviceID: "d1", TargetDeviceID: "d2", Status: models.LinkStatusUp})

	scanner := newFakeScanner()
	scanner.setDown("d2", true)
	scanner.setDown("l1", true)

	mon := newTestMonitor(store, scanner, &capturePublisher{})

	for i := 0; i < 2; i++ {
		_, err := mon.RunCycle(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 2, mon.failures["d2"])
	assert.Equal(t, 2, mon.linkFailures["l1"])

	store.removeDevice("d2")
	store.removeLink("l1")

	_, err := mon.RunCycle(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, mon.failures, "d2")
	assert.NotContains(t, mon.linkFailures, "l1")
}

func TestRunCycleSkipsMaintenanceDevices(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "lab-sw", IP: "10.0.0.9", IsMonitored: true, Status: models.DeviceStatusMaintenance})

	scanner := newFakeScanner()
	scanner.setDown("d1", true)

	mon := newTestMonitor(store, scanner, &capturePublisher{})

	for i := 0; i < 4; i++ {
		_, err := mon.RunCycle(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, models.DeviceStatusMaintenance, store.deviceStatus("d1"))
	assert.Empty(t, store.events)
}

func TestRunCycleLinkPassRecordsHealthAndTransitions(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "core-sw", IP: "10.0.0.1", IsMonitored: true, Status: models.DeviceStatusUp})
	store.addDevice(&models.Device{ID: "d2", Name: "lib-sw", IP: "10.0.0.2", IsMonitored: true, Status: models.DeviceStatusUp})
	store.addLink(&models.Link{ID: "l1", Name: "core-lib", SourceDeviceID: "d1", TargetDeviceID: "d2", Status: models.LinkStatusUnknown})

	scanner := newFakeScanner()
	pub := &capturePublisher{}
	mon := newTestMonitor(store, scanner, pub)

	summary, err := mon.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.LinksProbed)
	assert.Equal(t, models.LinkStatusUp, store.linkStatus("l1"))
	require.Len(t, store.metrics, 1)
	assert.Equal(t, "l1", store.metrics[0].LinkID)
	assert.InDelta(t, 100.0, store.metrics[0].HealthScore, 0.01)
	require.Len(t, store.eventsOfType(models.EventLinkUp), 1)
	assert.Len(t, pub.ofType(models.StreamLinkStatus), 1)
}

func TestRunCycleLinkDownAfterThreshold(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "core-sw", IP: "10.0.0.1", IsMonitored: true, Status: models.DeviceStatusUp})
	store.addDevice(&models.Device{ID: "d2", Name: "lib-sw", IP: "10.0.0.2", IsMonitored: true, Status: models.DeviceStatusUp})
	store.addLink(&models.Link{ID: "l1", Name: "core-lib", SourceDeviceID: "d1", TargetDeviceID: "d2", Status: models.LinkStatusUp})

	scanner := newFakeScanner()
	scanner.setDown("l1", true)

	mon := newTestMonitor(store, scanner, &capturePublisher{})

	for i := 0; i < 2; i++ {
		_, err := mon.RunCycle(context.Background())
		require.NoError(t, err)

		assert.Equal(t, models.LinkStatusUp, store.linkStatus("l1"))
	}

	_, err := mon.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.LinkStatusDown, store.linkStatus("l1"))
	require.Len(t, store.eventsOfType(models.EventLinkDown), 1)
}

func TestRunCyclePublishesDeviceStatusOnTransition(t *testing.T) {
	store := newFakeStore()
	store.addDevice(&models.Device{ID: "d1", Name: "core-sw", IP: "10.0.0.1", IsMonitored: true, Status: models.DeviceStatusUnknown})

	scanner := newFakeScanner()
	pub := &capturePublisher{}
	mon := newTestMonitor(store, scanner, pub)

	_, err := mon.RunCycle(context.Background())
	require.NoError(t, err)

	statusMsgs := pub.ofType(models.StreamDeviceStatus)
	require.Len(t, statusMsgs, 1)

	data, ok := statusMsgs[0].Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "d1", data["device_id"])
	assert.Equal(t, models.DeviceStatusUp, data["status"])
}
