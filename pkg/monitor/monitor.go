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

// Package monitor runs the periodic status cycle: probe every monitored
// device and link, diff results against last-known status with a
// consecutive-failure debounce, persist transitions, and emit exactly one
// event per transition.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bitshield/school-network-monitor/pkg/db"
	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// ErrCycleInProgress is returned when RunCycle is called while another
// cycle holds the lock. Callers surface it as a conflict, not a retryable
// server error.
var ErrCycleInProgress = errors.New("monitoring cycle already in progress")

const eventSource = "monitor"

// Store is the slice of the persistence layer the cycle needs.
type Store interface {
	ListMonitoredDevices(ctx context.Context) ([]*models.Device, error)
	UpdateDeviceStatus(ctx context.Context, id string, status models.DeviceStatus, lastSeen time.Time) error
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	ListAllLinks(ctx context.Context) ([]*models.Link, error)
	UpdateLinkHealth(ctx context.Context, id string, status models.LinkStatus, latencyMs, lossPct, jitterMs float64, checkedAt time.Time) error
	InsertCableHealthMetric(ctx context.Context, metric *models.CableHealthMetric) error
	CreateEvents(ctx context.Context, events []*models.Event) error
}

// Scanner fans probes out over a bounded worker pool.
type Scanner interface {
	Scan(ctx context.Context, targets []models.Target) <-chan models.ProbeResult
}

// Publisher pushes messages to connected dashboard clients. Delivery is
// best-effort; the store is the source of truth.
type Publisher interface {
	Publish(msg models.StreamMessage)
}

// CycleSummary reports what one monitoring cycle did.
type CycleSummary struct {
	StartedAt     time.Time `json:"started_at"`
	Duration      string    `json:"duration"`
	DevicesProbed int       `json:"devices_probed"`
	LinksProbed   int       `json:"links_probed"`
	Transitions   int       `json:"transitions"`
	Events        int       `json:"events"`
}

// CycleState names the phase the cycle is in.
type CycleState string

const (
	StateIdle       CycleState = "IDLE"
	StateFetching   CycleState = "FETCHING_TARGETS"
	StateProbing    CycleState = "PROBING"
	StateDiffing    CycleState = "DIFFING"
	StatePersisting CycleState = "PERSISTING"
)

// Status is a point-in-time snapshot of the cycle driver.
type Status struct {
	State       CycleState    `json:"state"`
	LastStarted *time.Time    `json:"last_started,omitempty"`
	LastSummary *CycleSummary `json:"last_summary,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
}

// Monitor owns device/link status. Probes never write status directly;
// every change flows through the cycle's diff step.
type Monitor struct {
	store     Store
	scanner   Scanner
	linkScan  Scanner
	publisher Publisher
	config    models.MonitoringConfig
	logger    logger.Logger

	// mu enforces the single-flight cycle. failures/linkFailures are the
	// consecutive-failure debounce counters, touched only under mu.
	mu           sync.Mutex
	failures     map[string]int
	linkFailures map[string]int

	// stateMu guards the status snapshot so Status never contends with a
	// running cycle.
	stateMu     sync.Mutex
	state       CycleState
	lastStarted *time.Time
	lastSummary *CycleSummary
	lastError   string
}

// New builds a Monitor. scanner probes devices; linkScan probes links with a
// larger echo count so jitter is meaningful.
func New(store Store, scanner, linkScan Scanner, publisher Publisher, cfg models.MonitoringConfig, log logger.Logger) *Monitor {
	cfg.Defaults()

	return &Monitor{
		store:        store,
		scanner:      scanner,
		linkScan:     linkScan,
		publisher:    publisher,
		config:       cfg,
		logger:       log.WithComponent("monitor"),
		failures:     make(map[string]int),
		linkFailures: make(map[string]int),
		state:        StateIdle,
	}
}

// Status reports the current cycle phase and the last cycle's outcome.
func (m *Monitor) Status() Status {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	return Status{
		State:       m.state,
		LastStarted: m.lastStarted,
		LastSummary: m.lastSummary,
		LastError:   m.lastError,
	}
}

func (m *Monitor) setState(s CycleState) {
	m.stateMu.Lock()
	m.state = s
	m.stateMu.Unlock()
}

func (m *Monitor) beginCycle(at time.Time) {
	m.stateMu.Lock()
	m.state = StateFetching
	m.lastStarted = &at
	m.stateMu.Unlock()
}

func (m *Monitor) endCycle(summary *CycleSummary, err error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	m.state = StateIdle
	m.lastError = ""

	if err != nil {
		m.lastError = err.Error()
		return
	}

	m.lastSummary = summary
}

// RunCycle executes one full monitoring pass. At most one cycle runs at a
// time; a concurrent call fails fast with ErrCycleInProgress instead of
// queueing.
func (m *Monitor) RunCycle(ctx context.Context) (*CycleSummary, error) {
	if !m.mu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer m.mu.Unlock()

	start := time.Now()
	summary := &CycleSummary{StartedAt: start.UTC()}

	m.beginCycle(start.UTC())
	m.logger.Info().Msg("monitoring cycle started")

	if err := m.runDevicePass(ctx, summary); err != nil {
		err = fmt.Errorf("device pass: %w", err)
		m.endCycle(nil, err)

		return nil, err
	}

	if err := m.runLinkPass(ctx, summary); err != nil {
		err = fmt.Errorf("link pass: %w", err)
		m.endCycle(nil, err)

		return nil, err
	}

	summary.Duration = time.Since(start).String()
	m.endCycle(summary, nil)

	m.logger.Info().
		Int("devices", summary.DevicesProbed).
		Int("links", summary.LinksProbed).
		Int("transitions", summary.Transitions).
		Int("events", summary.Events).
		Str("duration", summary.Duration).
		Msg("monitoring cycle finished")

	return summary, nil
}

func (m *Monitor) runDevicePass(ctx context.Context, summary *CycleSummary) error {
	devices, err := m.store.ListMonitoredDevices(ctx)
	if err != nil {
		return fmt.Errorf("list monitored devices: %w", err)
	}

	byID := make(map[string]*models.Device, len(devices))
	targets := make([]models.Target, 0, len(devices))

	var events []*models.Event

	now := time.Now().UTC()

	for _, device := range devices {
		if device.Status == models.DeviceStatusMaintenance {
			continue
		}

		byID[device.ID] = device

		if device.IP == "" {
			// Nothing to probe. UNREACHABLE is reserved for exactly
			// this case.
			if device.Status != models.DeviceStatusUnreachable {
				if err := m.store.UpdateDeviceStatus(ctx, device.ID, models.DeviceStatusUnreachable, now); err != nil {
					if errors.Is(err, db.ErrNotFound) {
						continue
					}

					return fmt.Errorf("mark unreachable: %w", err)
				}

				summary.Transitions++
				m.publishDeviceStatus(device.ID, models.DeviceStatusUnreachable, now)
				events = append(events, m.unreachableEvent(device, now))
			}

			continue
		}

		targets = append(targets, models.Target{
			DeviceID: device.ID,
			Host:     device.IP,
			Protocol: models.ProtocolICMP,
		})
	}

	summary.DevicesProbed = len(targets)

	// Probing is the only concurrent phase. Results are drained fully
	// before any diffing so persistence stays sequential.
	m.setState(StateProbing)

	results := make([]models.ProbeResult, 0, len(targets))

	for result := range m.scanner.Scan(ctx, targets) {
		results = append(results, result)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.setState(StateDiffing)

	for i := range results {
		result := &results[i]

		device, ok := byID[result.Target.DeviceID]
		if !ok {
			continue
		}

		event, err := m.diffDevice(ctx, device, result, summary)
		if err != nil {
			return err
		}

		if event != nil {
			events = append(events, event)
		}
	}

	// Drop debounce counters for devices no longer in the inventory so the
	// map does not grow across device churn.
	for id := range m.failures {
		if _, ok := byID[id]; !ok {
			delete(m.failures, id)
		}
	}

	return m.persistEvents(ctx, events, summary)
}

// diffDevice applies the debounce rule and persists at most one status
// transition. It returns the transition's event, or nil when status held.
func (m *Monitor) diffDevice(ctx context.Context, device *models.Device, result *models.ProbeResult, summary *CycleSummary) (*models.Event, error) {
	var next models.DeviceStatus

	if result.Available {
		m.failures[device.ID] = 0
		next = models.DeviceStatusUp
	} else {
		m.failures[device.ID]++

		if m.failures[device.ID] < m.config.FailureThreshold {
			// Below the threshold the last-known status stands.
			return nil, nil
		}

		next = models.DeviceStatusDown
	}

	if result.Available || device.Status != next {
		// Successful probes always refresh last_seen even without a
		// transition.
		if err := m.store.UpdateDeviceStatus(ctx, device.ID, next, result.CheckedAt); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				// Deleted mid-cycle; one vanished target must not abort
				// the whole pass.
				m.logger.Debug().Str("device_id", device.ID).Msg("device deleted mid-cycle, skipping")
				delete(m.failures, device.ID)

				return nil, nil
			}

			return nil, fmt.Errorf("update device %s: %w", device.ID, err)
		}
	}

	if device.Status == next {
		return nil, nil
	}

	summary.Transitions++
	m.publishDeviceStatus(device.ID, next, result.CheckedAt)

	return m.deviceEvent(device, next, result), nil
}

func (m *Monitor) deviceEvent(device *models.Device, next models.DeviceStatus, result *models.ProbeResult) *models.Event {
	event := &models.Event{
		ID:        uuid.NewString(),
		DeviceID:  device.ID,
		Source:    eventSource,
		CreatedAt: result.CheckedAt,
		Details: map[string]string{
			"device_name":     device.Name,
			"ip":              device.IP,
			"previous_status": string(device.Status),
		},
	}

	if next == models.DeviceStatusUp {
		event.EventType = models.EventDeviceUp
		event.Severity = models.SeverityInfo
		event.Message = fmt.Sprintf("Device %s (%s) is up", device.Name, device.IP)
	} else {
		event.EventType = models.EventDeviceDown
		event.Severity = models.SeverityCritical
		event.Message = fmt.Sprintf("Device %s (%s) is down", device.Name, device.IP)
		event.Details["failure"] = string(result.Failure)
	}

	return event
}

// unreachableEvent records the transition of an addressless device.
func (m *Monitor) unreachableEvent(device *models.Device, at time.Time) *models.Event {
	return &models.Event{
		ID:        uuid.NewString(),
		EventType: models.EventDeviceUnreachable,
		Severity:  models.SeverityMedium,
		DeviceID:  device.ID,
		Message:   fmt.Sprintf("Device %s has no address to probe", device.Name),
		Source:    eventSource,
		CreatedAt: at,
		Details: map[string]string{
			"device_name":     device.Name,
			"previous_status": string(device.Status),
		},
	}
}

// persistEvents batches the cycle's events into one insert, then fans each
// out to connected clients.
func (m *Monitor) persistEvents(ctx context.Context, events []*models.Event, summary *CycleSummary) error {
	m.setState(StatePersisting)

	if len(events) == 0 {
		return nil
	}

	if err := m.store.CreateEvents(ctx, events); err != nil {
		return fmt.Errorf("persist events: %w", err)
	}

	summary.Events += len(events)

	for _, event := range events {
		m.publishEvent(event)
	}

	return nil
}

func (m *Monitor) publishDeviceStatus(deviceID string, status models.DeviceStatus, seen time.Time) {
	if m.publisher == nil {
		return
	}

	m.publisher.Publish(models.StreamMessage{
		Type: models.StreamDeviceStatus,
		Data: map[string]interface{}{
			"device_id": deviceID,
			"status":    status,
			"last_seen": seen,
		},
		Timestamp: time.Now().UTC(),
	})
}

func (m *Monitor) publishEvent(event *models.Event) {
	if m.publisher == nil {
		return
	}

	m.publisher.Publish(models.StreamMessage{
		Type:      models.StreamEventNotification,
		Data:      event,
		Timestamp: time.Now().UTC(),
	})
}
