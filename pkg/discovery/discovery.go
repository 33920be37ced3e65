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

// Package discovery sweeps a CIDR range for live hosts and registers what
// it finds in the device inventory.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bitshield/school-network-monitor/pkg/db"
	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

var (
	// ErrScanInProgress is returned when a scan is requested while another
	// is still running.
	ErrScanInProgress = errors.New("network scan already in progress")

	// ErrInvalidCIDR is returned for unparseable scan ranges.
	ErrInvalidCIDR = errors.New("invalid CIDR range")

	// ErrRangeTooLarge is returned when a range expands past the host cap.
	ErrRangeTooLarge = errors.New("CIDR range exceeds host limit")
)

const (
	defaultMaxHosts = 1024
	eventSource     = "discovery"
)

// Store is the slice of the persistence layer discovery needs.
type Store interface {
	GetDeviceByIP(ctx context.Context, ip string) (*models.Device, error)
	CreateDevice(ctx context.Context, device *models.Device) error
	UpdateDeviceStatus(ctx context.Context, id string, status models.DeviceStatus, lastSeen time.Time) error
	CreateEvents(ctx context.Context, events []*models.Event) error
}

// Scanner fans probes out over a bounded worker pool.
type Scanner interface {
	Scan(ctx context.Context, targets []models.Target) <-chan models.ProbeResult
}

// Publisher pushes messages to connected dashboard clients.
type Publisher interface {
	Publish(msg models.StreamMessage)
}

// ScanReport summarizes one discovery sweep.
type ScanReport struct {
	CIDR         string    `json:"cidr"`
	HostsScanned int       `json:"hosts_scanned"`
	HostsUp      int       `json:"hosts_up"`
	NewDevices   int       `json:"new_devices"`
	KnownDevices int       `json:"known_devices"`
	StartedAt    time.Time `json:"started_at"`
	Duration     string    `json:"duration"`
}

// Engine runs discovery sweeps. At most one sweep runs at a time.
type Engine struct {
	store     Store
	scanner   Scanner
	publisher Publisher
	maxHosts  int
	logger    logger.Logger

	mu sync.Mutex
}

// New builds a discovery engine. maxHosts of zero uses the default cap.
func New(store Store, scanner Scanner, publisher Publisher, maxHosts int, log logger.Logger) *Engine {
	if maxHosts == 0 {
		maxHosts = defaultMaxHosts
	}

	return &Engine{
		store:     store,
		scanner:   scanner,
		publisher: publisher,
		maxHosts:  maxHosts,
		logger:    log.WithComponent("discovery"),
	}
}

// DiscoverAndSave sweeps the range, upserts responders into the inventory,
// and records one SCAN_COMPLETED (or SCAN_FAILED) event for the sweep.
func (e *Engine) DiscoverAndSave(ctx context.Context, cidr string) (*ScanReport, error) {
	if !e.mu.TryLock() {
		return nil, ErrScanInProgress
	}
	defer e.mu.Unlock()

	start := time.Now()

	report, err := e.sweep(ctx, cidr, start)
	if err != nil {
		// Expansion errors are caller mistakes; only a sweep that got
		// past validation records a failure event.
		if !errors.Is(err, ErrInvalidCIDR) && !errors.Is(err, ErrRangeTooLarge) && ctx.Err() == nil {
			e.recordScanFailure(ctx, cidr, err)
		}

		return nil, err
	}

	report.Duration = time.Since(start).String()

	if err := e.recordScanComplete(ctx, report); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("cidr", cidr).
		Int("hosts_up", report.HostsUp).
		Int("new_devices", report.NewDevices).
		Str("duration", report.Duration).
		Msg("discovery sweep finished")

	return report, nil
}

func (e *Engine) sweep(ctx context.Context, cidr string, start time.Time) (*ScanReport, error) {
	hosts, err := ExpandCIDR(cidr, e.maxHosts)
	if err != nil {
		return nil, err
	}

	report := &ScanReport{
		CIDR:         cidr,
		HostsScanned: len(hosts),
		StartedAt:    start.UTC(),
	}

	targets := make([]models.Target, 0, len(hosts))
	for _, host := range hosts {
		targets = append(targets, models.Target{Host: host, Protocol: models.ProtocolICMP})
	}

	arp := readARPTable(e.logger)

	var events []*models.Event

	for result := range e.scanner.Scan(ctx, targets) {
		if !result.Available {
			continue
		}

		report.HostsUp++

		event, known, err := e.registerHost(ctx, &result, arp)
		if err != nil {
			return nil, err
		}

		if known {
			report.KnownDevices++
		} else {
			report.NewDevices++
		}

		if event != nil {
			events = append(events, event)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(events) > 0 {
		if err := e.store.CreateEvents(ctx, events); err != nil {
			return nil, fmt.Errorf("persist discovery events: %w", err)
		}

		for _, event := range events {
			e.publish(models.StreamEventNotification, event)
		}
	}

	return report, nil
}

// registerHost upserts one responder. A known device gets a status refresh,
// with a DEVICE_UP event when it was not already up; a new one is created
// and produces a DEVICE_DISCOVERED event.
func (e *Engine) registerHost(ctx context.Context, result *models.ProbeResult, arp map[string]string) (*models.Event, bool, error) {
	ip := result.Target.Host

	existing, err := e.store.GetDeviceByIP(ctx, ip)
	if err == nil {
		if existing.Status == models.DeviceStatusMaintenance {
			return nil, true, nil
		}

		if uerr := e.store.UpdateDeviceStatus(ctx, existing.ID, models.DeviceStatusUp, result.CheckedAt); uerr != nil {
			return nil, false, fmt.Errorf("refresh device %s: %w", existing.ID, uerr)
		}

		if existing.Status == models.DeviceStatusUp {
			return nil, true, nil
		}

		e.publish(models.StreamDeviceStatus, map[string]interface{}{
			"device_id": existing.ID,
			"status":    models.DeviceStatusUp,
			"last_seen": result.CheckedAt,
		})

		return e.refreshEvent(existing, ip, result.CheckedAt), true, nil
	}

	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup %s: %w", ip, err)
	}

	hostname := reverseLookup(ctx, ip)
	mac := arp[ip]
	vendor := VendorFromMAC(mac)

	device := &models.Device{
		Name:        deviceName(hostname, ip),
		DeviceType:  GuessDeviceType(hostname, vendor),
		IP:          ip,
		MAC:         mac,
		Hostname:    hostname,
		IsMonitored: true,
		Status:      models.DeviceStatusUp,
		LastSeen:    &result.CheckedAt,
	}

	if err := e.store.CreateDevice(ctx, device); err != nil {
		if errors.Is(err, db.ErrDuplicateAddress) {
			// Raced with a concurrent create; treat as known.
			return nil, true, nil
		}

		return nil, false, fmt.Errorf("register %s: %w", ip, err)
	}

	event := &models.Event{
		ID:        uuid.NewString(),
		EventType: models.EventDeviceDiscovered,
		Severity:  models.SeverityInfo,
		DeviceID:  device.ID,
		Message:   fmt.Sprintf("Discovered device %s at %s", device.Name, ip),
		Source:    eventSource,
		CreatedAt: result.CheckedAt,
		Details: map[string]string{
			"ip":          ip,
			"hostname":    hostname,
			"mac":         mac,
			"vendor":      vendor,
			"device_type": string(device.DeviceType),
		},
	}

	return event, false, nil
}

// refreshEvent records a known device coming back during a sweep.
func (e *Engine) refreshEvent(device *models.Device, ip string, at time.Time) *models.Event {
	return &models.Event{
		ID:        uuid.NewString(),
		EventType: models.EventDeviceUp,
		Severity:  models.SeverityInfo,
		DeviceID:  device.ID,
		Message:   fmt.Sprintf("Device %s (%s) responded to a discovery sweep", device.Name, ip),
		Source:    eventSource,
		CreatedAt: at,
		Details: map[string]string{
			"ip":              ip,
			"previous_status": string(device.Status),
		},
	}
}

func (e *Engine) recordScanComplete(ctx context.Context, report *ScanReport) error {
	event := &models.Event{
		ID:        uuid.NewString(),
		EventType: models.EventScanCompleted,
		Severity:  models.SeverityInfo,
		Message: fmt.Sprintf("Scan of %s completed: %d up, %d new",
			report.CIDR, report.HostsUp, report.NewDevices),
		Source:    eventSource,
		CreatedAt: time.Now().UTC(),
		Details: map[string]string{
			"cidr":        report.CIDR,
			"hosts_up":    fmt.Sprintf("%d", report.HostsUp),
			"new_devices": fmt.Sprintf("%d", report.NewDevices),
		},
	}

	if err := e.store.CreateEvents(ctx, []*models.Event{event}); err != nil {
		return fmt.Errorf("record scan completion: %w", err)
	}

	e.publish(models.StreamEventNotification, event)
	e.publish(models.StreamScanComplete, report)

	if report.NewDevices > 0 {
		e.publish(models.StreamTopologyUpdate, map[string]interface{}{
			"reason":      "discovery",
			"new_devices": report.NewDevices,
		})
	}

	return nil
}

func (e *Engine) recordScanFailure(ctx context.Context, cidr string, cause error) {
	event := &models.Event{
		ID:        uuid.NewString(),
		EventType: models.EventScanFailed,
		Severity:  models.SeverityHigh,
		Message:   fmt.Sprintf("Scan of %s failed", cidr),
		Source:    eventSource,
		CreatedAt: time.Now().UTC(),
		Details:   map[string]string{"cidr": cidr, "error": cause.Error()},
	}

	if err := e.store.CreateEvents(ctx, []*models.Event{event}); err != nil {
		e.logger.Error().Err(err).Msg("failed to record scan failure")
		return
	}

	e.publish(models.StreamEventNotification, event)
}

func (e *Engine) publish(msgType models.StreamMessageType, data interface{}) {
	if e.publisher == nil {
		return
	}

	e.publisher.Publish(models.StreamMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// ExpandCIDR lists the usable host addresses in an IPv4 range. Network and
// broadcast addresses are skipped for ranges wider than /31.
func ExpandCIDR(cidr string, maxHosts int) ([]string, error) {
	ip, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCIDR, cidr)
	}

	if ip.To4() == nil {
		return nil, fmt.Errorf("%w: only IPv4 ranges are supported", ErrInvalidCIDR)
	}

	ones, bits := network.Mask.Size()
	hostBits := bits - ones

	total := 1 << hostBits
	if hostBits >= 2 {
		total -= 2
	}

	if total > maxHosts {
		return nil, fmt.Errorf("%w: %d hosts, limit %d", ErrRangeTooLarge, total, maxHosts)
	}

	hosts := make([]string, 0, total)

	addr := network.IP.To4()
	base := uint32(addr[0])<<24 | uint32(addr[1])<<16 | uint32(addr[2])<<8 | uint32(addr[3])

	first, last := base, base+uint32(1<<hostBits)-1
	if hostBits >= 2 {
		first++
		last--
	}

	for v := first; v <= last; v++ {
		hosts = append(hosts, net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v)).String())
	}

	return hosts, nil
}

func reverseLookup(ctx context.Context, ip string) string {
	lookupCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var resolver net.Resolver

	names, err := resolver.LookupAddr(lookupCtx, ip)
	if err != nil || len(names) == 0 {
		return ""
	}

	return strings.TrimSuffix(names[0], ".")
}

func deviceName(hostname, ip string) string {
	if hostname != "" {
		if short, _, found := strings.Cut(hostname, "."); found {
			return short
		}

		return hostname
	}

	return ip
}
