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

package snmp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

const defaultPollInterval = 5 * time.Minute

// Store is the slice of the persistence layer the collector needs.
type Store interface {
	ListMonitoredDevices(ctx context.Context) ([]*models.Device, error)
	ListPorts(ctx context.Context, deviceID string, page models.Page) (*models.PagedResult[models.Port], error)
	UpdatePortStats(ctx context.Context, id string, stats models.PortStats, polledAt time.Time) error
	CreateEvents(ctx context.Context, events []*models.Event) error
}

// Publisher pushes messages to connected dashboard clients.
type Publisher interface {
	Publish(msg models.StreamMessage)
}

// InterfaceFetcher reads a device's interface table.
type InterfaceFetcher interface {
	FetchInterfaces(ctx context.Context, host, community string) (map[int]*InterfaceStats, error)
}

// Collector periodically refreshes port counters for every device with an
// SNMP community configured. A device that fails to answer is logged and
// skipped; one dead switch never aborts the poll.
type Collector struct {
	store     Store
	client    InterfaceFetcher
	publisher Publisher
	interval  time.Duration
	logger    logger.Logger
	done      chan struct{}
}

// NewCollector builds a collector from config.
func NewCollector(store Store, client InterfaceFetcher, publisher Publisher, cfg models.SNMPConfig, log logger.Logger) *Collector {
	interval := time.Duration(cfg.Interval)
	if interval == 0 {
		interval = defaultPollInterval
	}

	return &Collector{
		store:     store,
		client:    client,
		publisher: publisher,
		interval:  interval,
		logger:    log.WithComponent("snmp-collector"),
		done:      make(chan struct{}),
	}
}

// Start polls on the configured interval until ctx is canceled.
func (c *Collector) Start(ctx context.Context) {
	defer close(c.done)

	c.logger.Info().Dur("interval", c.interval).Msg("snmp collector started")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("snmp collector stopped")
			return
		case <-ticker.C:
			c.poll(ctx)
		}
	}
}

// Done is closed once the collector loop has exited.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

func (c *Collector) poll(ctx context.Context) {
	devices, err := c.store.ListMonitoredDevices(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to list devices for snmp poll")
		return
	}

	for _, device := range devices {
		if device.SNMPCommunity == "" || device.IP == "" {
			continue
		}

		if err := c.PollDevice(ctx, device); err != nil {
			if ctx.Err() != nil {
				return
			}

			c.logger.Warn().
				Err(err).
				Str("device_id", device.ID).
				Str("ip", device.IP).
				Msg("snmp poll failed")
		}
	}
}

// PollDevice refreshes the counters of every registered port on one device
// and emits PORT_UP/PORT_DOWN events on status transitions.
func (c *Collector) PollDevice(ctx context.Context, device *models.Device) error {
	interfaces, err := c.client.FetchInterfaces(ctx, device.IP, device.SNMPCommunity)
	if err != nil {
		return err
	}

	page := models.NewPage(1, models.MaxPageSize)

	ports, err := c.store.ListPorts(ctx, device.ID, page)
	if err != nil {
		return fmt.Errorf("list ports for %s: %w", device.ID, err)
	}

	now := time.Now().UTC()

	var events []*models.Event

	for i := range ports.Items {
		port := &ports.Items[i]

		entry, ok := interfaces[port.Number]
		if !ok {
			continue
		}

		if err := c.store.UpdatePortStats(ctx, port.ID, entry.Stats, now); err != nil {
			return fmt.Errorf("update port %s: %w", port.ID, err)
		}

		if transitioned(port.Status, entry.Stats.Status) {
			events = append(events, c.portEvent(device, port, entry.Stats.Status, now))
			c.publishPortStatus(port, entry.Stats.Status, now)
		}
	}

	if len(events) == 0 {
		return nil
	}

	if err := c.store.CreateEvents(ctx, events); err != nil {
		return fmt.Errorf("persist port events: %w", err)
	}

	for _, event := range events {
		c.publishEvent(event)
	}

	return nil
}

// transitioned reports whether a port flip deserves an event. Only moves
// between UP and DOWN alert; administrative states stay quiet.
func transitioned(prev, next models.PortStatus) bool {
	if prev == next {
		return false
	}

	return next == models.PortStatusUp || next == models.PortStatusDown
}

func (c *Collector) portEvent(device *models.Device, port *models.Port, next models.PortStatus, at time.Time) *models.Event {
	event := &models.Event{
		ID:        uuid.NewString(),
		DeviceID:  device.ID,
		PortID:    port.ID,
		Source:    "snmp",
		CreatedAt: at,
		Details: map[string]string{
			"port_name":       port.Name,
			"device_name":     device.Name,
			"previous_status": string(port.Status),
		},
	}

	if next == models.PortStatusUp {
		event.EventType = models.EventPortUp
		event.Severity = models.SeverityInfo
		event.Message = fmt.Sprintf("Port %s on %s is up", port.Name, device.Name)
	} else {
		event.EventType = models.EventPortDown
		event.Severity = models.SeverityMedium
		event.Message = fmt.Sprintf("Port %s on %s is down", port.Name, device.Name)
	}

	return event
}

func (c *Collector) publishPortStatus(port *models.Port, status models.PortStatus, at time.Time) {
	if c.publisher == nil {
		return
	}

	c.publisher.Publish(models.StreamMessage{
		Type: models.StreamPortStatus,
		Data: map[string]interface{}{
			"port_id":   port.ID,
			"device_id": port.DeviceID,
			"status":    status,
			"polled_at": at,
		},
		Timestamp: time.Now().UTC(),
	})
}

func (c *Collector) publishEvent(event *models.Event) {
	if c.publisher == nil {
		return
	}

	c.publisher.Publish(models.StreamMessage{
		Type:      models.StreamEventNotification,
		Data:      event,
		Timestamp: time.Now().UTC(),
	})
}
