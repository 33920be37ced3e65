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

package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Bitshield/school-network-monitor/pkg/db"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// fakeStore is an in-memory db.Store for handler tests.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int
	devices map[string]*models.Device
	ports   map[string]*models.Port
	links   map[string]*models.Link
	events  map[string]*models.Event
	metrics []*models.CableHealthMetric

	pingErr  error
	statsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		devices: make(map[string]*models.Device),
		ports:   make(map[string]*models.Port),
		links:   make(map[string]*models.Link),
		events:  make(map[string]*models.Event),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateDevice(_ context.Context, device *models.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.devices {
		if existing.IP == device.IP {
			return db.ErrDuplicateAddress
		}
	}

	if device.ID == "" {
		device.ID = f.id("dev")
	}

	device.CreatedAt = time.Now().UTC()
	device.UpdatedAt = device.CreatedAt

	clone := *device
	f.devices[device.ID] = &clone

	return nil
}

func (f *fakeStore) GetDevice(_ context.Context, id string) (*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	device, ok := f.devices[id]
	if !ok {
		return nil, db.ErrNotFound
	}

	clone := *device

	return &clone, nil
}

func (f *fakeStore) GetDeviceByIP(_ context.Context, ip string) (*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, device := range f.devices {
		if device.IP == ip {
			clone := *device
			return &clone, nil
		}
	}

	return nil, db.ErrNotFound
}

func (f *fakeStore) ListDevices(_ context.Context, filter db.DeviceFilter, page models.Page) (*models.PagedResult[models.Device], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []models.Device

	for _, device := range f.devices {
		if filter.Status != "" && device.Status != filter.Status {
			continue
		}

		if filter.Type != "" && device.DeviceType != filter.Type {
			continue
		}

		all = append(all, *device)
	}

	return pageOf(all, page), nil
}

func (f *fakeStore) ListMonitoredDevices(_ context.Context) ([]*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Device

	for _, device := range f.devices {
		if device.IsMonitored {
			clone := *device
			out = append(out, &clone)
		}
	}

	return out, nil
}

func (f *fakeStore) UpdateDevice(_ context.Context, device *models.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.devices[device.ID]
	if !ok {
		return db.ErrNotFound
	}

	device.CreatedAt = existing.CreatedAt
	device.UpdatedAt = time.Now().UTC()

	clone := *device
	f.devices[device.ID] = &clone

	return nil
}

func (f *fakeStore) UpdateDeviceStatus(_ context.Context, id string, status models.DeviceStatus, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	device, ok := f.devices[id]
	if !ok {
		return db.ErrNotFound
	}

	device.Status = status
	device.LastSeen = &lastSeen

	return nil
}

func (f *fakeStore) DeleteDevice(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.devices[id]; !ok {
		return db.ErrNotFound
	}

	delete(f.devices, id)

	return nil
}

func (f *fakeStore) CreatePort(_ context.Context, port *models.Port) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if port.ID == "" {
		port.ID = f.id("port")
	}

	clone := *port
	f.ports[port.ID] = &clone

	return nil
}

func (f *fakeStore) GetPort(_ context.Context, id string) (*models.Port, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	port, ok := f.ports[id]
	if !ok {
		return nil, db.ErrNotFound
	}

	clone := *port

	return &clone, nil
}

func (f *fakeStore) ListPorts(_ context.Context, deviceID string, page models.Page) (*models.PagedResult[models.Port], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []models.Port

	for _, port := range f.ports {
		if port.DeviceID == deviceID {
			all = append(all, *port)
		}
	}

	return pageOf(all, page), nil
}

func (f *fakeStore) UpdatePort(_ context.Context, port *models.Port) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.ports[port.ID]; !ok {
		return db.ErrNotFound
	}

	clone := *port
	f.ports[port.ID] = &clone

	return nil
}

func (f *fakeStore) UpdatePortStats(_ context.Context, id string, stats models.PortStats, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	port, ok := f.ports[id]
	if !ok {
		return db.ErrNotFound
	}

	port.Status = stats.Status

	return nil
}

func (f *fakeStore) DeletePort(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.ports[id]; !ok {
		return db.ErrNotFound
	}

	delete(f.ports, id)

	return nil
}

func (f *fakeStore) CreateLink(_ context.Context, link *models.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if link.ID == "" {
		link.ID = f.id("link")
	}

	clone := *link
	f.links[link.ID] = &clone

	return nil
}

func (f *fakeStore) GetLink(_ context.Context, id string) (*models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	link, ok := f.links[id]
	if !ok {
		return nil, db.ErrNotFound
	}

	clone := *link

	return &clone, nil
}

func (f *fakeStore) ListLinks(_ context.Context, _ db.LinkFilter, page models.Page) (*models.PagedResult[models.Link], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []models.Link

	for _, link := range f.links {
		all = append(all, *link)
	}

	return pageOf(all, page), nil
}

func (f *fakeStore) ListAllLinks(_ context.Context) ([]*models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Link

	for _, link := range f.links {
		clone := *link
		out = append(out, &clone)
	}

	return out, nil
}

func (f *fakeStore) UpdateLink(_ context.Context, link *models.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.links[link.ID]; !ok {
		return db.ErrNotFound
	}

	clone := *link
	f.links[link.ID] = &clone

	return nil
}

func (f *fakeStore) UpdateLinkHealth(_ context.Context, id string, status models.LinkStatus, latencyMs, lossPct, jitterMs float64, checkedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	link, ok := f.links[id]
	if !ok {
		return db.ErrNotFound
	}

	link.Status = status
	link.LatencyMs = latencyMs
	link.PacketLossPct = lossPct
	link.JitterMs = jitterMs
	link.LastChecked = &checkedAt

	return nil
}

func (f *fakeStore) DeleteLink(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.links[id]; !ok {
		return db.ErrNotFound
	}

	delete(f.links, id)

	return nil
}

func (f *fakeStore) CreateEvents(_ context.Context, events []*models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, event := range events {
		if event.ID == "" {
			event.ID = f.id("evt")
		}

		clone := *event
		f.events[event.ID] = &clone
	}

	return nil
}

func (f *fakeStore) GetEvent(_ context.Context, id string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[id]
	if !ok {
		return nil, db.ErrNotFound
	}

	clone := *event

	return &clone, nil
}

func (f *fakeStore) ListEvents(_ context.Context, filter db.EventFilter, page models.Page) (*models.PagedResult[models.Event], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []models.Event

	for _, event := range f.events {
		if filter.Severity != "" && event.Severity != filter.Severity {
			continue
		}

		all = append(all, *event)
	}

	return pageOf(all, page), nil
}

func (f *fakeStore) AcknowledgeEvent(_ context.Context, id, acknowledgedBy string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[id]
	if !ok {
		return nil, db.ErrNotFound
	}

	now := time.Now().UTC()
	event.Acknowledged = true
	event.AcknowledgedBy = acknowledgedBy
	event.AcknowledgedAt = &now

	clone := *event

	return &clone, nil
}

func (f *fakeStore) ResolveEvent(_ context.Context, id, resolvedBy string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[id]
	if !ok {
		return nil, db.ErrNotFound
	}

	now := time.Now().UTC()
	event.Resolved = true
	event.ResolvedBy = resolvedBy
	event.ResolvedAt = &now

	clone := *event

	return &clone, nil
}

func (f *fakeStore) InsertCableHealthMetric(_ context.Context, metric *models.CableHealthMetric) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	clone := *metric
	f.metrics = append(f.metrics, &clone)

	return nil
}

func (f *fakeStore) CableHealthHistory(_ context.Context, linkID string, since time.Time, limit int) ([]*models.CableHealthMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.CableHealthMetric

	for _, metric := range f.metrics {
		if metric.LinkID != linkID || metric.MeasuredAt.Before(since) {
			continue
		}

		clone := *metric
		out = append(out, &clone)

		if len(out) == limit {
			break
		}
	}

	return out, nil
}

func (f *fakeStore) UnhealthyLinks(_ context.Context, threshold float64) ([]*models.CableHealthMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.CableHealthMetric

	for _, metric := range f.metrics {
		if metric.HealthScore < threshold {
			clone := *metric
			out = append(out, &clone)
		}
	}

	return out, nil
}

func (f *fakeStore) Statistics(_ context.Context) (*models.Statistics, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return &models.Statistics{
		TotalDevices: len(f.devices),
		TotalLinks:   len(f.links),
		TotalPorts:   len(f.ports),
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func (f *fakeStore) Ping(_ context.Context) error {
	return f.pingErr
}

func (f *fakeStore) Close() {}

func pageOf[T any](all []T, page models.Page) *models.PagedResult[T] {
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}

	end := start + page.Limit()
	if end > len(all) {
		end = len(all)
	}

	return &models.PagedResult[T]{
		Items:    all[start:end],
		Total:    len(all),
		Page:     page.Number,
		PageSize: page.Size,
	}
}
