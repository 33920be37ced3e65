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

package db

import (
	"context"
	"time"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// DeviceFilter narrows device listings. Zero values mean "any".
type DeviceFilter struct {
	Status    models.DeviceStatus
	Type      models.DeviceType
	Monitored *bool
}

// LinkFilter narrows link listings.
type LinkFilter struct {
	Status   models.LinkStatus
	DeviceID string
}

// EventFilter narrows event listings.
type EventFilter struct {
	Severity     models.EventSeverity
	Type         models.EventType
	Acknowledged *bool
	DeviceID     string
	LinkID       string
	Since        time.Time
}

// DeviceStore is the device registry.
type DeviceStore interface {
	CreateDevice(ctx context.Context, device *models.Device) error
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	GetDeviceByIP(ctx context.Context, ip string) (*models.Device, error)
	ListDevices(ctx context.Context, filter DeviceFilter, page models.Page) (*models.PagedResult[models.Device], error)
	ListMonitoredDevices(ctx context.Context) ([]*models.Device, error)
	UpdateDevice(ctx context.Context, device *models.Device) error
	UpdateDeviceStatus(ctx context.Context, id string, status models.DeviceStatus, lastSeen time.Time) error
	DeleteDevice(ctx context.Context, id string) error
}

// PortStore manages per-device ports and their traffic counters.
type PortStore interface {
	CreatePort(ctx context.Context, port *models.Port) error
	GetPort(ctx context.Context, id string) (*models.Port, error)
	ListPorts(ctx context.Context, deviceID string, page models.Page) (*models.PagedResult[models.Port], error)
	UpdatePort(ctx context.Context, port *models.Port) error
	UpdatePortStats(ctx context.Context, id string, stats models.PortStats, polledAt time.Time) error
	DeletePort(ctx context.Context, id string) error
}

// LinkStore manages device-to-device links.
type LinkStore interface {
	CreateLink(ctx context.Context, link *models.Link) error
	GetLink(ctx context.Context, id string) (*models.Link, error)
	ListLinks(ctx context.Context, filter LinkFilter, page models.Page) (*models.PagedResult[models.Link], error)
	ListAllLinks(ctx context.Context) ([]*models.Link, error)
	UpdateLink(ctx context.Context, link *models.Link) error
	UpdateLinkHealth(ctx context.Context, id string, status models.LinkStatus, latencyMs, lossPct, jitterMs float64, checkedAt time.Time) error
	DeleteLink(ctx context.Context, id string) error
}

// EventStore appends and queries immutable event records. Only the
// acknowledge/resolve operations mutate an event after creation.
type EventStore interface {
	CreateEvents(ctx context.Context, events []*models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context, filter EventFilter, page models.Page) (*models.PagedResult[models.Event], error)
	AcknowledgeEvent(ctx context.Context, id, acknowledgedBy string) (*models.Event, error)
	ResolveEvent(ctx context.Context, id, resolvedBy string) (*models.Event, error)
}

// CableHealthStore is the append-only link-quality time series.
type CableHealthStore interface {
	InsertCableHealthMetric(ctx context.Context, metric *models.CableHealthMetric) error
	CableHealthHistory(ctx context.Context, linkID string, since time.Time, limit int) ([]*models.CableHealthMetric, error)
	UnhealthyLinks(ctx context.Context, threshold float64) ([]*models.CableHealthMetric, error)
}

// Store is the full persistence surface consumed by the API server, the
// monitor cycle, and the discovery engine.
type Store interface {
	DeviceStore
	PortStore
	LinkStore
	EventStore
	CableHealthStore

	Statistics(ctx context.Context) (*models.Statistics, error)
	Ping(ctx context.Context) error
	Close()
}
