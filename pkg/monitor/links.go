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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Bitshield/school-network-monitor/pkg/cablehealth"
	"github.com/Bitshield/school-network-monitor/pkg/db"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// Quality thresholds for link alerting, in the units stored on the link.
const (
	highLatencyMs   = 100.0
	highLossPct     = 5.0
	highJitterMs    = 20.0
	degradedScore   = 60.0
	linkQualityFrom = 80.0
)

// runLinkPass probes the far endpoint of every link, refreshes link quality
// fields, appends a cable-health sample, and emits transition events.
func (m *Monitor) runLinkPass(ctx context.Context, summary *CycleSummary) error {
	links, err := m.store.ListAllLinks(ctx)
	if err != nil {
		return fmt.Errorf("list links: %w", err)
	}

	byID := make(map[string]*models.Link, len(links))
	targets := make([]models.Target, 0, len(links))

	for _, link := range links {
		host, err := m.linkHost(ctx, link)
		if err != nil {
			return err
		}

		if host == "" {
			continue
		}

		byID[link.ID] = link
		targets = append(targets, models.Target{
			DeviceID: link.ID,
			Host:     host,
			Protocol: models.ProtocolICMP,
		})
	}

	summary.LinksProbed = len(targets)

	results := make([]models.ProbeResult, 0, len(targets))

	for result := range m.linkScan.Scan(ctx, targets) {
		results = append(results, result)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var events []*models.Event

	for i := range results {
		result := &results[i]

		link, ok := byID[result.Target.DeviceID]
		if !ok {
			continue
		}

		linkEvents, err := m.diffLink(ctx, link, result, summary)
		if err != nil {
			return err
		}

		events = append(events, linkEvents...)
	}

	// Drop debounce counters for links no longer in the inventory.
	for id := range m.linkFailures {
		if _, ok := byID[id]; !ok {
			delete(m.linkFailures, id)
		}
	}

	return m.persistEvents(ctx, events, summary)
}

// linkHost picks the address to probe for a link: the target endpoint, or
// the source endpoint when the target has no address.
func (m *Monitor) linkHost(ctx context.Context, link *models.Link) (string, error) {
	for _, id := range []string{link.TargetDeviceID, link.SourceDeviceID} {
		if id == "" {
			continue
		}

		device, err := m.store.GetDevice(ctx, id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				continue
			}

			return "", fmt.Errorf("link %s endpoint: %w", link.ID, err)
		}

		if device.IP != "" {
			return device.IP, nil
		}
	}

	return "", nil
}

func (m *Monitor) diffLink(ctx context.Context, link *models.Link, result *models.ProbeResult, summary *CycleSummary) ([]*models.Event, error) {
	metric := cablehealth.MetricFrom(link.ID, result)

	var next models.LinkStatus

	if result.Available {
		m.linkFailures[link.ID] = 0

		if metric.HealthScore < degradedScore {
			next = models.LinkStatusDegraded
		} else {
			next = models.LinkStatusUp
		}
	} else {
		m.linkFailures[link.ID]++

		if m.linkFailures[link.ID] < m.config.FailureThreshold {
			// The sample still lands in the history; only the status
			// flip waits for the threshold.
			if err := m.store.InsertCableHealthMetric(ctx, metric); err != nil {
				return nil, fmt.Errorf("record cable health for link %s: %w", link.ID, err)
			}

			return nil, nil
		}

		next = models.LinkStatusDown
	}

	if err := m.store.UpdateLinkHealth(ctx, link.ID, next,
		metric.LatencyAvgMs, metric.PacketLossPct, metric.JitterMs, metric.MeasuredAt); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			m.logger.Debug().Str("link_id", link.ID).Msg("link deleted mid-cycle, skipping")
			delete(m.linkFailures, link.ID)

			return nil, nil
		}

		return nil, fmt.Errorf("update link %s: %w", link.ID, err)
	}

	if err := m.store.InsertCableHealthMetric(ctx, metric); err != nil {
		return nil, fmt.Errorf("record cable health for link %s: %w", link.ID, err)
	}

	var events []*models.Event

	if result.Available {
		events = m.linkQualityEvents(link, metric)
	}

	if link.Status != next {
		summary.Transitions++
		m.publishLinkStatus(link.ID, next, metric)

		events = append(events, m.linkEvent(link, next, metric))
	}

	return events, nil
}

func (m *Monitor) linkEvent(link *models.Link, next models.LinkStatus, metric *models.CableHealthMetric) *models.Event {
	event := &models.Event{
		ID:        uuid.NewString(),
		LinkID:    link.ID,
		Source:    eventSource,
		CreatedAt: metric.MeasuredAt,
		Details: map[string]string{
			"link_name":       link.Name,
			"previous_status": string(link.Status),
			"health_score":    fmt.Sprintf("%.0f", metric.HealthScore),
		},
	}

	switch next {
	case models.LinkStatusUp:
		event.EventType = models.EventLinkUp
		event.Severity = models.SeverityInfo
		event.Message = fmt.Sprintf("Link %s is up", linkLabel(link))
	case models.LinkStatusDegraded:
		event.EventType = models.EventLinkDegraded
		event.Severity = models.SeverityMedium
		event.Message = fmt.Sprintf("Link %s is degraded (score %.0f)", linkLabel(link), metric.HealthScore)
	default:
		event.EventType = models.EventLinkDown
		event.Severity = models.SeverityHigh
		event.Message = fmt.Sprintf("Link %s is down", linkLabel(link))
	}

	return event
}

// linkQualityEvents emits threshold-crossing alerts by comparing the new
// sample against the values persisted by the previous cycle, so a link that
// stays bad alerts once, not every cycle.
func (m *Monitor) linkQualityEvents(link *models.Link, metric *models.CableHealthMetric) []*models.Event {
	if link.LastChecked == nil {
		return nil
	}

	var events []*models.Event

	if metric.LatencyAvgMs > highLatencyMs && link.LatencyMs <= highLatencyMs {
		events = append(events, m.qualityEvent(link, metric, models.EventHighLatency,
			fmt.Sprintf("High latency on link %s: %.1fms", linkLabel(link), metric.LatencyAvgMs)))
	}

	if metric.PacketLossPct > highLossPct && link.PacketLossPct <= highLossPct {
		events = append(events, m.qualityEvent(link, metric, models.EventHighPacketLoss,
			fmt.Sprintf("High packet loss on link %s: %.1f%%", linkLabel(link), metric.PacketLossPct)))
	}

	if metric.JitterMs > highJitterMs && link.JitterMs <= highJitterMs {
		events = append(events, m.qualityEvent(link, metric, models.EventHighJitter,
			fmt.Sprintf("High jitter on link %s: %.1fms", linkLabel(link), metric.JitterMs)))
	}

	prevScore := cablehealth.Score(link.LatencyMs, link.PacketLossPct, link.JitterMs)

	if metric.Status == models.CableHealthCritical && cablehealth.StatusFor(prevScore) != models.CableHealthCritical {
		events = append(events, m.qualityEvent(link, metric, models.EventCableHealthCritical,
			fmt.Sprintf("Cable health critical on link %s (score %.0f)", linkLabel(link), metric.HealthScore)))
	} else if metric.HealthScore < linkQualityFrom && prevScore >= linkQualityFrom {
		events = append(events, m.qualityEvent(link, metric, models.EventCableHealthDegraded,
			fmt.Sprintf("Cable health degraded on link %s (score %.0f)", linkLabel(link), metric.HealthScore)))
	}

	return events
}

func (m *Monitor) qualityEvent(link *models.Link, metric *models.CableHealthMetric, eventType models.EventType, message string) *models.Event {
	severity := models.SeverityMedium
	if eventType == models.EventCableHealthCritical {
		severity = models.SeverityHigh
	}

	return &models.Event{
		ID:        uuid.NewString(),
		EventType: eventType,
		Severity:  severity,
		LinkID:    link.ID,
		Message:   message,
		Source:    eventSource,
		CreatedAt: metric.MeasuredAt,
		Details: map[string]string{
			"latency_ms":   fmt.Sprintf("%.1f", metric.LatencyAvgMs),
			"loss_percent": fmt.Sprintf("%.1f", metric.PacketLossPct),
			"jitter_ms":    fmt.Sprintf("%.1f", metric.JitterMs),
			"health_score": fmt.Sprintf("%.0f", metric.HealthScore),
		},
	}
}

func (m *Monitor) publishLinkStatus(linkID string, status models.LinkStatus, metric *models.CableHealthMetric) {
	if m.publisher == nil {
		return
	}

	m.publisher.Publish(models.StreamMessage{
		Type: models.StreamLinkStatus,
		Data: map[string]interface{}{
			"link_id":      linkID,
			"status":       status,
			"health_score": metric.HealthScore,
			"checked_at":   metric.MeasuredAt,
		},
		Timestamp: time.Now().UTC(),
	})
}

func linkLabel(link *models.Link) string {
	if link.Name != "" {
		return link.Name
	}

	return link.ID
}
