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
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Bitshield/school-network-monitor/pkg/cablehealth"
	"github.com/Bitshield/school-network-monitor/pkg/db"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

const (
	defaultHistoryLimit   = 100
	defaultHistoryWindow  = 24 * time.Hour
	defaultScoreThreshold = 80.0
)

func linkFilterFrom(r *http.Request) db.LinkFilter {
	q := r.URL.Query()

	return db.LinkFilter{
		Status:   models.LinkStatus(q.Get("status")),
		DeviceID: q.Get("device_id"),
	}
}

func (s *APIServer) validateLink(w http.ResponseWriter, link *models.Link) bool {
	switch {
	case link.SourceDeviceID == "" || link.TargetDeviceID == "":
		s.writeError(w, "source_device_id and target_device_id are required", http.StatusBadRequest)
	case link.SourceDeviceID == link.TargetDeviceID:
		s.writeError(w, "a link cannot connect a device to itself", http.StatusBadRequest)
	default:
		return true
	}

	return false
}

func (s *APIServer) handleListLinks(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.ListLinks(r.Context(), linkFilterFrom(r), parsePage(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *APIServer) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var link models.Link
	if !s.decodeJSON(w, r, &link) {
		return
	}

	if link.LinkType == "" {
		link.LinkType = models.LinkTypePhysical
	}

	if link.Status == "" {
		link.Status = models.LinkStatusUnknown
	}

	if !s.validateLink(w, &link) {
		return
	}

	for _, deviceID := range []string{link.SourceDeviceID, link.TargetDeviceID} {
		if _, err := s.store.GetDevice(r.Context(), deviceID); err != nil {
			s.writeStoreError(w, err)
			return
		}
	}

	if err := s.store.CreateLink(r.Context(), &link); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.hub.Publish(models.StreamMessage{
		Type:      models.StreamTopologyUpdate,
		Data:      map[string]interface{}{"reason": "link_created", "link_id": link.ID},
		Timestamp: link.CreatedAt,
	})

	s.writeJSON(w, http.StatusCreated, &link)
}

func (s *APIServer) handleGetLink(w http.ResponseWriter, r *http.Request) {
	link, err := s.store.GetLink(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, link)
}

func (s *APIServer) handleUpdateLink(w http.ResponseWriter, r *http.Request) {
	var link models.Link
	if !s.decodeJSON(w, r, &link) {
		return
	}

	link.ID = mux.Vars(r)["id"]

	if !s.validateLink(w, &link) {
		return
	}

	if err := s.store.UpdateLink(r.Context(), &link); err != nil {
		s.writeStoreError(w, err)
		return
	}

	updated, err := s.store.GetLink(r.Context(), link.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *APIServer) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.store.DeleteLink(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.hub.Publish(models.StreamMessage{
		Type: models.StreamTopologyUpdate,
		Data: map[string]interface{}{"reason": "link_deleted", "link_id": id},
	})

	w.WriteHeader(http.StatusNoContent)
}

// handleTestLink probes a link's far endpoint on demand and returns a
// health sample without persisting a transition. The sample is still
// appended to the cable-health history.
func (s *APIServer) handleTestLink(w http.ResponseWriter, r *http.Request) {
	if s.linkProber == nil {
		s.writeError(w, "link testing is not enabled", http.StatusServiceUnavailable)
		return
	}

	link, err := s.store.GetLink(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	target, err := s.store.GetDevice(r.Context(), link.TargetDeviceID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if target.IP == "" {
		s.writeError(w, "link endpoint has no address to probe", http.StatusBadRequest)
		return
	}

	result, err := s.linkProber.Probe(r.Context(), models.Target{
		DeviceID: link.ID,
		Host:     target.IP,
		Protocol: models.ProtocolICMP,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	metric := cablehealth.MetricFrom(link.ID, &result)

	if err := s.store.InsertCableHealthMetric(r.Context(), metric); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, metric)
}

func (s *APIServer) handleCableHealthHistory(w http.ResponseWriter, r *http.Request) {
	linkID := mux.Vars(r)["id"]

	if _, err := s.store.GetLink(r.Context(), linkID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	q := r.URL.Query()

	since := time.Now().Add(-defaultHistoryWindow)

	if raw := q.Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(w, "since must be RFC 3339", http.StatusBadRequest)
			return
		}

		since = parsed
	}

	limit := defaultHistoryLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}

		limit = parsed
	}

	history, err := s.store.CableHealthHistory(r.Context(), linkID, since, limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, history)
}

func (s *APIServer) handleUnhealthyLinks(w http.ResponseWriter, r *http.Request) {
	threshold := defaultScoreThreshold

	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 100 {
			s.writeError(w, "threshold must be between 0 and 100", http.StatusBadRequest)
			return
		}

		threshold = parsed
	}

	metrics, err := s.store.UnhealthyLinks(r.Context(), threshold)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, metrics)
}
