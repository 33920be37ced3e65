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
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Bitshield/school-network-monitor/pkg/db"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

func eventFilterFrom(r *http.Request) (db.EventFilter, error) {
	q := r.URL.Query()

	filter := db.EventFilter{
		Severity: models.EventSeverity(q.Get("severity")),
		Type:     models.EventType(q.Get("type")),
		DeviceID: q.Get("device_id"),
		LinkID:   q.Get("link_id"),
	}

	if raw := q.Get("acknowledged"); raw != "" {
		acknowledged := raw == "true"
		filter.Acknowledged = &acknowledged
	}

	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}

		filter.Since = since
	}

	return filter, nil
}

func (s *APIServer) handleListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := eventFilterFrom(r)
	if err != nil {
		s.writeError(w, "since must be RFC 3339", http.StatusBadRequest)
		return
	}

	if filter.Severity != "" && !models.ValidEventSeverity(filter.Severity) {
		s.writeError(w, "unknown severity", http.StatusBadRequest)
		return
	}

	result, err := s.store.ListEvents(r.Context(), filter, parsePage(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleCreateEvent records an operator-entered event, for conditions the
// probes cannot see (planned outages, physical findings).
func (s *APIServer) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if !s.decodeJSON(w, r, &event) {
		return
	}

	if event.EventType == "" {
		s.writeError(w, "event_type is required", http.StatusBadRequest)
		return
	}

	if event.Message == "" {
		s.writeError(w, "message is required", http.StatusBadRequest)
		return
	}

	if event.Severity == "" {
		event.Severity = models.SeverityInfo
	}

	if !models.ValidEventSeverity(event.Severity) {
		s.writeError(w, "unknown severity", http.StatusBadRequest)
		return
	}

	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()

	if event.Source == "" {
		event.Source = "operator"
	}

	if err := s.store.CreateEvents(r.Context(), []*models.Event{&event}); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.hub.Publish(models.StreamMessage{
		Type:      models.StreamEventNotification,
		Data:      &event,
		Timestamp: event.CreatedAt,
	})

	s.writeJSON(w, http.StatusCreated, &event)
}

func (s *APIServer) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.store.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, event)
}

type eventActionRequest struct {
	By string `json:"by"`
}

func (s *APIServer) handleAcknowledgeEvent(w http.ResponseWriter, r *http.Request) {
	var req eventActionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if req.By == "" {
		s.writeError(w, "by is required", http.StatusBadRequest)
		return
	}

	event, err := s.store.AcknowledgeEvent(r.Context(), mux.Vars(r)["id"], req.By)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, event)
}

func (s *APIServer) handleResolveEvent(w http.ResponseWriter, r *http.Request) {
	var req eventActionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if req.By == "" {
		s.writeError(w, "by is required", http.StatusBadRequest)
		return
	}

	event, err := s.store.ResolveEvent(r.Context(), mux.Vars(r)["id"], req.By)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, event)
}
