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
)

// handleRunCycle triggers one monitoring cycle and waits for it. A trigger
// while a cycle is in flight is rejected with a conflict, never coalesced
// into a second concurrent cycle.
func (s *APIServer) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	if s.cycles == nil {
		s.writeError(w, "monitoring is not enabled", http.StatusServiceUnavailable)
		return
	}

	summary, err := s.cycles.RunCycle(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// handleMonitoringStatus reports the cycle driver's phase and the last
// cycle's outcome.
func (s *APIServer) handleMonitoringStatus(w http.ResponseWriter, _ *http.Request) {
	if s.cycles == nil {
		s.writeError(w, "monitoring is not enabled", http.StatusServiceUnavailable)
		return
	}

	status := s.cycles.Status()
	s.writeJSON(w, http.StatusOK, &status)
}

type scanRequest struct {
	CIDR string `json:"cidr"`
}

// handleDiscoveryScan sweeps a CIDR range and registers responders.
func (s *APIServer) handleDiscoveryScan(w http.ResponseWriter, r *http.Request) {
	if s.discoverer == nil {
		s.writeError(w, "discovery is not enabled", http.StatusServiceUnavailable)
		return
	}

	var req scanRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if req.CIDR == "" {
		s.writeError(w, "cidr is required", http.StatusBadRequest)
		return
	}

	report, err := s.discoverer.DiscoverAndSave(r.Context(), req.CIDR)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *APIServer) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Statistics(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Clients   int       `json:"websocket_clients"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealth reports liveness plus a database reachability check.
func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := &healthResponse{
		Status:    "ok",
		Database:  "ok",
		Clients:   s.hub.ClientCount(),
		Timestamp: time.Now().UTC(),
	}

	if err := s.store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()

		s.writeJSON(w, http.StatusServiceUnavailable, resp)

		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}
