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

	"github.com/gorilla/mux"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

func (s *APIServer) validatePort(w http.ResponseWriter, port *models.Port) bool {
	switch {
	case port.Name == "":
		s.writeError(w, "name is required", http.StatusBadRequest)
	case port.Number < 0:
		s.writeError(w, "number must be non-negative", http.StatusBadRequest)
	default:
		return true
	}

	return false
}

func (s *APIServer) handleListPorts(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	// Listing ports of a missing device is a 404, not an empty page.
	if _, err := s.store.GetDevice(r.Context(), deviceID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	result, err := s.store.ListPorts(r.Context(), deviceID, parsePage(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *APIServer) handleCreatePort(w http.ResponseWriter, r *http.Request) {
	var port models.Port
	if !s.decodeJSON(w, r, &port) {
		return
	}

	port.DeviceID = mux.Vars(r)["id"]

	if port.PortType == "" {
		port.PortType = models.PortTypeEthernet
	}

	if port.Status == "" {
		port.Status = models.PortStatusUnknown
	}

	if !s.validatePort(w, &port) {
		return
	}

	if _, err := s.store.GetDevice(r.Context(), port.DeviceID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	if err := s.store.CreatePort(r.Context(), &port); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, &port)
}

func (s *APIServer) handleGetPort(w http.ResponseWriter, r *http.Request) {
	port, err := s.store.GetPort(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, port)
}

func (s *APIServer) handleUpdatePort(w http.ResponseWriter, r *http.Request) {
	var port models.Port
	if !s.decodeJSON(w, r, &port) {
		return
	}

	port.ID = mux.Vars(r)["id"]

	if !s.validatePort(w, &port) {
		return
	}

	if err := s.store.UpdatePort(r.Context(), &port); err != nil {
		s.writeStoreError(w, err)
		return
	}

	updated, err := s.store.GetPort(r.Context(), port.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *APIServer) handleDeletePort(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePort(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
