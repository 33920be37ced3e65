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
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Bitshield/school-network-monitor/pkg/db"
	"github.com/Bitshield/school-network-monitor/pkg/models"
	"github.com/Bitshield/school-network-monitor/pkg/probe"
)

// parsePage reads pagination query parameters, clamped to the configured
// bounds.
func parsePage(r *http.Request) models.Page {
	number, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	return models.NewPage(number, size)
}

func deviceFilterFrom(r *http.Request) db.DeviceFilter {
	q := r.URL.Query()

	filter := db.DeviceFilter{
		Status: models.DeviceStatus(q.Get("status")),
		Type:   models.DeviceType(q.Get("type")),
	}

	if raw := q.Get("monitored"); raw != "" {
		monitored := raw == "true"
		filter.Monitored = &monitored
	}

	return filter
}

// validateDevice checks caller-supplied fields; it is shared by create and
// update.
func (s *APIServer) validateDevice(w http.ResponseWriter, device *models.Device) bool {
	switch {
	case device.Name == "":
		s.writeError(w, "name is required", http.StatusBadRequest)
	case device.IP == "":
		s.writeError(w, "ip is required", http.StatusBadRequest)
	case !models.ValidIP(device.IP):
		s.writeError(w, "invalid ip address", http.StatusBadRequest)
	case device.MAC != "" && !models.ValidMAC(device.MAC):
		s.writeError(w, "invalid mac address", http.StatusBadRequest)
	case !models.ValidDeviceType(device.DeviceType):
		s.writeError(w, "unknown device_type", http.StatusBadRequest)
	case !models.ValidDeviceStatus(device.Status):
		s.writeError(w, "unknown status", http.StatusBadRequest)
	default:
		return true
	}

	return false
}

func (s *APIServer) handleListDevices(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.ListDevices(r.Context(), deviceFilterFrom(r), parsePage(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *APIServer) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var device models.Device
	if !s.decodeJSON(w, r, &device) {
		return
	}

	if device.DeviceType == "" {
		device.DeviceType = models.DeviceTypeUnknown
	}

	if device.Status == "" {
		device.Status = models.DeviceStatusUnknown
	}

	if !s.validateDevice(w, &device) {
		return
	}

	if err := s.store.CreateDevice(r.Context(), &device); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.hub.Publish(models.StreamMessage{
		Type:      models.StreamTopologyUpdate,
		Data:      map[string]interface{}{"reason": "device_created", "device_id": device.ID},
		Timestamp: device.CreatedAt,
	})

	s.writeJSON(w, http.StatusCreated, &device)
}

func (s *APIServer) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.store.GetDevice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, device)
}

func (s *APIServer) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var device models.Device
	if !s.decodeJSON(w, r, &device) {
		return
	}

	device.ID = mux.Vars(r)["id"]

	if !s.validateDevice(w, &device) {
		return
	}

	if err := s.store.UpdateDevice(r.Context(), &device); err != nil {
		s.writeStoreError(w, err)
		return
	}

	updated, err := s.store.GetDevice(r.Context(), device.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *APIServer) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.store.DeleteDevice(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.hub.Publish(models.StreamMessage{
		Type: models.StreamTopologyUpdate,
		Data: map[string]interface{}{"reason": "device_deleted", "device_id": id},
	})

	w.WriteHeader(http.StatusNoContent)
}

// handlePingDevice probes one device on demand. An unreachable device is a
// 200 with an unavailable result; probe failure is data, not an error.
func (s *APIServer) handlePingDevice(w http.ResponseWriter, r *http.Request) {
	if s.prober == nil {
		s.writeError(w, "probing is not enabled", http.StatusServiceUnavailable)
		return
	}

	device, err := s.store.GetDevice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if device.IP == "" {
		s.writeError(w, "device has no address to probe", http.StatusBadRequest)
		return
	}

	protocol := models.ProbeProtocol(r.URL.Query().Get("protocol"))

	switch protocol {
	case "", models.ProtocolICMP, models.ProtocolTCP, models.ProtocolSNMP:
	default:
		s.writeError(w, "unknown protocol", http.StatusBadRequest)
		return
	}

	result, err := s.prober.Probe(r.Context(), models.Target{
		DeviceID:  device.ID,
		Host:      device.IP,
		Protocol:  protocol,
		Community: device.SNMPCommunity,
	})
	if err != nil {
		if errors.Is(err, probe.ErrUnknownProtocol) {
			s.writeError(w, "protocol is not enabled", http.StatusBadRequest)
			return
		}

		s.writeStoreError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, pingResponse(&result))
}

func pingResponse(result *models.ProbeResult) map[string]interface{} {
	resp := map[string]interface{}{
		"available":           result.Available,
		"packet_loss_percent": result.PacketLoss,
		"checked_at":          result.CheckedAt,
	}

	if result.Available {
		resp["latency_ms"] = result.LatencyAvgMs()
		resp["jitter_ms"] = result.JitterMs()
	} else {
		resp["failure"] = result.Failure
	}

	return resp
}
