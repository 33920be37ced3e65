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
	"sort"

	"github.com/gorilla/mux"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// snmpInterface is one row of the on-demand interface table response.
type snmpInterface struct {
	Index     int               `json:"index"`
	Name      string            `json:"name"`
	Status    models.PortStatus `json:"status"`
	SpeedMbps int64             `json:"speed_mbps"`
	RxBytes   uint64            `json:"rx_bytes"`
	TxBytes   uint64            `json:"tx_bytes"`
	RxErrors  uint64            `json:"rx_errors"`
	TxErrors  uint64            `json:"tx_errors"`
}

// handleDeviceSNMP walks the device's interface table on demand. Unlike the
// background collector it does not touch the port inventory; the caller gets
// the raw table.
func (s *APIServer) handleDeviceSNMP(w http.ResponseWriter, r *http.Request) {
	if s.snmpClient == nil {
		s.writeError(w, "snmp is not enabled", http.StatusServiceUnavailable)
		return
	}

	device, err := s.store.GetDevice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if device.IP == "" {
		s.writeError(w, "device has no address to query", http.StatusBadRequest)
		return
	}

	if device.SNMPCommunity == "" {
		s.writeError(w, "device has no snmp community configured", http.StatusBadRequest)
		return
	}

	interfaces, err := s.snmpClient.FetchInterfaces(r.Context(), device.IP, device.SNMPCommunity)
	if err != nil {
		s.logger.Warn().Err(err).Str("device_id", device.ID).Msg("snmp query failed")
		s.writeError(w, "snmp query failed", http.StatusBadGateway)

		return
	}

	rows := make([]snmpInterface, 0, len(interfaces))

	for _, entry := range interfaces {
		rows = append(rows, snmpInterface{
			Index:     entry.Index,
			Name:      entry.Name,
			Status:    entry.Stats.Status,
			SpeedMbps: entry.Stats.SpeedMbps,
			RxBytes:   entry.Stats.RxBytes,
			TxBytes:   entry.Stats.TxBytes,
			RxErrors:  entry.Stats.RxErrors,
			TxErrors:  entry.Stats.TxErrors,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"device_id":  device.ID,
		"ip":         device.IP,
		"interfaces": rows,
	})
}
