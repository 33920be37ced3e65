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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Bitshield/school-network-monitor/pkg/db"
	"github.com/Bitshield/school-network-monitor/pkg/discovery"
	"github.com/Bitshield/school-network-monitor/pkg/monitor"
)

// ErrorResponse is the JSON body of every non-2xx answer. The message is
// shown to operators as-is.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, &ErrorResponse{Message: message, Status: status})
}

// writeStoreError maps the error taxonomy onto HTTP statuses: not-found
// 404, conflicts 409, bad input 400, everything else 500. Probe failures
// never reach here; they are data, not errors.
func (s *APIServer) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		s.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, db.ErrDuplicateAddress):
		s.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, monitor.ErrCycleInProgress),
		errors.Is(err, discovery.ErrScanInProgress):
		s.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, discovery.ErrInvalidCIDR),
		errors.Is(err, discovery.ErrRangeTooLarge):
		s.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.writeError(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *APIServer) decodeJSON(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}
