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

// Package api provides the HTTP API server for the network monitor: REST
// CRUD over the inventory, monitoring/discovery actions, and the WebSocket
// push channel.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Bitshield/school-network-monitor/pkg/db"
	bshttp "github.com/Bitshield/school-network-monitor/pkg/http"
	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
	"github.com/Bitshield/school-network-monitor/pkg/probe"
	"github.com/Bitshield/school-network-monitor/pkg/snmp"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// APIServer serves the REST API and the WebSocket push channel.
type APIServer struct {
	store      db.Store
	cycles     CycleRunner
	discoverer Discoverer
	prober     probe.Prober
	linkProber probe.Prober
	snmpClient snmp.InterfaceFetcher
	hub        *Hub
	router     *mux.Router
	httpServer *http.Server
	corsConfig models.CORSConfig
	apiKey     string
	logger     logger.Logger
}

// NewAPIServer creates an API server. The hub starts pumping when Start is
// called.
func NewAPIServer(store db.Store, corsConfig models.CORSConfig, log logger.Logger, options ...func(*APIServer)) *APIServer {
	s := &APIServer{
		store:      store,
		router:     mux.NewRouter(),
		corsConfig: corsConfig,
		logger:     log.WithComponent("api"),
	}

	for _, o := range options {
		o(s)
	}

	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}

	s.setupRoutes()

	return s
}

// WithCycleRunner wires the manual run-cycle action.
func WithCycleRunner(c CycleRunner) func(*APIServer) {
	return func(server *APIServer) {
		server.cycles = c
	}
}

// WithDiscoverer wires the network scan action.
func WithDiscoverer(d Discoverer) func(*APIServer) {
	return func(server *APIServer) {
		server.discoverer = d
	}
}

// WithProber wires the single-device ping action.
func WithProber(p probe.Prober) func(*APIServer) {
	return func(server *APIServer) {
		server.prober = p
	}
}

// WithLinkProber wires the link test action; it typically sends more echoes
// than the device prober so jitter is meaningful.
func WithLinkProber(p probe.Prober) func(*APIServer) {
	return func(server *APIServer) {
		server.linkProber = p
	}
}

// WithInterfaceFetcher wires the on-demand SNMP interface query.
func WithInterfaceFetcher(f snmp.InterfaceFetcher) func(*APIServer) {
	return func(server *APIServer) {
		server.snmpClient = f
	}
}

// WithAPIKey requires the key on every /api route.
func WithAPIKey(key string) func(*APIServer) {
	return func(server *APIServer) {
		server.apiKey = key
	}
}

// WithHub substitutes the push hub, for tests.
func WithHub(hub *Hub) func(*APIServer) {
	return func(server *APIServer) {
		server.hub = hub
	}
}

// Hub exposes the push channel so the monitor and discovery engines can
// publish through it.
func (s *APIServer) Hub() *Hub {
	return s.hub
}

// Router exposes the handler tree, for tests and embedding.
func (s *APIServer) Router() *mux.Router {
	return s.router
}

func (s *APIServer) setupRoutes() {
	s.router.Use(bshttp.CORSMiddleware(s.corsConfig))
	s.router.Use(bshttp.LoggingMiddleware(s.logger))

	// Health stays unauthenticated for load balancers.
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(bshttp.APIKeyMiddleware(s.apiKey, s.logger))

	api.HandleFunc("/devices", s.handleListDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices", s.handleCreateDevice).Methods(http.MethodPost)
	api.HandleFunc("/devices/{id}", s.handleGetDevice).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}", s.handleUpdateDevice).Methods(http.MethodPut)
	api.HandleFunc("/devices/{id}", s.handleDeleteDevice).Methods(http.MethodDelete)
	api.HandleFunc("/devices/{id}/ping", s.handlePingDevice).Methods(http.MethodPost)
	api.HandleFunc("/devices/{id}/ports", s.handleListPorts).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}/ports", s.handleCreatePort).Methods(http.MethodPost)
	api.HandleFunc("/devices/{id}/snmp", s.handleDeviceSNMP).Methods(http.MethodGet)

	api.HandleFunc("/ports/{id}", s.handleGetPort).Methods(http.MethodGet)
	api.HandleFunc("/ports/{id}", s.handleUpdatePort).Methods(http.MethodPut)
	api.HandleFunc("/ports/{id}", s.handleDeletePort).Methods(http.MethodDelete)

	api.HandleFunc("/links", s.handleListLinks).Methods(http.MethodGet)
	api.HandleFunc("/links", s.handleCreateLink).Methods(http.MethodPost)
	api.HandleFunc("/links/{id}", s.handleGetLink).Methods(http.MethodGet)
	api.HandleFunc("/links/{id}", s.handleUpdateLink).Methods(http.MethodPut)
	api.HandleFunc("/links/{id}", s.handleDeleteLink).Methods(http.MethodDelete)
	api.HandleFunc("/links/{id}/test", s.handleTestLink).Methods(http.MethodPost)
	api.HandleFunc("/links/{id}/cable-health", s.handleCableHealthHistory).Methods(http.MethodGet)

	api.HandleFunc("/cable-health/unhealthy", s.handleUnhealthyLinks).Methods(http.MethodGet)

	api.HandleFunc("/events", s.handleListEvents).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleCreateEvent).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}", s.handleGetEvent).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}/acknowledge", s.handleAcknowledgeEvent).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/resolve", s.handleResolveEvent).Methods(http.MethodPost)

	api.HandleFunc("/monitoring/cycle", s.handleRunCycle).Methods(http.MethodPost)
	api.HandleFunc("/monitoring/status", s.handleMonitoringStatus).Methods(http.MethodGet)
	api.HandleFunc("/discovery/scan", s.handleDiscoveryScan).Methods(http.MethodPost)
	api.HandleFunc("/statistics", s.handleStatistics).Methods(http.MethodGet)

	api.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
}

// Start begins serving on addr and blocks until ctx is canceled or the
// listener fails.
func (s *APIServer) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	go s.hub.Run(ctx)

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", addr).Msg("api server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}

		return nil
	}
}
