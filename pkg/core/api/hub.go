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
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

const (
	clientSendBuffer = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxControlBytes  = 4096
)

// client is one connected dashboard. subscriptions nil means "everything".
type client struct {
	conn          *websocket.Conn
	send          chan models.StreamMessage
	subscriptions map[models.StreamMessageType]bool
	mu            sync.RWMutex
}

func (c *client) wants(msgType models.StreamMessageType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.subscriptions == nil {
		return true
	}

	return c.subscriptions[msgType]
}

func (c *client) subscribe(types []models.StreamMessageType) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(types) == 0 {
		c.subscriptions = nil
		return
	}

	c.subscriptions = make(map[models.StreamMessageType]bool, len(types))
	for _, t := range types {
		c.subscriptions[t] = true
	}
}

// Hub fans stream messages out to connected clients. Delivery is
// at-most-once: a client whose send buffer is full is dropped and must
// reconnect and re-fetch current state over REST.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  logger.Logger
	closed  bool
}

// NewHub builds an empty hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  log.WithComponent("hub"),
	}
}

// Run blocks until ctx is canceled, then closes every client connection.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Publish fans msg out to every subscribed client. It never blocks on a
// slow consumer: a full send buffer evicts the client instead.
func (h *Hub) Publish(msg models.StreamMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if !c.wants(msg.Type) {
			continue
		}

		select {
		case c.send <- msg:
		default:
			h.logger.Warn().Msg("dropping slow websocket client")
			close(c.send)
			delete(h.clients, c)
		}
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.clients[c] = struct{}{}

	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}
