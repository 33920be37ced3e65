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
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// handleWebSocket upgrades the connection and attaches it to the hub.
func (s *APIServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.checkWebSocketOrigin(r)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("websocket upgrade failed")

		return
	}

	c := &client{
		conn: conn,
		send: make(chan models.StreamMessage, clientSendBuffer),
	}

	if !s.hub.register(c) {
		_ = conn.Close()
		return
	}

	s.logger.Info().Str("remote_addr", r.RemoteAddr).Msg("websocket client connected")

	go s.writePump(c)
	go s.readPump(c, r.RemoteAddr)
}

func (s *APIServer) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.corsConfig.AllowedOrigins) == 0 {
		return true
	}

	for _, allowed := range s.corsConfig.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	return false
}

// readPump consumes control messages (PING keepalives and SUBSCRIBE
// filters) until the client disconnects.
func (s *APIServer) readPump(c *client, remote string) {
	defer func() {
		s.hub.unregister(c)
		_ = c.conn.Close()
		s.logger.Info().Str("remote_addr", remote).Msg("websocket client disconnected")
	}()

	c.conn.SetReadLimit(maxControlBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg models.ControlMessage

		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Str("remote_addr", remote).Msg("websocket read failed")
			}

			return
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case models.ControlPing:
			select {
			case c.send <- models.StreamMessage{Type: models.StreamPong, Timestamp: time.Now().UTC()}:
			default:
			}
		case models.ControlSubscribe:
			c.subscribe(msg.Types)
		default:
			s.logger.Debug().Str("type", msg.Type).Msg("ignoring unknown control message")
		}
	}
}

// writePump drains the client's send buffer onto the wire and keeps the
// connection alive with protocol-level pings.
func (s *APIServer) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
