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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// dialTestSocket serves the router over a real listener and opens a
// websocket connection against it.
func dialTestSocket(t *testing.T, server *APIServer) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readStreamMessage(t *testing.T, conn *websocket.Conn) models.StreamMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg models.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func TestWebSocketPingYieldsPong(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialTestSocket(t, server)

	require.NoError(t, conn.WriteJSON(models.ControlMessage{Type: models.ControlPing}))

	msg := readStreamMessage(t, conn)
	assert.Equal(t, models.StreamPong, msg.Type)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestWebSocketSubscribeFiltersStream(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialTestSocket(t, server)

	require.NoError(t, conn.WriteJSON(models.ControlMessage{
		Type:  models.ControlSubscribe,
		Types: []models.StreamMessageType{models.StreamEventNotification},
	}))

	// Control messages are handled in order, so a PONG round trip proves
	// the subscription is in effect before anything is published.
	require.NoError(t, conn.WriteJSON(models.ControlMessage{Type: models.ControlPing}))
	require.Equal(t, models.StreamPong, readStreamMessage(t, conn).Type)

	server.Hub().Publish(models.StreamMessage{Type: models.StreamDeviceStatus})
	server.Hub().Publish(models.StreamMessage{
		Type: models.StreamEventNotification,
		Data: map[string]interface{}{"id": "e1"},
	})

	// The filtered-out DEVICE_STATUS never arrives; the next frame on the
	// wire is the event notification.
	msg := readStreamMessage(t, conn)
	assert.Equal(t, models.StreamEventNotification, msg.Type)
}

func TestWebSocketIgnoresUnknownControlType(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialTestSocket(t, server)

	require.NoError(t, conn.WriteJSON(models.ControlMessage{Type: "DANCE"}))

	// The connection survives; a keepalive still answers.
	require.NoError(t, conn.WriteJSON(models.ControlMessage{Type: models.ControlPing}))
	assert.Equal(t, models.StreamPong, readStreamMessage(t, conn).Type)
}
