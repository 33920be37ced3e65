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

package models

import "time"

// StreamMessageType tags messages pushed to dashboard clients.
type StreamMessageType string

const (
	StreamTopologyUpdate    StreamMessageType = "TOPOLOGY_UPDATE"
	StreamDeviceStatus      StreamMessageType = "DEVICE_STATUS"
	StreamLinkStatus        StreamMessageType = "LINK_STATUS"
	StreamPortStatus        StreamMessageType = "PORT_STATUS"
	StreamEventNotification StreamMessageType = "EVENT_NOTIFICATION"
	StreamScanComplete      StreamMessageType = "SCAN_COMPLETE"
	StreamPong              StreamMessageType = "PONG"
)

// StreamMessage is the push-channel envelope. Delivery is at-most-once per
// connected client; clients re-fetch current state over REST after a
// reconnect instead of relying on replay.
type StreamMessage struct {
	Type      StreamMessageType `json:"type"`
	Data      interface{}       `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// ControlMessage is what a client may send over the push channel: a PING
// keepalive or a SUBSCRIBE filter listing the message types it wants.
type ControlMessage struct {
	Type  string              `json:"type"`
	Types []StreamMessageType `json:"types,omitempty"`
}

const (
	ControlPing      = "PING"
	ControlSubscribe = "SUBSCRIBE"
)
