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

package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

func TestVendorFromMAC(t *testing.T) {
	assert.Equal(t, "Cisco", VendorFromMAC("00:40:96:AA:BB:CC"))
	assert.Equal(t, "Raspberry Pi", VendorFromMAC("b8:27:eb:12:34:56"))
	assert.Equal(t, "Ubiquiti", VendorFromMAC("24-A4-3C-00-11-22"))
	assert.Empty(t, VendorFromMAC("FF:FF:FF:00:00:00"))
	assert.Empty(t, VendorFromMAC(""))
	assert.Empty(t, VendorFromMAC("00:40"))
}

func TestGuessDeviceTypeFromHostname(t *testing.T) {
	tests := []struct {
		hostname string
		want     models.DeviceType
	}{
		{"rtr-main.school.local", models.DeviceTypeRouter},
		{"sw-lib-2", models.DeviceTypeSwitch},
		{"AP-GYM", models.DeviceTypeAP},
		{"cam-entrance", models.DeviceTypeCamera},
		{"printer-staffroom", models.DeviceTypePrinter},
		{"srv-files", models.DeviceTypeServer},
		{"pc-lab-14", models.DeviceTypePC},
		{"fw-edge", models.DeviceTypeFirewall},
		{"mystery-box", models.DeviceTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GuessDeviceType(tt.hostname, ""), "hostname %q", tt.hostname)
	}
}

func TestGuessDeviceTypeHostnameBeatsVendor(t *testing.T) {
	// A Cisco box named like an access point is an access point.
	assert.Equal(t, models.DeviceTypeAP, GuessDeviceType("ap-lib2", "Cisco"))
}

func TestGuessDeviceTypeFallsBackToVendor(t *testing.T) {
	assert.Equal(t, models.DeviceTypeCamera, GuessDeviceType("", "Hikvision"))
	assert.Equal(t, models.DeviceTypePrinter, GuessDeviceType("host123", "Brother"))
	assert.Equal(t, models.DeviceTypeUnknown, GuessDeviceType("", "Acme"))
}
