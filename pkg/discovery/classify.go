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
	"strings"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// ouiVendors maps IEEE OUI prefixes to vendor names for the hardware
// commonly found on school networks.
var ouiVendors = map[string]string{
	"00:40:96": "Cisco",
	"00:1E:14": "Cisco",
	"00:12:00": "Cisco",
	"00:26:0B": "Cisco",
	"58:97:1E": "Cisco",
	"00:1D:7E": "Cisco-Linksys",
	"00:1A:1E": "Aruba Networks",
	"00:0B:86": "Aruba Networks",
	"24:A4:3C": "Ubiquiti",
	"78:8A:20": "Ubiquiti",
	"FC:EC:DA": "Ubiquiti",
	"00:15:6D": "Ubiquiti",
	"00:09:0F": "Fortinet",
	"00:09:5B": "Netgear",
	"20:4E:7F": "Netgear",
	"84:1B:5E": "Netgear",
	"00:1D:0F": "TP-Link",
	"50:C7:BF": "TP-Link",
	"EC:08:6B": "TP-Link",
	"00:1E:58": "D-Link",
	"00:05:5D": "D-Link",
	"00:30:46": "Axis Communications",
	"00:40:8C": "Axis Communications",
	"AC:CC:8E": "Axis Communications",
	"44:19:B6": "Hikvision",
	"28:57:BE": "Hikvision",
	"9C:8E:CD": "Dahua",
	"00:80:77": "Brother",
	"3C:2A:F4": "Brother",
	"00:1E:8F": "Canon",
	"00:00:48": "Epson",
	"00:17:C8": "Kyocera",
	"00:21:5A": "Hewlett-Packard",
	"00:1F:29": "Hewlett-Packard",
	"94:57:A5": "Hewlett-Packard",
	"00:18:FE": "Hewlett-Packard",
	"00:11:32": "Synology",
	"00:0C:29": "VMware",
	"00:50:56": "VMware",
	"B8:27:EB": "Raspberry Pi",
	"DC:A6:32": "Raspberry Pi",
	"E4:5F:01": "Raspberry Pi",
	"00:1B:63": "Apple",
	"00:1C:B3": "Apple",
	"F0:18:98": "Apple",
	"00:1A:A0": "Dell",
	"00:14:22": "Dell",
	"F8:B1:56": "Dell",
	"00:1B:21": "Intel",
	"00:15:17": "Intel",
	"3C:FD:FE": "Intel",
}

// hostnameHints maps hostname substrings to device types, checked in order.
// Naming conventions beat vendor OUIs: a Cisco box named ap-lib2 is an AP.
var hostnameHints = []struct {
	substrings []string
	deviceType models.DeviceType
}{
	{[]string{"router", "rtr", "gateway", "-gw", "gw-"}, models.DeviceTypeRouter},
	{[]string{"firewall", "fw-", "-fw"}, models.DeviceTypeFirewall},
	{[]string{"switch", "sw-", "-sw"}, models.DeviceTypeSwitch},
	{[]string{"ap-", "-ap", "wap", "wifi", "wireless"}, models.DeviceTypeAP},
	{[]string{"cam", "camera", "nvr"}, models.DeviceTypeCamera},
	{[]string{"printer", "print", "mfp"}, models.DeviceTypePrinter},
	{[]string{"lb-", "-lb", "balancer"}, models.DeviceTypeLoadBalancer},
	{[]string{"srv", "server", "nas", "esx"}, models.DeviceTypeServer},
	{[]string{"pc-", "-pc", "desktop", "laptop", "lab"}, models.DeviceTypePC},
}

// vendorHints maps vendors to device types when the hostname is silent.
var vendorHints = map[string]models.DeviceType{
	"Cisco":               models.DeviceTypeSwitch,
	"Cisco-Linksys":       models.DeviceTypeRouter,
	"Aruba Networks":      models.DeviceTypeAP,
	"Ubiquiti":            models.DeviceTypeAP,
	"Fortinet":            models.DeviceTypeFirewall,
	"Netgear":             models.DeviceTypeSwitch,
	"TP-Link":             models.DeviceTypeSwitch,
	"D-Link":              models.DeviceTypeSwitch,
	"Axis Communications": models.DeviceTypeCamera,
	"Hikvision":           models.DeviceTypeCamera,
	"Dahua":               models.DeviceTypeCamera,
	"Brother":             models.DeviceTypePrinter,
	"Canon":               models.DeviceTypePrinter,
	"Epson":               models.DeviceTypePrinter,
	"Kyocera":             models.DeviceTypePrinter,
	"Hewlett-Packard":     models.DeviceTypePrinter,
	"Synology":            models.DeviceTypeServer,
	"VMware":              models.DeviceTypeServer,
	"Raspberry Pi":        models.DeviceTypeServer,
	"Apple":               models.DeviceTypePC,
	"Dell":                models.DeviceTypePC,
	"Intel":               models.DeviceTypePC,
}

// VendorFromMAC resolves a MAC address to its vendor via the OUI prefix.
// Returns "" for empty or unknown addresses.
func VendorFromMAC(mac string) string {
	if len(mac) < 8 {
		return ""
	}

	prefix := strings.ToUpper(strings.ReplaceAll(mac[:8], "-", ":"))

	return ouiVendors[prefix]
}

// GuessDeviceType classifies a discovered host from its hostname and
// vendor. Unclassifiable hosts come back UNKNOWN and can be corrected
// through the inventory API.
func GuessDeviceType(hostname, vendor string) models.DeviceType {
	lower := strings.ToLower(hostname)

	if lower != "" {
		for _, hint := range hostnameHints {
			for _, sub := range hint.substrings {
				if strings.Contains(lower, sub) {
					return hint.deviceType
				}
			}
		}
	}

	if t, ok := vendorHints[vendor]; ok {
		return t
	}

	return models.DeviceTypeUnknown
}
