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
	"bufio"
	"os"
	"strings"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
)

const procARPPath = "/proc/net/arp"

// readARPTable snapshots the kernel neighbor table so freshly pinged hosts
// can be matched to MAC addresses. Best effort: on non-Linux hosts or read
// failure it returns an empty map and discovery proceeds without MACs.
func readARPTable(log logger.Logger) map[string]string {
	table := make(map[string]string)

	f, err := os.Open(procARPPath)
	if err != nil {
		log.Debug().Err(err).Msg("ARP table unavailable")
		return table
	}
	defer f.Close() //nolint:errcheck // read-only file

	scanner := bufio.NewScanner(f)
	scanner.Scan() // header row

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}

		ip, mac := fields[0], strings.ToUpper(fields[3])
		if mac == "00:00:00:00:00:00" {
			continue
		}

		table[ip] = mac
	}

	return table
}
