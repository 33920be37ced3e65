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

	"github.com/Bitshield/school-network-monitor/pkg/discovery"
	"github.com/Bitshield/school-network-monitor/pkg/monitor"
)

// CycleRunner triggers one monitoring cycle on demand and reports the
// driver's current phase.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*monitor.CycleSummary, error)
	Status() monitor.Status
}

// Discoverer sweeps a CIDR range and registers responders.
type Discoverer interface {
	DiscoverAndSave(ctx context.Context, cidr string) (*discovery.ScanReport, error)
}
