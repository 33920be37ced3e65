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

package probe

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// countingProber tracks how many probes run at once.
type countingProber struct {
	active  atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
	failFor map[string]bool
	mu      sync.Mutex
}

func (p *countingProber) Probe(_ context.Context, target models.Target) (models.ProbeResult, error) {
	current := p.active.Add(1)
	defer p.active.Add(-1)

	for {
		peak := p.peak.Load()
		if current <= peak || p.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	time.Sleep(p.delay)

	p.mu.Lock()
	failed := p.failFor[target.Host]
	p.mu.Unlock()

	if failed {
		return failedResult(target, 1, models.FailureTimeout), nil
	}

	return summarize(target, 1, []time.Duration{time.Millisecond}), nil
}

func TestSweeperScansEveryTarget(t *testing.T) {
	prober := &countingProber{failFor: map[string]bool{"10.0.0.7": true}}
	sweeper := NewSweeper(prober, 4, logger.NewTestLogger())

	targets := make([]models.Target, 0, 20)
	for i := 0; i < 20; i++ {
		targets = append(targets, models.Target{
			DeviceID: fmt.Sprintf("d%d", i),
			Host:     fmt.Sprintf("10.0.0.%d", i),
		})
	}

	seen := make(map[string]models.ProbeResult)

	for result := range sweeper.Scan(context.Background(), targets) {
		seen[result.Target.DeviceID] = result
	}

	require.Len(t, seen, 20)
	assert.False(t, seen["d7"].Available)
	assert.True(t, seen["d3"].Available)
}

func TestSweeperBoundsConcurrency(t *testing.T) {
	prober := &countingProber{delay: 10 * time.Millisecond}
	sweeper := NewSweeper(prober, 3, logger.NewTestLogger())

	targets := make([]models.Target, 0, 30)
	for i := 0; i < 30; i++ {
		targets = append(targets, models.Target{Host: fmt.Sprintf("10.0.1.%d", i)})
	}

	for range sweeper.Scan(context.Background(), targets) {
	}

	assert.LessOrEqual(t, prober.peak.Load(), int32(3))
	assert.Positive(t, prober.peak.Load())
}

func TestSweeperHonorsCancellation(t *testing.T) {
	prober := &countingProber{delay: 20 * time.Millisecond}
	sweeper := NewSweeper(prober, 2, logger.NewTestLogger())

	targets := make([]models.Target, 0, 100)
	for i := 0; i < 100; i++ {
		targets = append(targets, models.Target{Host: fmt.Sprintf("10.0.2.%d", i)})
	}

	ctx, cancel := context.WithCancel(context.Background())

	results := sweeper.Scan(ctx, targets)

	<-results
	cancel()

	count := 1
	for range results {
		count++
	}

	// The channel must close promptly with most targets abandoned.
	assert.Less(t, count, 100)
}

func TestSweeperEmptyTargetList(t *testing.T) {
	sweeper := NewSweeper(&countingProber{}, 4, logger.NewTestLogger())

	results := sweeper.Scan(context.Background(), nil)

	_, open := <-results
	assert.False(t, open)
}
