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
	"sync"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

const workQueueMultiplier = 2

// Sweeper fans a target list out over a bounded worker pool. Each worker
// blocks only on its own probe's network I/O; one unreachable target never
// stalls the rest of the sweep.
type Sweeper struct {
	prober      Prober
	concurrency int
	logger      logger.Logger
}

// NewSweeper builds a sweeper running at most concurrency probes at once.
func NewSweeper(prober Prober, concurrency int, log logger.Logger) *Sweeper {
	if concurrency == 0 {
		concurrency = 32
	}

	return &Sweeper{prober: prober, concurrency: concurrency, logger: log}
}

// Scan probes every target and streams results. The result channel closes
// once all workers drain; canceling ctx abandons unfinished targets.
func (s *Sweeper) Scan(ctx context.Context, targets []models.Target) <-chan models.ProbeResult {
	resultCh := make(chan models.ProbeResult, len(targets))
	workCh := make(chan models.Target, s.concurrency*workQueueMultiplier)

	workers := s.concurrency
	if len(targets) < workers {
		workers = len(targets)
	}

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			s.worker(ctx, workCh, resultCh)
		}()
	}

	go func() {
		defer close(workCh)

		for _, t := range targets {
			select {
			case <-ctx.Done():
				return
			case workCh <- t:
			}
		}
	}()

	go func() {
		wg.Wait()

		close(resultCh)
	}()

	return resultCh
}

func (s *Sweeper) worker(ctx context.Context, workCh <-chan models.Target, resultCh chan<- models.ProbeResult) {
	for target := range workCh {
		result, err := s.prober.Probe(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			s.logger.Warn().
				Err(err).
				Str("host", target.Host).
				Msg("probe aborted")

			result = failedResult(target, 0, models.FailureProtocol)
		}

		select {
		case <-ctx.Done():
			return
		case resultCh <- result:
		}
	}
}
