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

package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
)

// Runner drives the monitor on a fixed interval until its context is
// canceled. A tick that lands while a manually triggered cycle is still
// running is skipped, not queued.
type Runner struct {
	monitor  *Monitor
	interval time.Duration
	logger   logger.Logger
	done     chan struct{}
}

// NewRunner wraps monitor with a ticker at the given interval.
func NewRunner(monitor *Monitor, interval time.Duration, log logger.Logger) *Runner {
	return &Runner{
		monitor:  monitor,
		interval: interval,
		logger:   log.WithComponent("monitor-runner"),
		done:     make(chan struct{}),
	}
}

// Start runs the cycle loop. The first cycle fires immediately so the
// dashboard has fresh status right after boot. Start returns when ctx is
// canceled.
func (r *Runner) Start(ctx context.Context) {
	defer close(r.done)

	r.logger.Info().Dur("interval", r.interval).Msg("monitor runner started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("monitor runner stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// Done is closed once the runner loop has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) tick(ctx context.Context) {
	if _, err := r.monitor.RunCycle(ctx); err != nil {
		switch {
		case errors.Is(err, ErrCycleInProgress):
			r.logger.Debug().Msg("skipping tick, cycle already running")
		case errors.Is(err, context.Canceled):
		default:
			r.logger.Error().Err(err).Msg("monitoring cycle failed")
		}
	}
}
