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
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// Retrier wraps a Prober with bounded exponential backoff. A probe only
// counts as failed toward the monitor's debounce threshold after the
// retries are exhausted; a single dropped packet never flips status.
type Retrier struct {
	prober      Prober
	maxAttempts int
	initialWait time.Duration
}

var _ Prober = (*Retrier)(nil)

// NewRetrier returns a Prober that retries unavailable results up to
// maxAttempts total attempts.
func NewRetrier(prober Prober, maxAttempts int, initialWait time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	if initialWait == 0 {
		initialWait = 200 * time.Millisecond
	}

	return &Retrier{prober: prober, maxAttempts: maxAttempts, initialWait: initialWait}
}

// Probe runs the wrapped prober, retrying on unavailable results with
// exponential backoff, and returns the last result.
func (r *Retrier) Probe(ctx context.Context, target models.Target) (models.ProbeResult, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialWait
	policy.Reset()

	var last models.ProbeResult

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		result, err := r.prober.Probe(ctx, target)
		if err != nil {
			return models.ProbeResult{}, err
		}

		if result.Available {
			return result, nil
		}

		last = result

		if attempt == r.maxAttempts-1 {
			break
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			break
		}

		select {
		case <-ctx.Done():
			return models.ProbeResult{}, ctx.Err()
		case <-time.After(wait):
		}
	}

	return last, nil
}
