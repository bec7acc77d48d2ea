// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// RetryPolicy configures the writer's backoff: 5 attempts, 50ms base,
// factor 2, capped, ±20% jitter. Transient transport errors are
// retried; persistent failures are treated as fatal once the budget is
// exhausted.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is 5 attempts, 50ms base, factor 2, capped at 2s,
// ±20% jitter around the computed exponential delay.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	BaseDelay:   50 * time.Millisecond,
	Multiplier:  2,
	MaxDelay:    2 * time.Second,
}

// withRetry runs fn, retrying transient errors per policy with
// jittered exponential backoff. Returns the last error once the attempt
// budget is exhausted or the error is classified non-retryable.
func withRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var err error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isRetryableWriteError(err) || attempt == policy.MaxAttempts-1 {
			return err
		}
		sleep := computeBackoffWithJitter(policy.BaseDelay, attempt, policy.Multiplier, policy.MaxDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
	return err
}

// isRetryableWriteError classifies transport-level failures (timeouts,
// connection resets, service-unavailable) as retryable; everything
// else (constraint violations, malformed Cypher) is treated as
// persistent and surfaces immediately
func isRetryableWriteError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	retryable := []string{
		"timeout", "connection refused", "connection reset",
		"deadline exceeded", "eof", "service unavailable",
		"serviceunavailable", "failed to obtain a connection",
	}
	for _, s := range retryable {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// computeBackoffWithJitter returns an exponential delay with ±20%
// jitter, capped at capDur.
func computeBackoffWithJitter(base time.Duration, attempt int, mult float64, capDur time.Duration) time.Duration {
	exp := float64(base)
	for i := 0; i < attempt; i++ {
		exp *= mult
	}
	d := time.Duration(exp)
	if d > capDur {
		d = capDur
	}
	if d <= 0 {
		return base
	}
	jitter := 0.8 + rand.Float64()*0.4 // [0.8, 1.2)
	return time.Duration(float64(d) * jitter)
}
