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

// Package workerpool runs pass-1 definition extraction across files in
// parallel, one worker per file up to a bounded pool, then hands every
// result back in original file order for the single-aggregator Pass-2
// stage: per-file pass-1 is pure, so a jobs/results channel pair plus a
// sync.WaitGroup is all that's needed; the single-aggregator pattern
// removes the need for concurrent graph mutation.
package workerpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// SequentialThreshold is the file count below which Run parses
// in-goroutine rather than spinning up a worker pool.
const SequentialThreshold = 10

// DefaultWorkers returns max(1, 0.8*NumCPU).
func DefaultWorkers() int {
	n := int(float64(runtime.NumCPU()) * 0.8)
	if n < 1 {
		return 1
	}
	return n
}

// Task is one unit of per-file work. index preserves the caller's
// original file ordering in the output.
type Task struct {
	Index int
	Value any
}

// Result pairs a Task's index with its outcome so callers can restore
// the original, deterministic file order even though work ran
// out-of-order across goroutines.
type Result struct {
	Index int
	Value any
	Err   error
}

// Run executes fn(task.Value) for every task, concurrently across
// workers (or in the calling goroutine's loop when len(tasks) is below
// SequentialThreshold or workers <= 1), cooperatively stopping on
// ctx.Done(). Results are always returned in task-index order.
func Run(ctx context.Context, tasks []Task, workers int, fn func(ctx context.Context, v any) (any, error)) ([]Result, int) {
	if len(tasks) == 0 {
		return nil, 0
	}
	if len(tasks) < SequentialThreshold || workers <= 1 {
		return runSequential(ctx, tasks, fn)
	}

	jobs := make(chan Task, len(tasks))
	results := make([]Result, len(tasks))
	var errorCount int32

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				v, err := fn(ctx, t.Value)
				if err != nil {
					atomic.AddInt32(&errorCount, 1)
				}
				results[t.Index] = Result{Index: t.Index, Value: v, Err: err}
			}
		}()
	}

	for _, t := range tasks {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	return results, int(errorCount)
}

func runSequential(ctx context.Context, tasks []Task, fn func(ctx context.Context, v any) (any, error)) ([]Result, int) {
	results := make([]Result, len(tasks))
	errorCount := 0
	for _, t := range tasks {
		select {
		case <-ctx.Done():
			results[t.Index] = Result{Index: t.Index, Err: ctx.Err()}
			continue
		default:
		}
		v, err := fn(ctx, t.Value)
		if err != nil {
			errorCount++
		}
		results[t.Index] = Result{Index: t.Index, Value: v, Err: err}
	}
	return results, errorCount
}
