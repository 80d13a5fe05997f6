// Copyright 2024 The Rustchain Authors
// This file is part of the Rustchain node.
//
// The Rustchain node is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The Rustchain node is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the Rustchain node. If not, see <http://www.gnu.org/licenses/>.

package epoch

import (
	"context"
	"time"
)

// Worker drives the periodic settlement tick (spec.md §4.5: "Settlement
// worker runs on a periodic tick (>= every 5 min)"), following the
// ticker-plus-quit-channel shape the teacher's work package uses for
// its background loops.
type Worker struct {
	sched    *Scheduler
	tick     time.Duration
	quit     chan struct{}
	now      func() int64
}

// NewWorker builds a settlement Worker. now is injected so tests can
// control wall-clock time deterministically.
func NewWorker(sched *Scheduler, tick time.Duration, now func() int64) *Worker {
	return &Worker{sched: sched, tick: tick, quit: make(chan struct{}), now: now}
}

// Run blocks, settling due epochs on every tick, until ctx is canceled
// or Stop is called.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.sched.SettleDue(ctx, w.now()); err != nil {
				logger.Error("settlement tick failed", "err", err)
			}
		case <-w.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop signals Run to exit.
func (w *Worker) Stop() {
	close(w.quit)
}
