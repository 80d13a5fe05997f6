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
	"math"
	"sort"

	"github.com/Scottcjn/Rustchain-sub002/log"
	"github.com/Scottcjn/Rustchain-sub002/metrics"
	"github.com/Scottcjn/Rustchain-sub002/params"
	"github.com/Scottcjn/Rustchain-sub002/storage/database"
)

var logger = log.NewModuleLogger(log.Epoch)

// Scheduler owns the enroll/settle operations of C5, composed over the
// repository layer.
type Scheduler struct {
	Clock      Clock
	PotURTC    int64
	epochs     *database.EpochRepo
	ledger     *database.LedgerRepo
}

// NewScheduler builds a Scheduler.
func NewScheduler(clock Clock, potURTC int64, epochs *database.EpochRepo, ledger *database.LedgerRepo) *Scheduler {
	return &Scheduler{Clock: clock, PotURTC: potURTC, epochs: epochs, ledger: ledger}
}

// Enroll records a successful attestation's enrollment row for the
// current epoch, with weight derived from the miner's antiquity tier
// (spec.md §4.5, §4.4 step 9).
func (s *Scheduler) Enroll(ctx context.Context, minerPK string, tier params.AntiquityTier, now int64) error {
	w := Weight(tier, s.Clock.Genesis, now)
	epoch := s.Clock.Epoch(now)
	return s.epochs.Enroll(ctx, epoch, minerPK, w)
}

// Shares computes the weighted, floor-and-remainder integer
// distribution of pot across enrollments (spec.md §4.5 step 2):
// share_i = floor(pot * weight_i / sum(weight)); the leftover remainder
// is handed, one unit at a time, to the first N miners sorted by
// miner_pk — the same deterministic remainder-assignment idiom as
// klaytn's validator reward splitting.
func Shares(enrollments []database.EpochEnrollment, potURTC int64) map[string]int64 {
	shares := make(map[string]int64, len(enrollments))
	if len(enrollments) == 0 {
		return shares
	}

	sorted := make([]database.EpochEnrollment, len(enrollments))
	copy(sorted, enrollments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinerPK < sorted[j].MinerPK })

	var totalWeight float64
	for _, e := range sorted {
		totalWeight += e.Weight
	}
	if totalWeight <= 0 {
		return shares
	}

	var distributed int64
	for _, e := range sorted {
		share := int64(math.Floor(float64(potURTC) * e.Weight / totalWeight))
		shares[e.MinerPK] = share
		distributed += share
	}

	remainder := potURTC - distributed
	for i := 0; i < len(sorted) && int64(i) < remainder; i++ {
		shares[sorted[i].MinerPK]++
	}
	return shares
}

// SettleOne settles a single epoch if it is not already settled,
// idempotently (spec.md §4.5 step 4).
func (s *Scheduler) SettleOne(ctx context.Context, e int64, now int64) error {
	st, err := s.epochs.State(ctx, e)
	if err != nil {
		return err
	}
	if st.Settled {
		return nil
	}

	enrolled, err := s.epochs.Enrolled(ctx, e)
	if err != nil {
		return err
	}
	shares := Shares(enrolled, s.PotURTC)
	if err := s.epochs.Settle(ctx, e, shares, now, s.ledger); err != nil {
		return err
	}
	metrics.EpochSettlementsTotal.Inc(1)
	logger.Info("settled epoch", "epoch", e, "miners", len(shares))
	return nil
}

// SettleDue settles every epoch strictly below the current epoch that
// is not yet settled, in ascending order.
func (s *Scheduler) SettleDue(ctx context.Context, now int64) (int, error) {
	current := s.Clock.Epoch(now)
	due, err := s.epochs.UnsettledEpochsBelow(ctx, current)
	if err != nil {
		return 0, err
	}
	settled := 0
	for _, e := range due {
		if err := s.SettleOne(ctx, e, now); err != nil {
			logger.Error("settlement failed", "epoch", e, "err", err)
			continue
		}
		settled++
	}
	return settled, nil
}

// EnrolledCount exposes GET /epoch's enrolled_miners field.
func (s *Scheduler) EnrolledCount(ctx context.Context, e int64) (int, error) {
	return s.epochs.EnrolledCount(ctx, e)
}

// Rewards exposes GET /rewards/epoch/<n>'s per-epoch distribution.
func (s *Scheduler) Rewards(ctx context.Context, e int64) ([]database.EpochReward, error) {
	all, err := s.epochs.AllRewards(ctx)
	if err != nil {
		return nil, err
	}
	var rows []database.EpochReward
	for _, r := range all {
		if r.Epoch == e {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

