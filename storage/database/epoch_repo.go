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

package database

import (
	"context"
	"encoding/hex"
	"sort"

	"github.com/jinzhu/gorm"

	"github.com/Scottcjn/Rustchain-sub002/crypto"
)

// EpochRepo owns epoch_enrollment, epoch_state and epoch_reward — the
// epoch scheduler & settlement aggregate (C5).
type EpochRepo struct {
	db *DBManager
}

func NewEpochRepo(db *DBManager) *EpochRepo { return &EpochRepo{db: db} }

// Enroll upserts (epoch, miner_pk) -> weight, taking the max of the
// existing and new weight. This is the grow-only-set-plus-max-weight
// CRDT refinement spec.md §9 permits, applied locally too so a miner
// re-attesting mid-epoch with a different computed weight never
// regresses its own enrollment.
func (r *EpochRepo) Enroll(ctx context.Context, epoch int64, minerPK string, weight float64) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		var existing EpochEnrollment
		err := tx.Where("epoch = ? AND miner_pk = ?", epoch, minerPK).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(&EpochEnrollment{Epoch: epoch, MinerPK: minerPK, Weight: weight}).Error
		}
		if err != nil {
			return err
		}
		if weight > existing.Weight {
			return tx.Model(&existing).Update("weight", weight).Error
		}
		return nil
	})
}

// Enrolled returns the distinct enrolled set for an epoch, sorted by
// miner_pk (spec.md §4.5 step 2's deterministic remainder ordering).
func (r *EpochRepo) Enrolled(ctx context.Context, epoch int64) ([]EpochEnrollment, error) {
	var rows []EpochEnrollment
	if err := r.db.Gorm().Where("epoch = ?", epoch).Find(&rows).Error; err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].MinerPK < rows[j].MinerPK })
	return rows, nil
}

// EnrolledCount is used by GET /epoch's enrolled_miners field.
func (r *EpochRepo) EnrolledCount(ctx context.Context, epoch int64) (int, error) {
	var count int
	err := r.db.Gorm().Model(&EpochEnrollment{}).Where("epoch = ?", epoch).Count(&count).Error
	return count, err
}

// State fetches the settlement state of an epoch, defaulting to
// unsettled if no row exists yet.
func (r *EpochRepo) State(ctx context.Context, epoch int64) (EpochState, error) {
	var st EpochState
	err := r.db.Gorm().Where("epoch = ?", epoch).First(&st).Error
	if err == gorm.ErrRecordNotFound {
		return EpochState{Epoch: epoch, Settled: false}, nil
	}
	return st, err
}

// UnsettledEpochsBelow returns every epoch strictly less than
// currentEpoch that has enrollments but is not yet settled — the
// settlement worker's per-tick scan (spec.md §4.5).
func (r *EpochRepo) UnsettledEpochsBelow(ctx context.Context, currentEpoch int64) ([]int64, error) {
	var epochs []int64
	err := r.db.Gorm().Model(&EpochEnrollment{}).
		Where("epoch < ?", currentEpoch).
		Where("epoch NOT IN (?)", r.db.Gorm().Model(&EpochState{}).Where("settled = ?", true).Select("epoch").QueryExpr()).
		Distinct("epoch").Order("epoch").Pluck("epoch", &epochs).Error
	return epochs, err
}

// AllStates returns every epoch_state row, for /sync/status's canonical
// table hashing.
func (r *EpochRepo) AllStates(ctx context.Context) ([]EpochState, error) {
	var rows []EpochState
	err := r.db.Gorm().Order("epoch").Find(&rows).Error
	return rows, err
}

// AllRewards returns every epoch_reward row, for /sync/status's
// canonical table hashing.
func (r *EpochRepo) AllRewards(ctx context.Context) ([]EpochReward, error) {
	var rows []EpochReward
	err := r.db.Gorm().Order("epoch, miner_id").Find(&rows).Error
	return rows, err
}

// Settle performs the entire settlement transaction for one epoch
// (spec.md §4.5 steps 1-3), idempotently: a caller must check State
// first, but Settle itself is also safe to call twice because it returns
// without writing anything once the epoch's state row is marked settled.
func (r *EpochRepo) Settle(ctx context.Context, epoch int64, shares map[string]int64, now int64, ledger *LedgerRepo) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		var st EpochState
		err := tx.Where("epoch = ?", epoch).First(&st).Error
		if err == nil && st.Settled {
			return nil // already settled: idempotent no-op (spec.md §4.5 step 4)
		}

		minerIDs := make([]string, 0, len(shares))
		for id := range shares {
			minerIDs = append(minerIDs, id)
		}
		sort.Strings(minerIDs)

		for _, minerID := range minerIDs {
			share := shares[minerID]
			if err := tx.Where(EpochReward{Epoch: epoch, MinerID: minerID}).
				Assign(EpochReward{ShareURTC: share}).
				FirstOrCreate(&EpochReward{}).Error; err != nil {
				return err
			}
			if err := tx.Create(&LedgerEntry{TS: now, Epoch: epoch, MinerID: minerID, DeltaURTC: share, Reason: "epoch_reward"}).Error; err != nil {
				return err
			}
			if err := ledger.creditTx(tx, addressForMiner(minerID), share); err != nil {
				return err
			}
		}

		if err == gorm.ErrRecordNotFound {
			return tx.Create(&EpochState{Epoch: epoch, Settled: true, SettledTS: now}).Error
		}
		return tx.Model(&st).Updates(map[string]interface{}{"settled": true, "settled_ts": now}).Error
	})
}

// addressForMiner derives the RTC wallet address rewards are credited
// to. Epoch enrollment (and therefore EpochReward/LedgerEntry) is keyed
// by the miner's hex-encoded header public key (spec.md §3's
// EpochEnrollment.miner_pk), so the reward address is simply that
// key's derived address (spec.md §4.2). A miner_pk that fails to
// decode as hex cannot have produced a valid signature in the first
// place, so it is credited under its raw string as a last resort
// rather than silently dropping the reward.
func addressForMiner(minerPKHex string) string {
	pub, err := hex.DecodeString(minerPKHex)
	if err != nil {
		return minerPKHex
	}
	return crypto.DeriveAddress(pub)
}
