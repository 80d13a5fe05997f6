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

	"github.com/jinzhu/gorm"
)

// MinerRepo owns miner_attest_recent, hardware_binding, mac_observation,
// attest_challenge, used_nonce and blocked_wallet — everything the
// attestation service (C4) persists.
type MinerRepo struct {
	db *DBManager
}

func NewMinerRepo(db *DBManager) *MinerRepo { return &MinerRepo{db: db} }

// IsBlocked implements spec.md §4.4 step 2.
func (r *MinerRepo) IsBlocked(ctx context.Context, minerID string) (bool, error) {
	var count int
	err := r.db.Gorm().Model(&BlockedWallet{}).Where("miner_id = ?", minerID).Count(&count).Error
	return count > 0, err
}

// BlockWallet implements the admin write side of spec.md §4.4 step 2:
// an operator-issued block that Submit's IsBlocked check enforces.
func (r *MinerRepo) BlockWallet(ctx context.Context, minerID string, blockedAt int64, reason string) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		return tx.Where(BlockedWallet{MinerID: minerID}).
			Assign(BlockedWallet{BlockedAt: blockedAt, Reason: reason}).
			FirstOrCreate(&BlockedWallet{}).Error
	})
}

// UnblockWallet reverses BlockWallet.
func (r *MinerRepo) UnblockWallet(ctx context.Context, minerID string) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		return tx.Where("miner_id = ?", minerID).Delete(&BlockedWallet{}).Error
	})
}

// IssueChallenge implements spec.md §4.4 "POST /attest/challenge".
func (r *MinerRepo) IssueChallenge(ctx context.Context, nonce, minerID string, issuedAt, expiresAt int64) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&AttestChallenge{
			Nonce: nonce, MinerID: minerID, IssuedAt: issuedAt, ExpiresAt: expiresAt,
		}).Error
	})
}

// ConsumeChallenge implements spec.md §4.4 step 4: the nonce must be a
// previously-issued challenge whose expires_at > now; it is consumed
// atomically (deleted) so it cannot be reused as a challenge twice.
func (r *MinerRepo) ConsumeChallenge(ctx context.Context, nonce string, now int64) (*AttestChallenge, error) {
	var found *AttestChallenge
	err := r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		var c AttestChallenge
		if err := tx.Where("nonce = ?", nonce).First(&c).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errChallengeInvalid
			}
			return err
		}
		if c.ExpiresAt <= now {
			tx.Delete(&c)
			return errChallengeInvalid
		}
		if err := tx.Delete(&c).Error; err != nil {
			return err
		}
		found = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// MarkNonceUsed implements spec.md §4.4 step 5 (replay protection): a
// (miner_id, nonce) pair already present in used_nonce is reported as
// errReplayDetected; otherwise the pair is inserted.
func (r *MinerRepo) MarkNonceUsed(ctx context.Context, minerID, nonce string, usedAt, expiresAt int64) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		var existing int
		tx.Model(&UsedNonce{}).Where("miner_id = ? AND nonce = ?", minerID, nonce).Count(&existing)
		if existing > 0 {
			return errReplayDetected
		}
		return tx.Create(&UsedNonce{MinerID: minerID, Nonce: nonce, UsedAt: usedAt, ExpiresAt: expiresAt}).Error
	})
}

// BindHardware implements spec.md §4.4 step 6.
func (r *MinerRepo) BindHardware(ctx context.Context, hardwareID, minerID string, now int64) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		var existing HardwareBinding
		err := tx.Where("hardware_id = ?", hardwareID).First(&existing).Error
		if err == nil {
			if existing.BoundMiner != minerID {
				return errHardwareBound
			}
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		return tx.Create(&HardwareBinding{HardwareID: hardwareID, BoundMiner: minerID, BoundAt: now}).Error
	})
}

// UpsertAttestation implements spec.md §4.4 step 9's upsert into
// miner_attest_recent.
func (r *MinerRepo) UpsertAttestation(ctx context.Context, rec MinerAttestRecent) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		return tx.Where(MinerAttestRecent{MinerID: rec.MinerID}).
			Assign(rec).
			FirstOrCreate(&MinerAttestRecent{}).Error
	})
}

// RecordMAC logs a MAC observation (forensic only, not invariant-bearing).
func (r *MinerRepo) RecordMAC(ctx context.Context, minerID, mac string, observedAt int64) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&MACObservation{MinerID: minerID, MAC: mac, ObservedAt: observedAt}).Error
	})
}

// RecentMiners implements `GET /api/miners`: projects miner_attest_recent
// rows newer than the TTL cutoff.
func (r *MinerRepo) RecentMiners(ctx context.Context, sinceTS int64) ([]MinerAttestRecent, error) {
	var rows []MinerAttestRecent
	err := r.db.Gorm().Where("ts_ok >= ?", sinceTS).Order("miner_id").Find(&rows).Error
	return rows, err
}

// ByID fetches a single miner's recent-attestation row, or (zero, false)
// if it has never attested.
func (r *MinerRepo) ByID(ctx context.Context, minerID string) (MinerAttestRecent, bool, error) {
	var row MinerAttestRecent
	err := r.db.Gorm().Where("miner_id = ?", minerID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return MinerAttestRecent{}, false, nil
	}
	return row, err == nil, err
}

// CleanupExpired removes expired challenges and used-nonce rows past
// their retention TTL, mirroring attest_nonce.py's cleanup_expired.
func (r *MinerRepo) CleanupExpired(ctx context.Context, now int64) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("expires_at < ?", now).Delete(&AttestChallenge{}).Error; err != nil {
			return err
		}
		return tx.Where("expires_at < ?", now).Delete(&UsedNonce{}).Error
	})
}

// sentinel errors distinguished by the attestation service to pick the
// right HTTP status/code (spec.md §6 error codes).
var (
	errChallengeInvalid = repoError("challenge_invalid")
	errReplayDetected   = repoError("replay_detected")
	errHardwareBound    = repoError("hardware_already_bound")
)

type repoError string

func (e repoError) Error() string { return string(e) }

// IsChallengeInvalid reports whether err is the ConsumeChallenge sentinel.
func IsChallengeInvalid(err error) bool { return err == errChallengeInvalid }

// IsReplayDetected reports whether err is the MarkNonceUsed sentinel.
func IsReplayDetected(err error) bool { return err == errReplayDetected }

// IsHardwareBound reports whether err is the BindHardware sentinel.
func IsHardwareBound(err error) bool { return err == errHardwareBound }
