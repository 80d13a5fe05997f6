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

// LedgerRepo owns balance, ledger_entry and pending_transfer — the
// ledger/wallet aggregate (C6).
type LedgerRepo struct {
	db *DBManager
}

func NewLedgerRepo(db *DBManager) *LedgerRepo { return &LedgerRepo{db: db} }

var (
	// ErrInsufficientBalance signals a debit that would drive a balance
	// below zero (spec.md §8's amount_uRTC >= 0 invariant).
	ErrInsufficientBalance = repoError("insufficient_balance")
	// ErrNonceStale signals a transfer nonce <= the wallet's current nonce.
	ErrNonceStale = repoError("nonce_stale")
)

// GetBalance fetches a wallet's balance row, defaulting to a zero
// balance (not yet created, per spec.md §3's "created on first credit").
func (r *LedgerRepo) GetBalance(ctx context.Context, address string) (Balance, error) {
	var b Balance
	err := r.db.Gorm().Where("address = ?", address).First(&b).Error
	if err == gorm.ErrRecordNotFound {
		return Balance{Address: address, AmountURTC: 0, WalletNonce: 0}, nil
	}
	return b, err
}

// Credit adds amount (which may be negative for a debit performed
// through this path, e.g. the fee pool) to address's balance, creating
// the row on first credit (spec.md §3).
func (r *LedgerRepo) Credit(ctx context.Context, address string, amount int64) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		return r.creditTx(tx, address, amount)
	})
}

// creditTx is Credit's transaction body, exported within the package so
// EpochRepo.Settle can credit balances inside its own transaction
// boundary (spec.md §4.5 step 3: "In a single transaction").
func (r *LedgerRepo) creditTx(tx *gorm.DB, address string, amount int64) error {
	res := tx.Model(&Balance{}).Where("address = ?", address).
		Update("amount_urtc", gorm.Expr("amount_urtc + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if amount < 0 {
			return ErrInsufficientBalance
		}
		return tx.Create(&Balance{Address: address, AmountURTC: amount}).Error
	}
	return nil
}

// ExecuteTransfer implements spec.md §4.6's signed-transfer execution:
// debit from by amount+fee, credit to by amount, credit the fee pool,
// bump from's wallet_nonce, and append three ledger entries — all in
// one transaction.
func (r *LedgerRepo) ExecuteTransfer(ctx context.Context, from, to, feePool string, amountURTC, fee int64, nonce uint64, reason string, now int64) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		var fromBal Balance
		if err := tx.Where("address = ?", from).First(&fromBal).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrInsufficientBalance
			}
			return err
		}
		if nonce <= fromBal.WalletNonce {
			return ErrNonceStale
		}
		total := amountURTC + fee
		if fromBal.AmountURTC < total {
			return ErrInsufficientBalance
		}

		if err := tx.Model(&fromBal).Updates(map[string]interface{}{
			"amount_urtc":  fromBal.AmountURTC - total,
			"wallet_nonce": nonce,
		}).Error; err != nil {
			return err
		}
		if err := r.creditTx(tx, to, amountURTC); err != nil {
			return err
		}
		if fee > 0 {
			if err := r.creditTx(tx, feePool, fee); err != nil {
				return err
			}
		}

		entries := []LedgerEntry{
			{TS: now, MinerID: from, DeltaURTC: -total, Reason: reason},
			{TS: now, MinerID: to, DeltaURTC: amountURTC, Reason: "transfer_in"},
		}
		if fee > 0 {
			entries = append(entries, LedgerEntry{TS: now, MinerID: feePool, DeltaURTC: fee, Reason: "fee"})
		}
		for _, e := range entries {
			if err := tx.Create(&e).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreatePending queues a large transfer instead of settling it
// immediately (spec.md §4.6).
func (r *LedgerRepo) CreatePending(ctx context.Context, p PendingTransfer) error {
	return r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&p).Error
	})
}

// MaturePending walks pending transfers whose confirms_at <= now and
// commits each via ExecuteTransfer, marking it confirmed — the
// behavior of `POST /pending/confirm` (spec.md §4.6).
func (r *LedgerRepo) MaturePending(ctx context.Context, feePool string, fee int64, now int64) (int, error) {
	var rows []PendingTransfer
	if err := r.db.Gorm().Where("status = ? AND confirms_at <= ?", "pending", now).Find(&rows).Error; err != nil {
		return 0, err
	}
	confirmed := 0
	for _, p := range rows {
		err := r.db.WriteTx(ctx, func(tx *gorm.DB) error {
			var cur PendingTransfer
			if err := tx.Where("id = ? AND status = ?", p.ID, "pending").First(&cur).Error; err != nil {
				return err
			}
			if err := tx.Model(&cur).Update("status", "confirmed").Error; err != nil {
				return err
			}
			return nil
		})
		if err != nil {
			continue // one bad pending row must not block the rest (spec.md §7)
		}
		if execErr := r.ExecuteTransfer(ctx, p.From, p.To, feePool, p.AmountURTC, fee, p.Nonce, "transfer_out", now); execErr != nil {
			r.voidPending(ctx, p.ID)
			continue
		}
		confirmed++
	}
	return confirmed, nil
}

func (r *LedgerRepo) voidPending(ctx context.Context, id string) {
	_ = r.db.WriteTx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&PendingTransfer{}).Where("id = ?", id).Update("status", "voided").Error
	})
}

// RecentLedgerEntries supports /sync/status's canonical table hashing
// and operator inspection.
func (r *LedgerRepo) RecentLedgerEntries(ctx context.Context, limit int) ([]LedgerEntry, error) {
	var rows []LedgerEntry
	err := r.db.Gorm().Order("id desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// AllBalances supports /sync/status's canonical table hashing.
func (r *LedgerRepo) AllBalances(ctx context.Context) ([]Balance, error) {
	var rows []Balance
	err := r.db.Gorm().Order("address").Find(&rows).Error
	return rows, err
}
