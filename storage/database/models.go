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

// Package database is the storage layer (C1): a single embedded
// relational store (gorm over SQLite) with single-writer discipline,
// organized as one gorm model + repository pair per aggregate, per the
// Design Note in spec.md §9.
package database

// MinerAttestRecent is the projection `/api/miners` reads and the
// attestation service upserts on every accepted submission (spec.md §4.4
// step 9).
type MinerAttestRecent struct {
	MinerID             string  `gorm:"column:miner_id;primary_key"`
	DeviceArch          string  `gorm:"column:device_arch"`
	DeviceFamily        string  `gorm:"column:device_family"`
	EntropyScore        float64 `gorm:"column:entropy_score"`
	ArchValidationScore float64 `gorm:"column:arch_validation_score;default:1.0"`
	AntiquityTier       string  `gorm:"column:antiquity_tier"`
	TSOk                int64   `gorm:"column:ts_ok"`
	PublicKeyHex        string  `gorm:"column:public_key_hex"`
}

func (MinerAttestRecent) TableName() string { return "miner_attest_recent" }

// HardwareBinding enforces the 1:1 hardware_id -> miner_id mapping
// (spec.md §3/§4.4 step 6).
type HardwareBinding struct {
	HardwareID string `gorm:"column:hardware_id;primary_key"`
	BoundMiner string `gorm:"column:bound_miner"`
	BoundAt    int64  `gorm:"column:bound_at"`
}

func (HardwareBinding) TableName() string { return "hardware_binding" }

// MACObservation records a MAC address seen from a miner, used only for
// operator forensics; not part of any spec invariant.
type MACObservation struct {
	ID       uint   `gorm:"primary_key"`
	MinerID  string `gorm:"column:miner_id;index"`
	MAC      string `gorm:"column:mac"`
	ObservedAt int64 `gorm:"column:observed_at"`
}

func (MACObservation) TableName() string { return "mac_observation" }

// AttestChallenge is a one-shot issued nonce (spec.md §3 Nonce/Challenge).
type AttestChallenge struct {
	Nonce     string `gorm:"column:nonce;primary_key"`
	MinerID   string `gorm:"column:miner_id"`
	IssuedAt  int64  `gorm:"column:issued_at"`
	ExpiresAt int64  `gorm:"column:expires_at;index"`
}

func (AttestChallenge) TableName() string { return "attest_challenge" }

// UsedNonce is the replay-protection dedup table (spec.md §3 UsedNonce).
type UsedNonce struct {
	MinerID   string `gorm:"column:miner_id;primary_key"`
	Nonce     string `gorm:"column:nonce;primary_key"`
	UsedAt    int64  `gorm:"column:used_at"`
	ExpiresAt int64  `gorm:"column:expires_at;index"`
}

func (UsedNonce) TableName() string { return "used_nonce" }

// BlockedWallet lists wallets the admin has blocked (spec.md §4.4 step 2).
type BlockedWallet struct {
	MinerID   string `gorm:"column:miner_id;primary_key"`
	BlockedAt int64  `gorm:"column:blocked_at"`
	Reason    string `gorm:"column:reason"`
}

func (BlockedWallet) TableName() string { return "blocked_wallet" }

// EpochEnrollment is (epoch, miner_pk, weight) (spec.md §3).
type EpochEnrollment struct {
	Epoch   int64   `gorm:"column:epoch;primary_key"`
	MinerPK string  `gorm:"column:miner_pk;primary_key"`
	Weight  float64 `gorm:"column:weight"`
}

func (EpochEnrollment) TableName() string { return "epoch_enrollment" }

// EpochState tracks settlement status per epoch (spec.md §3).
type EpochState struct {
	Epoch     int64 `gorm:"column:epoch;primary_key"`
	Settled   bool  `gorm:"column:settled"`
	SettledTS int64 `gorm:"column:settled_ts"`
}

func (EpochState) TableName() string { return "epoch_state" }

// EpochReward is one settlement distribution row (spec.md §3).
type EpochReward struct {
	Epoch       int64 `gorm:"column:epoch;primary_key"`
	MinerID     string `gorm:"column:miner_id;primary_key"`
	ShareURTC   int64 `gorm:"column:share_urtc"`
}

func (EpochReward) TableName() string { return "epoch_reward" }

// Balance is a wallet's current amount and nonce (spec.md §3).
type Balance struct {
	Address     string `gorm:"column:address;primary_key"`
	AmountURTC  int64  `gorm:"column:amount_urtc"`
	WalletNonce uint64 `gorm:"column:wallet_nonce"`
}

func (Balance) TableName() string { return "balance" }

// LedgerEntry is the append-only transaction log (spec.md §3).
type LedgerEntry struct {
	ID        uint   `gorm:"primary_key"`
	TS        int64  `gorm:"column:ts"`
	Epoch     int64  `gorm:"column:epoch"`
	MinerID   string `gorm:"column:miner_id;index"`
	DeltaURTC int64  `gorm:"column:delta_urtc"`
	Reason    string `gorm:"column:reason"`
}

func (LedgerEntry) TableName() string { return "ledger_entry" }

// PendingTransfer is a transfer awaiting its confirmation window
// (spec.md §3).
type PendingTransfer struct {
	ID          string `gorm:"column:id;primary_key"`
	From        string `gorm:"column:from_address"`
	To          string `gorm:"column:to_address"`
	AmountURTC  int64  `gorm:"column:amount_urtc"`
	Nonce       uint64 `gorm:"column:nonce"`
	Sig         string `gorm:"column:sig"`
	Status      string `gorm:"column:status"` // pending | confirmed | voided
	ConfirmsAt  int64  `gorm:"column:confirms_at"`
}

func (PendingTransfer) TableName() string { return "pending_transfer" }

// AllModels lists every model AutoMigrate must keep up to date. Additive
// only: migrations may add columns, never drop them (spec.md §4.1).
var AllModels = []interface{}{
	&MinerAttestRecent{},
	&HardwareBinding{},
	&MACObservation{},
	&AttestChallenge{},
	&UsedNonce{},
	&BlockedWallet{},
	&EpochEnrollment{},
	&EpochState{},
	&EpochReward{},
	&Balance{},
	&LedgerEntry{},
	&PendingTransfer{},
}
