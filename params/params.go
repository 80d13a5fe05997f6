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

// Package params holds the chain-wide constants of Proof of Antiquity:
// slot/epoch timing, the per-epoch reward pot, and the antiquity
// multiplier table. Mirrors the flavor of protocol_params.go in the
// ancestor codebase this package is modeled on (plain typed constants,
// grouped by concern, no behavior).
package params

import "time"

// Default chain timing, overridable via config/env for test networks.
const (
	DefaultBlockTimeSeconds int64 = 600
	DefaultEpochSlots       int64 = 144

	DefaultPerEpochPotURTC    int64 = 1_500_000
	DefaultMinWithdrawalURTC  int64 = 100_000
	DefaultWithdrawalFeeURTC  int64 = 10_000
	MicroRTCPerRTC            int64 = 1_000_000

	DefaultNonceChallengeTTL = 120 * time.Second
	DefaultUsedNonceTTL      = time.Hour

	DefaultPendingTransferWindow = 10 * time.Minute
	// PendingThresholdURTC: transfers at or above this size are queued
	// as pending rather than settled immediately (spec.md §4.6).
	DefaultPendingThresholdURTC int64 = 100_000_000

	DefaultMessageExpiry = 300 * time.Second
	DefaultGossipTick    = 30 * time.Second
	DefaultSettleTick    = 5 * time.Minute

	RequestDeadline  = 30 * time.Second
	DBStatementTimeout = 5 * time.Second
	PeerCallTimeout  = 15 * time.Second

	// AgeToleranceYears bounds the device-age oracle (spec.md §4.3 rule 7).
	AgeToleranceYears = 5

	// AntiquityHorizonYear sets the span of the time-aged enrollment
	// bonus (spec.md §4.5): the full bonus applies to timestamps
	// backdated (AntiquityHorizonYear - genesis year) years before
	// genesis; at and after genesis the bonus is 1.0.
	AntiquityHorizonYear = 2040
)

// AntiquityTier is the classification C3 assigns a validated fingerprint.
type AntiquityTier string

const (
	TierAncient  AntiquityTier = "ancient"
	TierClassic  AntiquityTier = "classic"
	TierVintage  AntiquityTier = "vintage"
	TierModern   AntiquityTier = "modern"
	TierEmulated AntiquityTier = "emulated"
)

// BaseMultiplier is the authoritative tier -> multiplier table chosen per
// spec.md §9's Open Question ("pick one authoritative table at build
// time"). Injective and bounded in [0.03125, 3.0] as required.
var BaseMultiplier = map[AntiquityTier]float64{
	TierAncient:  3.0,
	TierClassic:  1.5,
	TierVintage:  1.2,
	TierModern:   1.0,
	TierEmulated: 1.0 / 32.0,
}

// CurrentSlot computes spec.md §4.5's slot clock.
func CurrentSlot(now, genesis, blockTimeSeconds int64) int64 {
	slot := (now - genesis) / blockTimeSeconds
	if slot < 0 {
		return 0
	}
	return slot
}

// CurrentEpoch computes spec.md §4.5's epoch from a slot.
func CurrentEpoch(slot, epochSlots int64) int64 {
	return slot / epochSlots
}
