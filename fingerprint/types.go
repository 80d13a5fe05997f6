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

// Package fingerprint validates a miner's hardware fingerprint payload
// (spec.md §4.3). The wire payload is dynamically shaped JSON (each
// check is either a legacy bare bool or a {passed, data} object); per
// the Design Note in spec.md §9 this package parses that shape into a
// tagged variant per check and validates the typed form, rather than
// threading map[string]interface{} through the rule functions.
package fingerprint

// CheckPresence distinguishes a check that was never reported (legacy-
// permissive, spec.md §4.3) from one that was reported and failed.
type CheckPresence int

const (
	NotProvided CheckPresence = iota
	Provided
)

// AntiEmulation models checks.anti_emulation.
type AntiEmulation struct {
	Present    CheckPresence
	Passed     bool
	Indicators []string
	HasData    bool
}

// ClockDrift models checks.clock_drift.
type ClockDrift struct {
	Present    CheckPresence
	Passed     bool
	CV         float64
	DriftStdev float64
	Reason     string
}

// CacheTiming models checks.cache_timing.
type CacheTiming struct {
	Present  CheckPresence
	L2L1Ratio float64
	L3L2Ratio float64
}

// SIMDIdentity models checks.simd_identity.
type SIMDIdentity struct {
	Present    CheckPresence
	HasAltiVec bool
	HasNEON    bool
	HasSSE     bool
	HasAVX     bool
}

// ThermalDrift models checks.thermal_drift.
type ThermalDrift struct {
	Present    CheckPresence
	DriftRatio float64
	Variance   float64
	SampleSets []float64
}

// ROMFingerprint models checks.rom_fingerprint (retro platforms only).
type ROMFingerprint struct {
	Present CheckPresence
	ROMHash string
}

// Fingerprint is the fully-typed, parsed submission.
type Fingerprint struct {
	AntiEmulation AntiEmulation
	ClockDrift    ClockDrift
	CacheTiming   CacheTiming
	SIMDIdentity  SIMDIdentity
	ThermalDrift  ThermalDrift
	ROM           ROMFingerprint

	ClaimedArch  string
	CPUBrand     string
}

// Result is C3's output, per spec.md §4.3.
type Result struct {
	Passed               bool
	Reason               string
	EntropyScore         float64
	ArchValidationScore  float64
	AntiquityTier        string
}
