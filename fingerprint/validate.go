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

package fingerprint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Scottcjn/Rustchain-sub002/log"
	"github.com/Scottcjn/Rustchain-sub002/params"
)

var logger = log.NewModuleLogger(log.Fingerprint)

// knownEmulatorROMHashes are ROM hashes known to belong to emulators
// rather than genuine retro hardware (spec.md §4.3 rule 6).
var knownEmulatorROMHashes = map[string]bool{
	"qemu-default-seabios": true,
	"virtualbox-efi-rom":   true,
}

// Validate runs the seven rules of spec.md §4.3 in order and returns the
// first fatal rejection, or a passing Result with scores and tier.
func Validate(fp Fingerprint) Result {
	entropy := 1.0
	var archScore = 1.0
	var penalties []string

	// Rule 1: anti-emulation (fatal).
	if fp.AntiEmulation.Present == Provided {
		if !fp.AntiEmulation.Passed {
			return Result{Passed: false, Reason: "vm_detected:" + strings.Join(fp.AntiEmulation.Indicators, ",")}
		}
		if !fp.AntiEmulation.HasData {
			return Result{Passed: false, Reason: "anti_emulation_no_evidence"}
		}
	}

	profile, knownArch := ResolveArchProfile(fp.ClaimedArch)

	// Rule 2: clock drift.
	if fp.ClockDrift.Present == Provided {
		if !fp.ClockDrift.Passed {
			return Result{Passed: false, Reason: "clock_drift_failed:" + fp.ClockDrift.Reason}
		}
		cv := fp.ClockDrift.CV
		if cv > 0 && cv < 1e-4 {
			return Result{Passed: false, Reason: "timing_too_uniform"}
		}
		if knownArch && profile.IsVintage && cv > 0 && cv < profile.MinCV {
			return Result{Passed: false, Reason: "vintage_timing_too_stable"}
		}
		if knownArch && cv > 0 && cv < profile.MinCV {
			archScore -= 0.2
			penalties = append(penalties, "timing_too_stable_for_arch")
		}
	}

	// Rule 3: cache timing.
	if fp.CacheTiming.Present == Provided {
		if knownArch && profile.L2L1Present && fp.CacheTiming.L2L1Ratio > 0 && fp.CacheTiming.L2L1Ratio < 1.05 {
			penalties = append(penalties, "flat_cache_hierarchy")
			entropy -= 0.3
			archScore -= 0.3
			if fp.CacheTiming.L2L1Ratio < 1.0 {
				return Result{Passed: false, Reason: "flat_cache_hierarchy"}
			}
		}
	}

	// Rule 4: SIMD identity.
	if fp.SIMDIdentity.Present == Provided && knownArch {
		missing := false
		switch profile.SIMD {
		case "altivec":
			missing = !fp.SIMDIdentity.HasAltiVec
		case "neon":
			missing = !fp.SIMDIdentity.HasNEON
		case "sse_avx":
			missing = !(fp.SIMDIdentity.HasSSE || fp.SIMDIdentity.HasAVX)
		case "sse":
			missing = !fp.SIMDIdentity.HasSSE
		}
		if missing && profile.SIMD != "" {
			penalties = append(penalties, "missing_expected_simd")
			archScore -= 0.4
		}
	}

	// Rule 5: thermal drift.
	if fp.ThermalDrift.Present == Provided {
		if fp.ThermalDrift.Variance == 0 && allZero(fp.ThermalDrift.SampleSets) {
			return Result{Passed: false, Reason: "frozen_profile"}
		}
		if knownArch && profile.IsVintage && fp.ThermalDrift.DriftRatio < 1.005 {
			penalties = append(penalties, "low_thermal_drift_for_vintage")
			archScore -= 0.1
		}
	}

	// Rule 6: ROM / vendor fingerprint (retro platforms only).
	if fp.ROM.Present == Provided {
		if knownEmulatorROMHashes[strings.ToLower(fp.ROM.ROMHash)] {
			return Result{Passed: false, Reason: "known_emulator_rom"}
		}
	}

	// Rule 7: device-age oracle.
	ageReason := ""
	if fp.CPUBrand != "" && knownArch {
		if yearStart, yearEnd, ok := deviceAgeOracle(fp.CPUBrand); ok {
			claimedYearStart, claimedYearEnd := archClaimYears(fp.ClaimedArch)
			if claimedYearStart > 0 && !rangesOverlapWithTolerance(yearStart, yearEnd, claimedYearStart, claimedYearEnd, params.AgeToleranceYears) {
				confidence := ageMismatchConfidence(yearStart, yearEnd, claimedYearStart, claimedYearEnd)
				ageReason = fmt.Sprintf("device_age_oracle_mismatch:confidence=%s", strconv.FormatFloat(confidence, 'f', 2, 64))
				penalties = append(penalties, "device_age_oracle_mismatch")
				archScore -= 0.2 * confidence
			}
		}
	}

	if archScore < 0 {
		archScore = 0
	}
	if entropy < 0 {
		entropy = 0
	}

	tier := classifyTier(fp.ClaimedArch, knownArch, profile, len(penalties))
	reason := "ok"
	if ageReason != "" {
		reason = ageReason
	} else if len(penalties) > 0 {
		reason = "degraded:" + strings.Join(penalties, ",")
	}

	return Result{
		Passed:              true,
		Reason:              reason,
		EntropyScore:        round2(entropy),
		ArchValidationScore: round2(archScore),
		AntiquityTier:       string(tier),
	}
}

func allZero(xs []float64) bool {
	if len(xs) == 0 {
		return true
	}
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}

// archClaimYears gives the nominal production-year band for a claimed
// architecture family, used only to sanity-check the device-age oracle.
func archClaimYears(claimedArch string) (int, int) {
	switch {
	case contains(claimedArch, "g3"):
		return 1997, 2003
	case contains(claimedArch, "g4"):
		return 1999, 2006
	case contains(claimedArch, "g5"):
		return 2003, 2006
	case contains(claimedArch, "retro"), contains(claimedArch, "i386"), contains(claimedArch, "i686"), contains(claimedArch, "pentium"):
		return 1993, 2003
	case contains(claimedArch, "apple"), contains(claimedArch, "m1"), contains(claimedArch, "m2"), contains(claimedArch, "m3"):
		return 2020, 2025
	case contains(claimedArch, "x86_64"), contains(claimedArch, "amd64"):
		return 2006, 2025
	default:
		return 0, 0
	}
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func rangesOverlapWithTolerance(aStart, aEnd, bStart, bEnd, tolerance int) bool {
	return aStart-tolerance <= bEnd && bStart-tolerance <= aEnd
}

func ageMismatchConfidence(aStart, aEnd, bStart, bEnd int) float64 {
	gap := aStart - bEnd
	if bStart-aEnd > gap {
		gap = bStart - aEnd
	}
	if gap <= 0 {
		return 0
	}
	conf := float64(gap) / 20.0
	if conf > 1 {
		conf = 1
	}
	return conf
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// classifyTier maps the claimed arch and accumulated penalties onto the
// antiquity tiers spec.md §4.3 defines.
func classifyTier(claimedArch string, knownArch bool, profile ArchProfile, penaltyCount int) params.AntiquityTier {
	if penaltyCount >= 3 {
		return params.TierEmulated
	}
	if !knownArch {
		return params.TierModern
	}
	switch profile.Name {
	case "G3":
		return params.TierAncient
	case "G4", "G5":
		return params.TierClassic
	case "retro_x86":
		return params.TierVintage
	case "apple_silicon", "modern_x86":
		return params.TierModern
	default:
		return params.TierModern
	}
}
