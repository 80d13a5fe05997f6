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
	"time"

	"github.com/Scottcjn/Rustchain-sub002/params"
)

// initialTimeAgedBonus is the bonus multiplier applied to an enrollment
// timestamp backdated by (params.AntiquityHorizonYear - genesis year)
// years or more before genesis. It decays to 1.0 as the backdated timestamp approaches
// genesis and never goes below 1.0 (spec.md §4.5's "it never drops below
// 1.0") — an Open Question spec.md §9 leaves to the implementation; 2.0
// was chosen as a single "early adopter" doubling, symmetric with the
// vintage-hardware multiplier table's range.
const initialTimeAgedBonus = 2.0

// TimeAgedBonus computes the early-participation bonus for an enrollment
// made at wall-clock time now, given the chain's genesis timestamp. The
// bonus only rewards *backfilled* enrollments — hardware history a miner
// imports with a timestamp predating genesis — and decays from
// initialTimeAgedBonus to 1.0 the closer that backdated timestamp gets
// to genesis. Any enrollment at or after genesis, which is every
// ordinary attestation, gets exactly 1.0: spec.md §8 scenario 1's
// worked example (classic tier, weight 1.5) requires a fresh attestation
// to score exactly base_multiplier(tier), with no bonus on top.
func TimeAgedBonus(genesisTS, now int64) float64 {
	if now >= genesisTS {
		return 1.0
	}

	genesisYear := time.Unix(genesisTS, 0).UTC().Year()
	nowYear := time.Unix(now, 0).UTC().Year()
	span := float64(params.AntiquityHorizonYear - genesisYear)
	if span <= 0 {
		return 1.0
	}

	backdated := float64(genesisYear - nowYear)
	if backdated > span {
		backdated = span
	}
	return 1.0 + (initialTimeAgedBonus-1.0)*(backdated/span)
}

// Weight computes the enrollment weight for a miner's antiquity tier at
// wall-clock time now (spec.md §4.5: "weight = base_multiplier(tier) x
// time_aged_bonus").
func Weight(tier params.AntiquityTier, genesisTS, now int64) float64 {
	base, ok := params.BaseMultiplier[tier]
	if !ok {
		base = params.BaseMultiplier[params.TierModern]
	}
	return base * TimeAgedBonus(genesisTS, now)
}
