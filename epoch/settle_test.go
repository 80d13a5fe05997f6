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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Scottcjn/Rustchain-sub002/storage/database"
)

func TestShares_SplitsPotProportionallyToWeight(t *testing.T) {
	enrollments := []database.EpochEnrollment{
		{MinerPK: "pk-a", Weight: 3.0},
		{MinerPK: "pk-b", Weight: 1.0},
	}
	shares := Shares(enrollments, 1000)

	assert.Equal(t, int64(750), shares["pk-a"])
	assert.Equal(t, int64(250), shares["pk-b"])
}

func TestShares_RemainderGoesToFirstMinersByPKOrder(t *testing.T) {
	// Three equal-weight miners splitting a pot not divisible by 3: each
	// gets floor(100/3) = 33, leaving a remainder of 1 unit for "pk-a".
	enrollments := []database.EpochEnrollment{
		{MinerPK: "pk-c", Weight: 1.0},
		{MinerPK: "pk-a", Weight: 1.0},
		{MinerPK: "pk-b", Weight: 1.0},
	}
	shares := Shares(enrollments, 100)

	assert.Equal(t, int64(34), shares["pk-a"])
	assert.Equal(t, int64(33), shares["pk-b"])
	assert.Equal(t, int64(33), shares["pk-c"])
}

func TestShares_ConservesTheWholePot(t *testing.T) {
	enrollments := []database.EpochEnrollment{
		{MinerPK: "pk-a", Weight: 3.0},
		{MinerPK: "pk-b", Weight: 1.0},
		{MinerPK: "pk-c", Weight: 1.0},
	}
	shares := Shares(enrollments, 1_500_000)

	var total int64
	for _, s := range shares {
		total += s
	}
	assert.Equal(t, int64(1_500_000), total)
}

func TestShares_EmptyEnrollmentsYieldsNoShares(t *testing.T) {
	shares := Shares(nil, 1000)
	assert.Empty(t, shares)
}

func TestShares_ZeroTotalWeightYieldsNoShares(t *testing.T) {
	enrollments := []database.EpochEnrollment{{MinerPK: "pk-a", Weight: 0}}
	shares := Shares(enrollments, 1000)
	assert.Empty(t, shares)
}
