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

// Package epoch is the epoch scheduler & settlement aggregate (C5): the
// block/epoch clock, enrollment weighting, and the periodic settlement
// worker.
package epoch

import (
	"github.com/Scottcjn/Rustchain-sub002/params"
)

// Clock converts wall-clock time into the chain's slot/epoch coordinate
// system (spec.md §4.5).
type Clock struct {
	Genesis         int64
	BlockTimeSecs   int64
	EpochSlots      int64
}

// NewClock builds a Clock from chain parameters.
func NewClock(genesis, blockTimeSecs, epochSlots int64) Clock {
	return Clock{Genesis: genesis, BlockTimeSecs: blockTimeSecs, EpochSlots: epochSlots}
}

// Slot returns the current slot for wall-clock time now.
func (c Clock) Slot(now int64) int64 {
	return params.CurrentSlot(now, c.Genesis, c.BlockTimeSecs)
}

// Epoch returns the current epoch for wall-clock time now.
func (c Clock) Epoch(now int64) int64 {
	return params.CurrentEpoch(c.Slot(now), c.EpochSlots)
}
