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

package attestation

import (
	"context"
	"strconv"

	"github.com/Scottcjn/Rustchain-sub002/common"
	"github.com/Scottcjn/Rustchain-sub002/params"
)

// defaultMinerListTTL is GET /api/miners' default freshness window
// (spec.md §4.4: "Projects miner_attest_recent with a TTL (default 24h)").
const defaultMinerListTTL = 24 * 60 * 60

// minerListCacheBucket is how often GET /api/miners is allowed to re-hit
// the database; the row set rarely changes faster than this.
const minerListCacheBucket = 5

// ListRecentMiners implements GET /api/miners, caching the projected
// view for minerListCacheBucket seconds so a burst of polling clients
// doesn't each force a full table scan of miner_attest_recent.
func (s *Service) ListRecentMiners(ctx context.Context, now int64) ([]MinerView, error) {
	bucket := strconv.FormatInt(now/minerListCacheBucket, 10)
	if cached, ok := s.minerListCache.Get(bucket); ok {
		return cached.([]MinerView), nil
	}

	views, err := s.listRecentMiners(ctx, now)
	if err != nil {
		return nil, err
	}
	s.minerListCache.Add(bucket, views)
	return views, nil
}

func (s *Service) listRecentMiners(ctx context.Context, now int64) ([]MinerView, error) {
	rows, err := s.miners.RecentMiners(ctx, now-defaultMinerListTTL)
	if err != nil {
		return nil, err
	}
	views := make([]MinerView, 0, len(rows))
	for _, r := range rows {
		tier := params.AntiquityTier(r.AntiquityTier)
		mult := params.BaseMultiplier[tier]
		views = append(views, MinerView{
			MinerID:             r.MinerID,
			DeviceArch:          r.DeviceArch,
			DeviceFamily:        r.DeviceFamily,
			HardwareType:        r.DeviceFamily,
			AntiquityTier:       r.AntiquityTier,
			AntiquityMultiplier: mult,
			EntropyScore:        r.EntropyScore,
			LastSeen:            r.TSOk,
		})
	}
	return views, nil
}
