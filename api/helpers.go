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

package api

import (
	"net/http"

	"github.com/Scottcjn/Rustchain-sub002/storage/database"
)

func (s *Server) enrolledCount(r *http.Request, e int64) (int, error) {
	return s.sched.EnrolledCount(r.Context(), e)
}

func (s *Server) epochRewards(r *http.Request, e int64) ([]database.EpochReward, error) {
	return s.sched.Rewards(r.Context(), e)
}
