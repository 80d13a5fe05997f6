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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinerRepo_IssueAndConsumeChallenge(t *testing.T) {
	repo := NewMinerRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.IssueChallenge(ctx, "nonce-1", "miner-1", 1000, 1120))

	c, err := repo.ConsumeChallenge(ctx, "nonce-1", 1010)
	require.NoError(t, err)
	assert.Equal(t, "miner-1", c.MinerID)

	// Consuming twice fails: it was deleted on first consumption.
	_, err = repo.ConsumeChallenge(ctx, "nonce-1", 1010)
	assert.True(t, IsChallengeInvalid(err))
}

func TestMinerRepo_ConsumeChallenge_RejectsExpired(t *testing.T) {
	repo := NewMinerRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.IssueChallenge(ctx, "nonce-1", "miner-1", 1000, 1010))
	_, err := repo.ConsumeChallenge(ctx, "nonce-1", 1020)
	assert.True(t, IsChallengeInvalid(err))
}

func TestMinerRepo_MarkNonceUsed_DetectsReplay(t *testing.T) {
	repo := NewMinerRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.MarkNonceUsed(ctx, "miner-1", "n1", 1000, 2000))
	err := repo.MarkNonceUsed(ctx, "miner-1", "n1", 1000, 2000)
	assert.True(t, IsReplayDetected(err))
}

func TestMinerRepo_BindHardware_EnforcesOneToOne(t *testing.T) {
	repo := NewMinerRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.BindHardware(ctx, "hw-1", "miner-1", 1000))
	// Same miner re-binding the same hardware is a no-op.
	require.NoError(t, repo.BindHardware(ctx, "hw-1", "miner-1", 1001))
	// A different miner claiming the same hardware is rejected.
	err := repo.BindHardware(ctx, "hw-1", "miner-2", 1002)
	assert.True(t, IsHardwareBound(err))
}

func TestMinerRepo_UpsertAttestationAndByID(t *testing.T) {
	repo := NewMinerRepo(openTestDB(t))
	ctx := context.Background()

	rec := MinerAttestRecent{MinerID: "miner-1", AntiquityTier: "classic", TSOk: 1000}
	require.NoError(t, repo.UpsertAttestation(ctx, rec))

	got, found, err := repo.ByID(ctx, "miner-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "classic", got.AntiquityTier)

	rec.AntiquityTier = "ancient"
	rec.TSOk = 2000
	require.NoError(t, repo.UpsertAttestation(ctx, rec))
	got, _, _ = repo.ByID(ctx, "miner-1")
	assert.Equal(t, "ancient", got.AntiquityTier)
}

func TestMinerRepo_ByID_MissingReturnsNotFound(t *testing.T) {
	repo := NewMinerRepo(openTestDB(t))
	_, found, err := repo.ByID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMinerRepo_RecentMiners_FiltersByTTL(t *testing.T) {
	repo := NewMinerRepo(openTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.UpsertAttestation(ctx, MinerAttestRecent{MinerID: "old", TSOk: 100}))
	require.NoError(t, repo.UpsertAttestation(ctx, MinerAttestRecent{MinerID: "new", TSOk: 900}))

	rows, err := repo.RecentMiners(ctx, 500)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].MinerID)
}

func TestMinerRepo_IsBlocked(t *testing.T) {
	repo := NewMinerRepo(openTestDB(t))
	ctx := context.Background()
	blocked, err := repo.IsBlocked(ctx, "miner-1")
	require.NoError(t, err)
	assert.False(t, blocked)
}
