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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scottcjn/Rustchain-sub002/apierr"
	"github.com/Scottcjn/Rustchain-sub002/epoch"
	"github.com/Scottcjn/Rustchain-sub002/storage/database"
)

func newTestService(t *testing.T, perMinerPerMin, perIPPerMin int) (*Service, *database.MinerRepo) {
	t.Helper()
	dir, err := ioutil.TempDir("", "rustchain-attest-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	db, err := database.Open(filepath.Join(dir, "node.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	miners := database.NewMinerRepo(db)
	epochs := database.NewEpochRepo(db)
	ledger := database.NewLedgerRepo(db)
	clock := epoch.NewClock(0, 600, 144)
	sched := epoch.NewScheduler(clock, 1_500_000, epochs, ledger)

	svc, err := NewService(miners, sched, perMinerPerMin, perIPPerMin)
	require.NoError(t, err)
	return svc, miners
}

func genuineSubmission(minerID, nonce string) SubmitRequest {
	return SubmitRequest{
		Miner:   minerID,
		MinerID: minerID,
		Nonce:   nonce,
		Device: Device{
			Family: "mac", Arch: "powerpc-g4", Model: "PowerMac", CPU: "PowerPC G4", Serial: "SN-" + minerID,
		},
		Signals: Signals{MACs: []string{"00:11:22:33:44:" + minerID[len(minerID)-2:]}},
		Fingerprint: map[string]interface{}{
			"checks": map[string]interface{}{
				"anti_emulation": map[string]interface{}{"passed": true, "data": map[string]interface{}{"dmi_vendor": "Apple Computer, Inc."}},
			},
		},
	}
}

func TestIssueChallengeAndSubmit_HappyPath(t *testing.T) {
	svc, _ := newTestService(t, 10, 100)
	ctx := context.Background()

	ch, err := svc.IssueChallenge(ctx, "miner-1", 1000)
	require.NoError(t, err)
	assert.NotEmpty(t, ch.Nonce)

	req := genuineSubmission("miner-1", ch.Nonce)
	res, apiErr := svc.Submit(ctx, req, "1.2.3.4", 1001)
	require.Nil(t, apiErr)
	assert.True(t, res.Accepted)
	assert.Equal(t, "classic", res.AntiquityTier)
}

func TestSubmit_RejectsUnknownNonce(t *testing.T) {
	svc, _ := newTestService(t, 10, 100)
	req := genuineSubmission("miner-1", "never-issued")
	_, apiErr := svc.Submit(context.Background(), req, "1.2.3.4", 1000)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.ChallengeInvalid, apiErr.Code)
}

func TestSubmit_RejectsReplayedNonce(t *testing.T) {
	svc, _ := newTestService(t, 10, 100)
	ctx := context.Background()
	ch, err := svc.IssueChallenge(ctx, "miner-1", 1000)
	require.NoError(t, err)

	req := genuineSubmission("miner-1", ch.Nonce)
	_, apiErr := svc.Submit(ctx, req, "1.2.3.4", 1001)
	require.Nil(t, apiErr)

	// Resubmitting the same request replays a nonce whose one-shot
	// challenge row the first submit deleted, so the gate stops it at the
	// nonce-freshness step (CHALLENGE_INVALID) before the used_nonce check.
	_, apiErr = svc.Submit(ctx, req, "1.2.3.4", 1002)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.ChallengeInvalid, apiErr.Code)
}

func TestSubmit_RejectsRateLimitedMiner(t *testing.T) {
	svc, _ := newTestService(t, 1, 100)
	ctx := context.Background()

	ch1, err := svc.IssueChallenge(ctx, "miner-1", 1000)
	require.NoError(t, err)
	_, apiErr := svc.Submit(ctx, genuineSubmission("miner-1", ch1.Nonce), "1.2.3.4", 1001)
	require.Nil(t, apiErr)

	ch2, err := svc.IssueChallenge(ctx, "miner-1", 1002)
	require.NoError(t, err)
	_, apiErr = svc.Submit(ctx, genuineSubmission("miner-1", ch2.Nonce), "1.2.3.4", 1003)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.RateLimited, apiErr.Code)
}

func TestSubmit_RejectsHardwareReboundToADifferentMiner(t *testing.T) {
	svc, _ := newTestService(t, 10, 100)
	ctx := context.Background()

	ch1, err := svc.IssueChallenge(ctx, "miner-1", 1000)
	require.NoError(t, err)
	req1 := genuineSubmission("miner-1", ch1.Nonce)
	_, apiErr := svc.Submit(ctx, req1, "1.2.3.4", 1001)
	require.Nil(t, apiErr)

	ch2, err := svc.IssueChallenge(ctx, "miner-2", 1002)
	require.NoError(t, err)
	req2 := genuineSubmission("miner-2", ch2.Nonce)
	req2.Device.Serial = req1.Device.Serial // identical hardware identity
	req2.Signals.MACs = req1.Signals.MACs

	_, apiErr = svc.Submit(ctx, req2, "1.2.3.4", 1003)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.HardwareBound, apiErr.Code)
}

func TestSubmit_RejectsBlockedWallet(t *testing.T) {
	svc, miners := newTestService(t, 10, 100)
	ctx := context.Background()
	require.NoError(t, miners.BlockWallet(ctx, "miner-1", 999, "fraud"))

	ch, err := svc.IssueChallenge(ctx, "miner-1", 1000)
	require.NoError(t, err)
	_, apiErr := svc.Submit(ctx, genuineSubmission("miner-1", ch.Nonce), "1.2.3.4", 1001)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.Unauthorized, apiErr.Code)
}

func TestSubmit_RejectsVMDetectedAntiEmulationAsVMDetected(t *testing.T) {
	svc, _ := newTestService(t, 10, 100)
	ctx := context.Background()

	ch, err := svc.IssueChallenge(ctx, "miner-1", 1000)
	require.NoError(t, err)

	req := genuineSubmission("miner-1", ch.Nonce)
	req.Fingerprint = map[string]interface{}{
		"checks": map[string]interface{}{
			"anti_emulation": map[string]interface{}{
				"passed": false,
				"data": map[string]interface{}{
					"vm_indicators": []interface{}{"hypervisor_bit", "cpuid_vendor_kvm"},
				},
			},
		},
	}

	_, apiErr := svc.Submit(ctx, req, "1.2.3.4", 1001)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.VMDetected, apiErr.Code)
}

func TestListRecentMiners_ReflectsAcceptedSubmission(t *testing.T) {
	svc, _ := newTestService(t, 10, 100)
	ctx := context.Background()
	ch, err := svc.IssueChallenge(ctx, "miner-1", 1000)
	require.NoError(t, err)
	_, apiErr := svc.Submit(ctx, genuineSubmission("miner-1", ch.Nonce), "1.2.3.4", 1001)
	require.Nil(t, apiErr)

	views, err := svc.ListRecentMiners(ctx, 1002)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "miner-1", views[0].MinerID)
	assert.Equal(t, "classic", views[0].AntiquityTier)
}
