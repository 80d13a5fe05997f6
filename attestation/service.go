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
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/Scottcjn/Rustchain-sub002/apierr"
	"github.com/Scottcjn/Rustchain-sub002/common"
	rtccrypto "github.com/Scottcjn/Rustchain-sub002/crypto"
	"github.com/Scottcjn/Rustchain-sub002/epoch"
	"github.com/Scottcjn/Rustchain-sub002/fingerprint"
	"github.com/Scottcjn/Rustchain-sub002/log"
	"github.com/Scottcjn/Rustchain-sub002/metrics"
	"github.com/Scottcjn/Rustchain-sub002/params"
	"github.com/Scottcjn/Rustchain-sub002/ratelimit"
	"github.com/Scottcjn/Rustchain-sub002/storage/database"
)

var logger = log.NewModuleLogger(log.Attestation)

// Service implements the attestation service (C4).
type Service struct {
	miners     *database.MinerRepo
	sched      *epoch.Scheduler
	perMiner   *ratelimit.Limiter
	perIP      *ratelimit.Limiter
	challengeTTL int64
	nonceTTL     int64

	minerListCache *common.StringCache
}

// NewService builds a Service. perMinerPerMin/perIPPerMin come from the
// node's config.RateLimit (spec.md §4.4 step 3 defaults to 1/miner,
// 30/IP per minute).
func NewService(miners *database.MinerRepo, sched *epoch.Scheduler, perMinerPerMin, perIPPerMin int) (*Service, error) {
	perMiner, err := ratelimit.New(perMinerPerMin, 60, 100_000)
	if err != nil {
		return nil, err
	}
	perIP, err := ratelimit.New(perIPPerMin, 60, 100_000)
	if err != nil {
		return nil, err
	}
	minerListCache, err := common.NewStringCache(64)
	if err != nil {
		return nil, err
	}
	return &Service{
		miners:         miners,
		sched:          sched,
		perMiner:       perMiner,
		perIP:          perIP,
		challengeTTL:   int64(params.DefaultNonceChallengeTTL.Seconds()),
		nonceTTL:       int64(params.DefaultUsedNonceTTL.Seconds()),
		minerListCache: minerListCache,
	}, nil
}

// IssueChallenge implements POST /attest/challenge.
func (s *Service) IssueChallenge(ctx context.Context, minerID string, now int64) (ChallengeResponse, error) {
	nonce, err := randomHex(32)
	if err != nil {
		return ChallengeResponse{}, err
	}
	expiresAt := now + s.challengeTTL
	if err := s.miners.IssueChallenge(ctx, nonce, minerID, now, expiresAt); err != nil {
		return ChallengeResponse{}, err
	}
	return ChallengeResponse{Nonce: nonce, ExpiresAt: expiresAt}, nil
}

// Submit implements POST /attest/submit's sequential gate (spec.md
// §4.4): each numbered step below matches the spec's ordering, and the
// first failure wins.
func (s *Service) Submit(ctx context.Context, req SubmitRequest, clientIP string, now int64) (SubmitResult, *apierr.Error) {
	metrics.AttestSubmitTotal.Inc(1)

	// step 2: blocked wallets
	blocked, err := s.miners.IsBlocked(ctx, req.Miner)
	if err != nil {
		return SubmitResult{}, apierr.New(apierr.Internal, "")
	}
	if blocked {
		metrics.AttestSubmitRejected.Inc(1)
		return SubmitResult{}, apierr.New(apierr.Unauthorized, "wallet_blocked")
	}

	// step 3: rate limiting
	if !s.perMiner.Allow(req.MinerID, now) || !s.perIP.Allow(clientIP, now) {
		metrics.AttestRateLimited.Inc(1)
		return SubmitResult{}, apierr.New(apierr.RateLimited, "")
	}

	// step 4: nonce freshness
	challenge, cerr := s.miners.ConsumeChallenge(ctx, req.Nonce, now)
	if cerr != nil {
		metrics.AttestSubmitRejected.Inc(1)
		return SubmitResult{}, apierr.New(apierr.ChallengeInvalid, "")
	}
	if challenge.MinerID != "" && challenge.MinerID != req.MinerID {
		metrics.AttestSubmitRejected.Inc(1)
		return SubmitResult{}, apierr.New(apierr.ChallengeMismatch, "")
	}

	// step 5: nonce replay
	if err := s.miners.MarkNonceUsed(ctx, req.MinerID, req.Nonce, now, now+s.nonceTTL); err != nil {
		metrics.AttestSubmitRejected.Inc(1)
		if database.IsReplayDetected(err) {
			return SubmitResult{}, apierr.New(apierr.NonceReplay, "")
		}
		return SubmitResult{}, apierr.New(apierr.Internal, "")
	}

	// step 6: hardware binding
	hardwareID := rtccrypto.HardwareID(req.Device.Model, req.Device.Arch, req.Device.Family, req.Device.Serial, firstMAC(req.Signals.MACs))
	if err := s.miners.BindHardware(ctx, hardwareID, req.MinerID, now); err != nil {
		metrics.AttestSubmitRejected.Inc(1)
		if database.IsHardwareBound(err) {
			return SubmitResult{}, apierr.New(apierr.HardwareBound, "")
		}
		return SubmitResult{}, apierr.New(apierr.Internal, "")
	}

	// step 7: fingerprint validation
	fp := fingerprint.Parse(req.Fingerprint)
	fp.ClaimedArch = req.Device.Arch
	fp.CPUBrand = req.Device.CPU
	result := fingerprint.Validate(fp)
	if !result.Passed {
		metrics.AttestSubmitRejected.Inc(1)
		code := apierr.InvalidJSONObject
		if strings.HasPrefix(result.Reason, "vm_detected") {
			code = apierr.VMDetected
		}
		return SubmitResult{}, apierr.New(code, result.Reason)
	}

	// step 8: signature (optional)
	if req.Signature != "" && req.PublicKey != "" {
		pub, err := hex.DecodeString(req.PublicKey)
		if err != nil {
			return SubmitResult{}, apierr.New(apierr.InvalidSignature, "")
		}
		sig, err := hex.DecodeString(req.Signature)
		if err != nil {
			return SubmitResult{}, apierr.New(apierr.InvalidSignature, "")
		}
		commitment := rtccrypto.CanonicalChallengeCommitment(req.Nonce, req.Miner, req.MinerID)
		if !rtccrypto.Verify(pub, commitment[:], sig) {
			metrics.AttestSubmitRejected.Inc(1)
			return SubmitResult{}, apierr.New(apierr.InvalidSignature, "")
		}
	}

	// step 9: commit
	rec := database.MinerAttestRecent{
		MinerID:             req.MinerID,
		DeviceArch:          req.Device.Arch,
		DeviceFamily:        req.Device.Family,
		EntropyScore:        result.EntropyScore,
		ArchValidationScore: result.ArchValidationScore,
		AntiquityTier:       string(result.AntiquityTier),
		TSOk:                now,
		PublicKeyHex:        req.PublicKey,
	}
	if err := s.miners.UpsertAttestation(ctx, rec); err != nil {
		return SubmitResult{}, apierr.New(apierr.Internal, "")
	}
	for _, mac := range req.Signals.MACs {
		_ = s.miners.RecordMAC(ctx, req.MinerID, mac, now)
	}

	minerPK := req.PublicKey
	if minerPK == "" {
		minerPK = req.MinerID
	}
	if err := s.sched.Enroll(ctx, minerPK, params.AntiquityTier(result.AntiquityTier), now); err != nil {
		logger.Error("enrollment failed", "miner", req.MinerID, "err", err)
	}

	weight := epoch.Weight(params.AntiquityTier(result.AntiquityTier), s.sched.Clock.Genesis, now)
	metrics.AttestSubmitAccepted.Inc(1)
	logger.Info("attestation accepted", "miner", req.MinerID, "tier", result.AntiquityTier)
	return SubmitResult{
		Accepted:      true,
		AntiquityTier: string(result.AntiquityTier),
		EntropyScore:  result.EntropyScore,
		Weight:        weight,
	}, nil
}

func firstMAC(macs []string) string {
	if len(macs) == 0 {
		return ""
	}
	return macs[0]
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
