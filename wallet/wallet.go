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

// Package wallet is the ledger/wallet aggregate (C6): signed transfers,
// withdrawals and the pending-transfer maturation lifecycle.
package wallet

import (
	"context"
	"encoding/hex"
	"math"

	"github.com/hashicorp/go-uuid"

	"github.com/Scottcjn/Rustchain-sub002/apierr"
	rtccrypto "github.com/Scottcjn/Rustchain-sub002/crypto"
	"github.com/Scottcjn/Rustchain-sub002/log"
	"github.com/Scottcjn/Rustchain-sub002/metrics"
	"github.com/Scottcjn/Rustchain-sub002/params"
	"github.com/Scottcjn/Rustchain-sub002/storage/database"
)

var logger = log.NewModuleLogger(log.Wallet)

// FeePoolAddress collects transfer fees. It is a fixed, well-formed RTC
// address rather than an externally owned wallet.
const FeePoolAddress = "RTC" + "0000000000000000000000000000000000000000"

// TransferRequest is POST /wallet/transfer/signed's body.
type TransferRequest struct {
	From      string  `json:"from_address"`
	To        string  `json:"to_address"`
	AmountRTC float64 `json:"amount_rtc"`
	Nonce     uint64  `json:"nonce"`
	Signature string  `json:"signature"`
	PublicKey string  `json:"public_key"`
	Memo      string  `json:"memo"`
}

// Service implements C6 over LedgerRepo.
type Service struct {
	ledger           *database.LedgerRepo
	pendingThreshold int64
	pendingWindowSec int64
	feeURTC          int64
	minWithdrawal    int64
}

// NewService builds a wallet Service with the fee and threshold
// parameters spec.md §4.6/§9 calls for.
func NewService(ledger *database.LedgerRepo, minWithdrawal, feeURTC int64) *Service {
	return &Service{
		ledger:           ledger,
		pendingThreshold: params.DefaultPendingThresholdURTC,
		pendingWindowSec: int64(params.DefaultPendingTransferWindow.Seconds()),
		feeURTC:          feeURTC,
		minWithdrawal:    minWithdrawal,
	}
}

// Balance implements GET /wallet/balance.
func (s *Service) Balance(ctx context.Context, address string) (database.Balance, error) {
	return s.ledger.GetBalance(ctx, address)
}

// preflight implements spec.md §4.6's preflight validation, returning a
// specific error code per failure (never a generic 400).
func (s *Service) preflight(req TransferRequest) *apierr.Error {
	if !rtccrypto.IsWellFormedAddress(req.From) || !rtccrypto.IsWellFormedAddress(req.To) {
		return apierr.New(apierr.InvalidJSONObject, "malformed_address")
	}
	if req.From == req.To {
		return apierr.New(apierr.FromToMustDiffer, "")
	}
	if math.IsNaN(req.AmountRTC) || math.IsInf(req.AmountRTC, 0) {
		return apierr.New(apierr.AmountNotFinite, "")
	}
	if req.AmountRTC <= 0 {
		return apierr.New(apierr.AmountNotFinite, "amount_not_positive")
	}
	if req.Nonce == 0 {
		return apierr.New(apierr.InvalidJSONObject, "nonce_must_be_positive")
	}
	amountURTC := int64(math.Round(req.AmountRTC * params.MicroRTCPerRTC))
	if amountURTC < 1 {
		return apierr.New(apierr.AmountTooSmall, "amount_too_small_after_quantization")
	}
	return nil
}

// Transfer implements POST /wallet/transfer/signed: preflight, sender
// verification, and execution (or pending-queue) per spec.md §4.6.
func (s *Service) Transfer(ctx context.Context, req TransferRequest, now int64) (bool, *apierr.Error) {
	metrics.TransfersTotal.Inc(1)
	if err := s.preflight(req); err != nil {
		metrics.TransfersRejected.Inc(1)
		return false, err
	}

	pub, decErr := hex.DecodeString(req.PublicKey)
	if decErr != nil {
		metrics.TransfersRejected.Inc(1)
		return false, apierr.New(apierr.InvalidSignature, "bad_public_key")
	}
	if rtccrypto.DeriveAddress(pub) != req.From {
		metrics.TransfersRejected.Inc(1)
		return false, apierr.New(apierr.InvalidSignature, "public_key_mismatch")
	}

	amountURTC := int64(math.Round(req.AmountRTC * params.MicroRTCPerRTC))
	msg := rtccrypto.CanonicalTransferMessage(req.From, req.To, amountURTC, req.Nonce, req.Memo)
	sig, decErr := hex.DecodeString(req.Signature)
	if decErr != nil || !rtccrypto.Verify(pub, msg, sig) {
		metrics.TransfersRejected.Inc(1)
		return false, apierr.New(apierr.InvalidSignature, "")
	}

	balance, err := s.ledger.GetBalance(ctx, req.From)
	if err != nil {
		return false, apierr.New(apierr.Internal, "")
	}
	if req.Nonce <= balance.WalletNonce {
		metrics.TransfersRejected.Inc(1)
		return false, apierr.New(apierr.NonceReplay, "nonce_stale")
	}

	if amountURTC >= s.pendingThreshold {
		id, err := uuid.GenerateUUID()
		if err != nil {
			return false, apierr.New(apierr.Internal, "")
		}
		p := database.PendingTransfer{
			ID:         id,
			From:       req.From,
			To:         req.To,
			AmountURTC: amountURTC,
			Nonce:      req.Nonce,
			Sig:        req.Signature,
			Status:     "pending",
			ConfirmsAt: now + s.pendingWindowSec,
		}
		if err := s.ledger.CreatePending(ctx, p); err != nil {
			return false, apierr.New(apierr.Internal, "")
		}
		logger.Info("transfer queued pending", "from", req.From, "to", req.To, "amount", amountURTC)
		return false, nil
	}

	if err := s.ledger.ExecuteTransfer(ctx, req.From, req.To, FeePoolAddress, amountURTC, s.feeURTC, req.Nonce, "transfer_out", now); err != nil {
		metrics.TransfersRejected.Inc(1)
		if err == database.ErrInsufficientBalance {
			return false, apierr.New(apierr.InsufficientBalance, "")
		}
		if err == database.ErrNonceStale {
			return false, apierr.New(apierr.NonceReplay, "nonce_stale")
		}
		return false, apierr.New(apierr.Internal, "")
	}
	return true, nil
}

// Withdraw implements POST /withdraw/request: identical to Transfer
// save for the minimum-amount floor (spec.md §4.6). Its ledger entries
// carry the same transfer_out reason that a transfer records.
func (s *Service) Withdraw(ctx context.Context, req TransferRequest, now int64) (bool, *apierr.Error) {
	amountURTC := int64(math.Round(req.AmountRTC * params.MicroRTCPerRTC))
	if amountURTC < s.minWithdrawal {
		return false, apierr.New(apierr.AmountTooSmall, "below_minimum_withdrawal")
	}
	return s.Transfer(ctx, req, now)
}

// ConfirmPending implements POST /pending/confirm (admin): matures all
// due pending transfers.
func (s *Service) ConfirmPending(ctx context.Context, now int64) (int, error) {
	return s.ledger.MaturePending(ctx, FeePoolAddress, s.feeURTC, now)
}
