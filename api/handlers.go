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
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/Scottcjn/Rustchain-sub002/apierr"
	"github.com/Scottcjn/Rustchain-sub002/attestation"
	rtccrypto "github.com/Scottcjn/Rustchain-sub002/crypto"
	"github.com/Scottcjn/Rustchain-sub002/p2p"
	"github.com/Scottcjn/Rustchain-sub002/wallet"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	now := s.now()
	writeJSON(w, 200, map[string]interface{}{
		"ok":            s.db.Healthy(),
		"version":       "1.0.0",
		"uptime_s":      now - s.started,
		"db_rw":         s.db.Healthy(),
		"tip_age_slots": s.sched.Clock.Slot(now),
	})
}

func (s *Server) handleEpoch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	now := s.now()
	e := s.sched.Clock.Epoch(now)
	slot := s.sched.Clock.Slot(now)
	enrolled, err := s.enrolledCount(r, e)
	if err != nil {
		writeError(w, r, apierr.New(apierr.Internal, ""))
		return
	}
	writeJSON(w, 200, map[string]interface{}{
		"epoch":            e,
		"slot":             slot,
		"blocks_per_epoch": s.sched.Clock.EpochSlots,
		"enrolled_miners":  enrolled,
		"epoch_pot":        s.sched.PotURTC,
	})
}

func (s *Server) handleListMiners(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	views, err := s.attest.ListRecentMiners(r.Context(), s.now())
	if err != nil {
		writeError(w, r, apierr.New(apierr.Internal, ""))
		return
	}
	writeJSON(w, 200, views)
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body := bodyOf(r)
	minerID, _ := body["miner_id"].(string)
	resp, err := s.attest.IssueChallenge(r.Context(), minerID, s.now())
	if err != nil {
		writeError(w, r, apierr.New(apierr.Internal, ""))
		return
	}
	writeJSON(w, 200, resp)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body := bodyOf(r)
	req, perr := attestation.ParseSubmit(body)
	if perr != nil {
		writeError(w, r, perr)
		return
	}
	result, serr := s.attest.Submit(r.Context(), req, s.clientIP(r), s.now())
	if serr != nil {
		writeError(w, r, serr)
		return
	}
	writeJSON(w, 200, result)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	addr := r.URL.Query().Get("miner_id")
	if addr == "" || !rtccrypto.IsWellFormedAddress(addr) {
		writeError(w, r, apierr.New(apierr.InvalidJSONObject, "miner_id must be a well-formed address"))
		return
	}
	bal, err := s.wallet.Balance(r.Context(), addr)
	if err != nil {
		writeError(w, r, apierr.New(apierr.Internal, ""))
		return
	}
	writeJSON(w, 200, map[string]interface{}{
		"address":     bal.Address,
		"amount_urtc": bal.AmountURTC,
		"amount_rtc":  float64(bal.AmountURTC) / 1_000_000.0,
		"wallet_nonce": bal.WalletNonce,
	})
}

func (s *Server) decodeTransfer(r *http.Request) (wallet.TransferRequest, *apierr.Error) {
	body := bodyOf(r)
	raw, _ := json.Marshal(body)
	var req wallet.TransferRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, apierr.New(apierr.InvalidJSONObject, "")
	}
	return req, nil
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, derr := s.decodeTransfer(r)
	if derr != nil {
		writeError(w, r, derr)
		return
	}
	executed, terr := s.wallet.Transfer(r.Context(), req, s.now())
	if terr != nil {
		writeError(w, r, terr)
		return
	}
	writeJSON(w, 200, map[string]interface{}{"executed": executed})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, derr := s.decodeTransfer(r)
	if derr != nil {
		writeError(w, r, derr)
		return
	}
	executed, werr := s.wallet.Withdraw(r.Context(), req, s.now())
	if werr != nil {
		writeError(w, r, werr)
		return
	}
	writeJSON(w, 200, map[string]interface{}{"executed": executed})
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body := bodyOf(r)
	epochF, ok := body["epoch"].(float64)
	if !ok {
		writeError(w, r, apierr.New(apierr.InvalidJSONObject, "epoch must be a number"))
		return
	}
	if err := s.sched.SettleOne(r.Context(), int64(epochF), s.now()); err != nil {
		writeError(w, r, apierr.New(apierr.Internal, ""))
		return
	}
	writeJSON(w, 200, map[string]interface{}{"settled": int64(epochF)})
}

func (s *Server) handleEpochRewards(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, err := strconv.ParseInt(ps.ByName("epoch"), 10, 64)
	if err != nil {
		writeError(w, r, apierr.New(apierr.InvalidJSONObject, "epoch must be an integer"))
		return
	}
	rewards, rerr := s.epochRewards(r, e)
	if rerr != nil {
		writeError(w, r, apierr.New(apierr.Internal, ""))
		return
	}
	writeJSON(w, 200, rewards)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status, err := s.node.SyncStatus(r.Context())
	if err != nil {
		writeError(w, r, apierr.New(apierr.Internal, ""))
		return
	}
	writeJSON(w, 200, status)
}

func (s *Server) handlePendingConfirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n, err := s.wallet.ConfirmPending(r.Context(), s.now())
	if err != nil {
		writeError(w, r, apierr.New(apierr.Internal, ""))
		return
	}
	writeJSON(w, 200, map[string]interface{}{"confirmed": n})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, 200, s.cfg.Public())
}

func (s *Server) handleP2PInv(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var env p2p.Envelope
	raw, _ := json.Marshal(bodyOf(r))
	if err := json.Unmarshal(raw, &env); err != nil {
		writeError(w, r, apierr.New(apierr.InvalidJSONObject, ""))
		return
	}
	var hashes []string
	_ = json.Unmarshal(env.Payload, &hashes)
	writeJSON(w, 200, s.node.UnknownOf(hashes, s.now()))
}

func (s *Server) handleP2PGetData(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var env p2p.Envelope
	raw, _ := json.Marshal(bodyOf(r))
	if err := json.Unmarshal(raw, &env); err != nil {
		writeError(w, r, apierr.New(apierr.InvalidJSONObject, ""))
		return
	}
	data, err := s.node.ServeGetData(env.PayloadHash, s.now())
	if err != nil {
		writeError(w, r, apierr.New(apierr.NotFound, ""))
		return
	}
	writeJSON(w, 200, data)
}
