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
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scottcjn/Rustchain-sub002/attestation"
	"github.com/Scottcjn/Rustchain-sub002/config"
	"github.com/Scottcjn/Rustchain-sub002/epoch"
	"github.com/Scottcjn/Rustchain-sub002/p2p"
	"github.com/Scottcjn/Rustchain-sub002/storage/database"
	"github.com/Scottcjn/Rustchain-sub002/wallet"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir, err := ioutil.TempDir("", "rustchain-api-test")
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

	attest, err := attestation.NewService(miners, sched, 10, 100)
	require.NoError(t, err)

	walletSvc := wallet.NewService(ledger, 100_000, 1_000)

	dedup, err := p2p.OpenDedupStore(filepath.Join(dir, "dedup"))
	require.NoError(t, err)
	t.Cleanup(func() { dedup.Close() })
	node := p2p.NewNode("self", nil, nil, dedup, miners, epochs, ledger)

	cfg := &config.Config{AdminKey: "secret-admin-key", MaxRequestBody: 256 * 1024}

	return NewServer(cfg, db, attest, walletSvc, sched, node, 0, func() int64 { return 1000 })
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth_ReportsOK(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, true, out["ok"])
}

func TestHandleEpoch_ReportsCurrentSlotAndEpoch(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/epoch", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, float64(0), out["epoch"])
	assert.Equal(t, float64(1_500_000), out["epoch_pot"])
}

func TestHandleConfig_ReturnsPublicFields(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/config", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChallengeThenSubmit_HappyPathThroughHTTP(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/attest/challenge", map[string]interface{}{"miner_id": "miner-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var ch map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ch))
	nonce, _ := ch["nonce"].(string)
	require.NotEmpty(t, nonce)

	submit := map[string]interface{}{
		"miner": "miner-1", "miner_id": "miner-1", "nonce": nonce,
		"device": map[string]interface{}{
			"family": "mac", "arch": "powerpc-g4", "model": "PowerMac", "cpu": "PowerPC G4", "serial": "SN-1",
		},
		"signals": map[string]interface{}{"macs": []string{"00:11:22:33:44:55"}},
		"fingerprint": map[string]interface{}{
			"checks": map[string]interface{}{
				"anti_emulation": map[string]interface{}{"passed": true, "data": map[string]interface{}{"dmi_vendor": "Apple Computer, Inc."}},
			},
		},
	}
	rec = doJSON(t, h, http.MethodPost, "/attest/submit", submit)
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, true, result["accepted"])
	assert.Equal(t, "classic", result["antiquity_tier"])
}

func TestHandleSubmit_RejectsVMDetectedAntiEmulationWith403(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/attest/challenge", map[string]interface{}{"miner_id": "miner-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var ch map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ch))
	nonce, _ := ch["nonce"].(string)
	require.NotEmpty(t, nonce)

	submit := map[string]interface{}{
		"miner": "miner-1", "miner_id": "miner-1", "nonce": nonce,
		"device": map[string]interface{}{
			"family": "mac", "arch": "powerpc-g4", "model": "PowerMac", "cpu": "PowerPC G4", "serial": "SN-1",
		},
		"signals": map[string]interface{}{"macs": []string{"00:11:22:33:44:55"}},
		"fingerprint": map[string]interface{}{
			"checks": map[string]interface{}{
				"anti_emulation": map[string]interface{}{
					"passed": false,
					"data":   map[string]interface{}{"vm_indicators": []string{"hypervisor_bit"}},
				},
			},
		},
	}
	rec = doJSON(t, h, http.MethodPost, "/attest/submit", submit)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VM_DETECTED", body["error"])
}

func TestHandleSubmit_RejectsNonObjectBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/attest/submit", bytes.NewReader([]byte(`["not", "an", "object"]`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSettle_RequiresAdminKey(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/rewards/settle", map[string]interface{}{"epoch": 0})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleSettle_SucceedsWithAdminKey(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/rewards/settle", bytes.NewReader(mustJSONBody(t, map[string]interface{}{"epoch": 0})))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", "secret-admin-key")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleBalance_RejectsMalformedAddress(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/wallet/balance?miner_id=not-an-address", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleP2PInv_ReturnsUnknownHashes(t *testing.T) {
	s := newTestServer(t)
	payload, _ := json.Marshal([]string{"hash-a", "hash-b"})
	env := p2p.Envelope{Kind: p2p.KindInv, AgentID: "peer-1", Payload: payload}
	rec := doJSON(t, s.Handler(), http.MethodPost, "/p2p/inv", env)
	require.Equal(t, http.StatusOK, rec.Code)

	var unknown []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unknown))
	assert.ElementsMatch(t, []string{"hash-a", "hash-b"}, unknown)
}

func TestEveryResponse_CarriesARequestID(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func mustJSONBody(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
