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

// Package p2p is the P2P sync aggregate (C7): gossip of attestation and
// enrollment digests across a static peer set, with CRDT merge rules
// and an exact-membership dedup store.
package p2p

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	set "gopkg.in/fatih/set.v0"

	"github.com/Scottcjn/Rustchain-sub002/config"
)

// Kind enumerates the gossip envelope's message type (spec.md §4.7).
type Kind string

const (
	KindInv     Kind = "inv"
	KindGetData Kind = "getdata"
	KindData    Kind = "data"
)

// Envelope is the signed gossip message wrapper (spec.md §4.7).
type Envelope struct {
	Kind        Kind   `json:"kind"`
	AgentID     string `json:"agent_id"`
	Nonce       string `json:"nonce"`
	Sig         string `json:"sig"`
	PubKey      string `json:"pubkey"`
	PayloadHash string `json:"payload_hash"`
	TTL         int64  `json:"ttl"`
	TS          int64  `json:"ts"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// signable returns the bytes an envelope's signature covers: kind,
// agent_id, nonce, payload_hash and payload. PubKey, TTL and TS are not
// covered.
func (e Envelope) signable() []byte {
	var buf bytes.Buffer
	buf.WriteString(string(e.Kind))
	buf.WriteByte(':')
	buf.WriteString(e.AgentID)
	buf.WriteByte(':')
	buf.WriteString(e.Nonce)
	buf.WriteByte(':')
	buf.WriteString(e.PayloadHash)
	buf.WriteByte(':')
	buf.Write(e.Payload)
	return buf.Bytes()
}

// Sign fills in Sig and PubKey for an outgoing envelope.
func (e *Envelope) Sign(priv ed25519.PrivateKey) {
	e.PubKey = hex.EncodeToString(priv.Public().(ed25519.PublicKey))
	sig := ed25519.Sign(priv, e.signable())
	e.Sig = hex.EncodeToString(sig)
}

// Verify checks an incoming envelope's signature against either a
// known peer key or, on first contact, trust-on-first-use (spec.md
// §4.7's "Security" note).
func (e Envelope) Verify(knownKeys *TrustStore) bool {
	pub, err := hex.DecodeString(e.PubKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(e.Sig)
	if err != nil {
		return false
	}
	if !ed25519.Verify(pub, e.signable(), sig) {
		return false
	}
	return knownKeys.Allow(e.AgentID, e.PubKey)
}

// HashPayload computes the SHA-256 payload_hash field for outgoing data.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// TrustStore implements TOFU key pinning per peer agent id: the first
// pubkey seen for an agent is trusted thereafter; only an admin
// override (Revoke) can change it.
type TrustStore struct {
	known *set.Set
	byID  map[string]string
}

// NewTrustStore seeds a TrustStore from the node's configured static
// peer list (known keys take precedence over TOFU).
func NewTrustStore(peers []config.Peer) *TrustStore {
	t := &TrustStore{known: set.New(), byID: make(map[string]string)}
	for _, p := range peers {
		if p.PubKey != "" {
			t.byID[p.NodeID] = p.PubKey
			t.known.Add(p.NodeID)
		}
	}
	return t
}

// Allow reports whether pubkey is acceptable for agentID, pinning it on
// first contact if no key is yet known.
func (t *TrustStore) Allow(agentID, pubkey string) bool {
	if known, ok := t.byID[agentID]; ok {
		return known == pubkey
	}
	t.byID[agentID] = pubkey
	t.known.Add(agentID)
	return true
}

// Revoke clears a pinned key, forcing the next envelope to re-pin (an
// admin-only action per spec.md §4.7).
func (t *TrustStore) Revoke(agentID string) {
	delete(t.byID, agentID)
	t.known.Remove(agentID)
}
