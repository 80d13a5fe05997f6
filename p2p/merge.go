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

package p2p

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/Scottcjn/Rustchain-sub002/storage/database"
)

// digestIndexBytes bounds the in-memory payload cache each node keeps
// of digests it has indexed; entries persist across gossip rounds until
// fastcache evicts them.
const digestIndexBytes = 16 * 1024 * 1024

// DataPayload is the union type carried by a `data` envelope: exactly
// one of Miner or Enrollment is set (spec.md §4.7 step 3).
type DataPayload struct {
	Table      string                    `json:"table"`
	Miner      *database.MinerAttestRecent `json:"miner,omitempty"`
	Enrollment *database.EpochEnrollment  `json:"enrollment,omitempty"`
}

var errUnknownHash = errors.New("p2p: payload_hash not indexed locally")

// digestIndex maps a payload_hash to the JSON bytes it was computed
// over, so this node can answer `getdata` requests from peers for
// hashes it has already announced via `inv`. Backed by fastcache, the
// same low-GC fixed-capacity byte cache this codebase's snapshot
// generator uses for its state-trie node cache — a good fit here too,
// since entries are small byte blobs keyed by a fixed-width hash and
// eviction under memory pressure is preferable to unbounded growth.
type digestIndex struct {
	c *fastcache.Cache
}

func newDigestIndex() *digestIndex { return &digestIndex{c: fastcache.New(digestIndexBytes)} }

func (d *digestIndex) put(hash string, payload []byte) {
	d.c.Set([]byte(hash), payload)
}

func (d *digestIndex) get(hash string) ([]byte, bool) {
	return d.c.HasGet(nil, []byte(hash))
}

// IndexDigest records a locally-known payload under its hash so it can
// be served to a peer's `getdata` request. Callers compute
// recentHashes for Tick from the same rows they index here.
func (n *Node) IndexDigest(hash string, payload []byte) {
	n.index().put(hash, payload)
}

func (n *Node) index() *digestIndex {
	if n.digests == nil {
		n.digests = newDigestIndex()
	}
	return n.digests
}

// DigestMiner wraps a miner_attest_recent row as a DataPayload, indexes
// it under its payload hash so a peer's getdata can retrieve it, and
// returns that hash for inclusion in the next inv (spec.md §4.7 step 1).
func (n *Node) DigestMiner(m database.MinerAttestRecent) string {
	payload, _ := json.Marshal(DataPayload{Table: "miner_attest_recent", Miner: &m})
	hash := HashPayload(payload)
	n.IndexDigest(hash, payload)
	return hash
}

// DigestEnrollment is DigestMiner's counterpart for epoch_enrollment rows.
func (n *Node) DigestEnrollment(e database.EpochEnrollment) string {
	payload, _ := json.Marshal(DataPayload{Table: "epoch_enrollment", Enrollment: &e})
	hash := HashPayload(payload)
	n.IndexDigest(hash, payload)
	return hash
}

// UnknownOf implements the receiving side of step 2: given a peer's
// announced hash list, return the subset this node has not yet seen
// (so the peer knows what to push via `data`).
func (n *Node) UnknownOf(hashes []string, now int64) []string {
	var unknown []string
	for _, h := range hashes {
		if !n.haveHash(h) {
			unknown = append(unknown, h)
		}
	}
	return unknown
}

func (n *Node) haveHash(hash string) bool {
	_, ok := n.index().get(hash)
	return ok
}

// ServeGetData answers a peer's `getdata` request for payloadHash with
// a signed `data` envelope, or errUnknownHash if this node never
// announced that hash.
func (n *Node) ServeGetData(payloadHash string, now int64) (Envelope, error) {
	payload, ok := n.index().get(payloadHash)
	if !ok {
		return Envelope{}, errUnknownHash
	}
	env := Envelope{
		Kind:        KindData,
		AgentID:     n.SelfID,
		PayloadHash: payloadHash,
		TS:          now,
		Payload:     payload,
	}
	env.Sign(n.priv)
	return env, nil
}

// MergeIncoming implements step 4: verify the envelope, check the
// payload hash, and merge into local storage using the CRDT rule for
// the table the payload names (last-writer-wins by ts_ok for
// attestations, set-union-with-max-weight for enrollments).
func (n *Node) MergeIncoming(ctx context.Context, env Envelope, now int64) error {
	if env.Kind != KindData {
		return nil
	}
	if !env.Verify(n.trust) {
		return errors.New("p2p: envelope signature invalid")
	}
	if HashPayload(env.Payload) != env.PayloadHash {
		return errors.New("p2p: payload_hash mismatch")
	}

	duplicate, err := n.dedup.SeenOrMark([]byte(env.PayloadHash), now, env.TTL)
	if err != nil {
		return err
	}
	if duplicate {
		return nil
	}

	var data DataPayload
	if err := json.Unmarshal(env.Payload, &data); err != nil {
		return err
	}

	switch {
	case data.Miner != nil:
		return n.mergeMiner(ctx, *data.Miner)
	case data.Enrollment != nil:
		return n.mergeEnrollment(ctx, *data.Enrollment)
	default:
		return errors.New("p2p: data payload names neither miner nor enrollment")
	}
}

// mergeMiner applies last-writer-wins by ts_ok (spec.md §4.7 step 4).
func (n *Node) mergeMiner(ctx context.Context, incoming database.MinerAttestRecent) error {
	existing, found, err := n.miners.ByID(ctx, incoming.MinerID)
	if err != nil {
		return err
	}
	if found && existing.TSOk >= incoming.TSOk {
		return nil // local row is at least as fresh
	}
	return n.miners.UpsertAttestation(ctx, incoming)
}

// mergeEnrollment applies grow-only-set-plus-max-weight union (spec.md
// §4.7 step 4 / §9).
func (n *Node) mergeEnrollment(ctx context.Context, incoming database.EpochEnrollment) error {
	return n.epochs.Enroll(ctx, incoming.Epoch, incoming.MinerPK, incoming.Weight)
}
