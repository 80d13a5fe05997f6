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
	"crypto/ed25519"
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/Scottcjn/Rustchain-sub002/config"
	"github.com/Scottcjn/Rustchain-sub002/metrics"
	"github.com/Scottcjn/Rustchain-sub002/params"
	"github.com/Scottcjn/Rustchain-sub002/storage/database"
)

// Node drives the gossip loop across the node's static peer set
// (spec.md §4.7).
type Node struct {
	SelfID  string
	Peers   []config.Peer
	priv    ed25519.PrivateKey
	trust   *TrustStore
	dedup   *DedupStore
	client  *fasthttp.Client
	miners  *database.MinerRepo
	epochs  *database.EpochRepo
	ledger  *database.LedgerRepo
	digests *digestIndex
}

// NewNode builds a gossip Node.
func NewNode(selfID string, peers []config.Peer, priv ed25519.PrivateKey, dedup *DedupStore, miners *database.MinerRepo, epochs *database.EpochRepo, ledger *database.LedgerRepo) *Node {
	return &Node{
		SelfID: selfID,
		Peers:  peers,
		priv:   priv,
		trust:  NewTrustStore(peers),
		dedup:  dedup,
		client: &fasthttp.Client{MaxConnsPerHost: 8},
		miners: miners,
		epochs: epochs,
		ledger: ledger,
	}
}

// Tick runs one round of the gossip loop (spec.md §4.7 steps 1-3):
// compose an inv of recent digests, post it to each peer, and fetch
// back whatever the peer reports as unknown.
func (n *Node) Tick(ctx context.Context, now int64, recentHashes []string) {
	inv := Envelope{
		Kind:    KindInv,
		AgentID: n.SelfID,
		TS:      now,
		TTL:     int64(params.DefaultMessageExpiry.Seconds()),
		Payload: mustJSON(recentHashes),
	}
	inv.Sign(n.priv)

	for _, peer := range n.Peers {
		if peer.NodeID == n.SelfID {
			continue
		}
		unknown, err := n.postInv(peer, inv)
		if err != nil {
			metrics.GossipPeerErrors.Inc(1)
			logger.Warn("inv post failed", "peer", peer.NodeID, "err", err)
			continue
		}
		metrics.GossipPeersReached.Inc(1)
		metrics.GossipInvSent.Inc(1)
		n.requestData(peer, unknown, now)
	}
}

func (n *Node) postInv(peer config.Peer, inv Envelope) ([]string, error) {
	body, err := json.Marshal(inv)
	if err != nil {
		return nil, err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(peer.BaseURL + "/p2p/inv")
	req.Header.SetMethod("POST")
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := n.client.DoTimeout(req, resp, params.PeerCallTimeout); err != nil {
		return nil, err
	}
	var unknown []string
	if err := json.Unmarshal(resp.Body(), &unknown); err != nil {
		return nil, err
	}
	return unknown, nil
}

func (n *Node) requestData(peer config.Peer, hashes []string, now int64) {
	for _, h := range hashes {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()

		getdata := Envelope{Kind: KindGetData, AgentID: n.SelfID, PayloadHash: h, TS: now}
		getdata.Sign(n.priv)
		body, _ := json.Marshal(getdata)

		req.SetRequestURI(peer.BaseURL + "/p2p/getdata")
		req.Header.SetMethod("POST")
		req.Header.SetContentType("application/json")
		req.SetBody(body)

		err := n.client.DoTimeout(req, resp, params.PeerCallTimeout)
		respBody := append([]byte(nil), resp.Body()...)
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
		if err != nil {
			metrics.GossipPeerErrors.Inc(1)
			continue
		}

		var data Envelope
		if err := json.Unmarshal(respBody, &data); err != nil {
			continue
		}
		if err := n.MergeIncoming(context.Background(), data, now); err != nil {
			logger.Warn("merge failed", "peer", peer.NodeID, "err", err)
		}
	}
}

// Worker drives Tick on a fixed interval (spec.md §4.7: "per tick,
// default 30s").
type Worker struct {
	node *Node
	tick time.Duration
	recent func() []string
	now    func() int64
	quit chan struct{}
}

// NewWorker builds a gossip Worker.
func NewWorker(node *Node, tick time.Duration, recent func() []string, now func() int64) *Worker {
	return &Worker{node: node, tick: tick, recent: recent, now: now, quit: make(chan struct{})}
}

// Run blocks, ticking the gossip loop and sweeping the dedup store,
// until ctx is canceled or Stop is called.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := w.now()
			w.node.Tick(ctx, now, w.recent())
			if err := w.node.dedup.Sweep(now); err != nil {
				logger.Error("dedup sweep failed", "err", err)
			}
		case <-w.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop signals Run to exit.
func (w *Worker) Stop() { close(w.quit) }

func mustJSON(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
