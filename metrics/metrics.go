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

// Package metrics holds the node's in-process counters and gauges,
// registered against rcrowley/go-metrics' default registry the same
// way the chain-data fetcher registers its insertion gauges. No
// exporter is wired (Prometheus is explicitly out of scope); these
// exist for `expvar`-style introspection and future wiring, not for
// scraping.
package metrics

import "github.com/rcrowley/go-metrics"

var (
	AttestSubmitTotal    = metrics.NewRegisteredCounter("attest/submit/total", metrics.DefaultRegistry)
	AttestSubmitAccepted = metrics.NewRegisteredCounter("attest/submit/accepted", metrics.DefaultRegistry)
	AttestSubmitRejected = metrics.NewRegisteredCounter("attest/submit/rejected", metrics.DefaultRegistry)
	AttestRateLimited    = metrics.NewRegisteredCounter("attest/submit/rate_limited", metrics.DefaultRegistry)
	AttestLatencyMS      = metrics.NewRegisteredGauge("attest/submit/latency_ms", metrics.DefaultRegistry)

	EpochSettlementsTotal = metrics.NewRegisteredCounter("epoch/settlements/total", metrics.DefaultRegistry)
	EpochSettleLatencyMS  = metrics.NewRegisteredGauge("epoch/settle/latency_ms", metrics.DefaultRegistry)
	EpochEnrolledGauge    = metrics.NewRegisteredGauge("epoch/enrolled", metrics.DefaultRegistry)

	TransfersTotal    = metrics.NewRegisteredCounter("wallet/transfers/total", metrics.DefaultRegistry)
	TransfersRejected = metrics.NewRegisteredCounter("wallet/transfers/rejected", metrics.DefaultRegistry)

	GossipPeersReached = metrics.NewRegisteredCounter("p2p/gossip/peers_reached", metrics.DefaultRegistry)
	GossipPeerErrors   = metrics.NewRegisteredCounter("p2p/gossip/peer_errors", metrics.DefaultRegistry)
	GossipInvSent      = metrics.NewRegisteredCounter("p2p/gossip/inv_sent", metrics.DefaultRegistry)
	GossipDataMerged   = metrics.NewRegisteredCounter("p2p/gossip/data_merged", metrics.DefaultRegistry)
)
