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

// Package api is the HTTP surface (C8): a thin fasthttp + httprouter
// routing layer in front of the attestation, epoch, wallet and p2p
// services, following this codebase's http_test.go's fasthttp +
// fasthttpadaptor server shape.
package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/Scottcjn/Rustchain-sub002/attestation"
	"github.com/Scottcjn/Rustchain-sub002/config"
	"github.com/Scottcjn/Rustchain-sub002/epoch"
	"github.com/Scottcjn/Rustchain-sub002/log"
	"github.com/Scottcjn/Rustchain-sub002/p2p"
	"github.com/Scottcjn/Rustchain-sub002/params"
	"github.com/Scottcjn/Rustchain-sub002/storage/database"
	"github.com/Scottcjn/Rustchain-sub002/wallet"
)

var logger = log.NewModuleLogger(log.API)

// Server wires every HTTP endpoint in spec.md §6's table to its backing
// service.
type Server struct {
	cfg     *config.Config
	db      *database.DBManager
	attest  *attestation.Service
	wallet  *wallet.Service
	sched   *epoch.Scheduler
	node    *p2p.Node
	started int64
	now     func() int64
}

// NewServer builds a Server.
func NewServer(cfg *config.Config, db *database.DBManager, attest *attestation.Service, w *wallet.Service, sched *epoch.Scheduler, node *p2p.Node, startedAt int64, now func() int64) *Server {
	return &Server{cfg: cfg, db: db, attest: attest, wallet: w, sched: sched, node: node, started: startedAt, now: now}
}

// Handler builds the full net/http handler: httprouter routes wrapped
// in request-id, deadline and CORS middleware.
func (s *Server) Handler() http.Handler {
	r := httprouter.New()

	r.GET("/health", s.withDeadline(s.handleHealth))
	r.GET("/epoch", s.withDeadline(s.handleEpoch))
	r.GET("/api/miners", s.withDeadline(s.handleListMiners))
	r.POST("/attest/challenge", s.withDeadline(s.preflightJSON(s.handleChallenge)))
	r.POST("/attest/submit", s.withDeadline(s.preflightJSON(s.handleSubmit)))
	r.GET("/wallet/balance", s.withDeadline(s.handleBalance))
	r.POST("/wallet/transfer/signed", s.withDeadline(s.preflightJSON(s.handleTransfer)))
	r.POST("/withdraw/request", s.withDeadline(s.preflightJSON(s.handleWithdraw)))
	r.POST("/rewards/settle", s.withDeadline(s.requireAdmin(s.preflightJSON(s.handleSettle))))
	r.GET("/rewards/epoch/:epoch", s.withDeadline(s.handleEpochRewards))
	r.GET("/sync/status", s.withDeadline(s.requireAdmin(s.handleSyncStatus)))
	r.POST("/pending/confirm", s.withDeadline(s.requireAdmin(s.handlePendingConfirm)))
	r.GET("/config", s.withDeadline(s.handleConfig))
	r.POST("/p2p/inv", s.withDeadline(s.preflightJSON(s.handleP2PInv)))
	r.POST("/p2p/getdata", s.withDeadline(s.preflightJSON(s.handleP2PGetData)))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"*"},
	})
	return withRequestID(c.Handler(r))
}

// ListenAndServe starts the fasthttp server at addr, adapting the
// net/http handler via fasthttpadaptor — the same bridge this
// codebase's RPC layer tests against.
func (s *Server) ListenAndServe(addr string) error {
	handler := fasthttpadaptor.NewFastHTTPHandler(s.Handler())
	srv := &fasthttp.Server{
		Handler:      handler,
		ReadTimeout:  params.RequestDeadline,
		WriteTimeout: params.RequestDeadline,
		MaxRequestBodySize: s.cfg.MaxRequestBody,
	}
	logger.Info("http server listening", "addr", addr)
	return srv.ListenAndServe(addr)
}

func (s *Server) withDeadline(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), params.RequestDeadline)
		defer cancel()
		h(w, r.WithContext(ctx), ps)
	}
}
