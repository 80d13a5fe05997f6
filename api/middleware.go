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
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"

	"github.com/hashicorp/go-uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/Scottcjn/Rustchain-sub002/apierr"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyBody
)

// withRequestID stamps every request with a generated id (spec.md §7:
// server errors "must be rare and logged with request id").
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.GenerateUUID()
		if err != nil {
			id = "unknown"
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	if v, ok := r.Context().Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return "unknown"
}

// preflightJSON implements spec.md §6/§8's "must-be-object or 400
// INVALID_JSON_OBJECT" body preflight: it decodes the body once into a
// map, 400s on shape violations, and stashes the parsed map in the
// request context so handlers never re-read the (already-consumed)
// body.
func (s *Server) preflightJSON(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		defer r.Body.Close()
		raw, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxRequestBody+1))
		if err != nil {
			writeError(w, r, apierr.New(apierr.InvalidJSONObject, "unreadable body"))
			return
		}
		if int64(len(raw)) > s.cfg.MaxRequestBody {
			writeError(w, r, apierr.New(apierr.InvalidJSONObject, "body too large"))
			return
		}
		if len(raw) == 0 {
			raw = []byte("{}")
		}

		var body map[string]interface{}
		if err := json.Unmarshal(raw, &body); err != nil {
			writeError(w, r, apierr.New(apierr.InvalidJSONObject, "body must be a JSON object"))
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyBody, body)
		next(w, r.WithContext(ctx), ps)
	}
}

func bodyOf(r *http.Request) map[string]interface{} {
	if v, ok := r.Context().Value(ctxKeyBody).(map[string]interface{}); ok {
		return v
	}
	return map[string]interface{}{}
}

// requireAdmin implements spec.md §4.8: admin routes require header
// X-Admin-Key equal to the configured key; missing/empty is rejected.
func (s *Server) requireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		key := r.Header.Get("X-Admin-Key")
		if key == "" || s.cfg.AdminKey == "" || key != s.cfg.AdminKey {
			writeError(w, r, apierr.New(apierr.Unauthorized, ""))
			return
		}
		next(w, r, ps)
	}
}

// clientIP applies spec.md §4.4's trusted-proxy policy: X-Forwarded-For
// is honored only when the immediate peer address is inside a
// configured trusted-proxy CIDR; otherwise the raw remote address is
// authoritative.
func (s *Server) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	remote := net.ParseIP(host)
	if remote == nil {
		return host
	}
	for _, cidrStr := range s.cfg.TrustedProxies {
		_, cidr, err := net.ParseCIDR(cidrStr)
		if err != nil || !cidr.Contains(remote) {
			continue
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			return xff
		}
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders an apierr.Error, never leaking internal error text
// (spec.md §7).
func writeError(w http.ResponseWriter, r *http.Request, err *apierr.Error) {
	if err.Status >= 500 {
		logger.Error("server error", "code", err.Code, "request_id", requestID(r))
	}
	writeJSON(w, err.Status, map[string]interface{}{
		"error":      err.Code,
		"detail":     err.Detail,
		"request_id": requestID(r),
	})
}
