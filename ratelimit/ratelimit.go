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

// Package ratelimit implements the per-key rolling-window token buckets
// spec.md §5 calls for ("the rate-limiter token buckets" are one of the
// two pieces of in-memory shared state, guarded by a local lock). It is
// built on hashicorp/golang-lru, the same bounded-cache dependency
// common.StringCache already wires in, rather than a dedicated
// rate-limiting library: nothing in the retrieved pack imports one, and
// a bounded LRU of per-key windows is exactly the shape the teacher
// reaches for when it needs a capped, self-evicting key/value store.
package ratelimit

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// window tracks a single key's token-bucket state within the current
// rolling interval.
type window struct {
	count     int
	resetAt   int64
	ratelimit int
}

// Limiter is a keyed, rolling-window request limiter. One Limiter
// instance is created per rate-limited dimension (per-miner, per-IP).
type Limiter struct {
	mu       sync.Mutex
	cache    *lru.Cache
	limit    int
	interval int64 // seconds
}

// New builds a Limiter allowing `limit` hits per `intervalSeconds` per
// key, capped to track at most maxKeys distinct keys at once (oldest
// evicted first, per golang-lru's LRU policy).
func New(limit int, intervalSeconds int64, maxKeys int) (*Limiter, error) {
	c, err := lru.New(maxKeys)
	if err != nil {
		return nil, err
	}
	return &Limiter{cache: c, limit: limit, interval: intervalSeconds}, nil
}

// Allow reports whether key may proceed at time now, consuming one
// token if so. A new window starts whenever the previous one has
// expired.
func (l *Limiter) Allow(key string, now int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.cache.Get(key)
	if !ok {
		l.cache.Add(key, &window{count: 1, resetAt: now + l.interval, ratelimit: l.limit})
		return true
	}
	w := v.(*window)
	if now >= w.resetAt {
		w.count = 1
		w.resetAt = now + l.interval
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}
