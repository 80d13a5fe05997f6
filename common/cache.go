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

package common

import (
	"errors"

	lru "github.com/hashicorp/golang-lru"
)

// StringCache is a bounded string-keyed LRU, used by the attestation
// service's miner-list read cache. It is a narrower descendant of a
// sharded multi-strategy cache kept by this codebase's ancestor for
// trie-node caching; this domain never needs more than one eviction
// strategy, so the shard/ARC variants were dropped.
type StringCache struct {
	lru *lru.Cache
}

// NewStringCache builds a StringCache with room for size entries.
func NewStringCache(size int) (*StringCache, error) {
	if size <= 0 {
		return nil, errors.New("common: cache size must be positive")
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &StringCache{lru: c}, nil
}

func (c *StringCache) Add(key string, value interface{}) (evicted bool) {
	return c.lru.Add(key, value)
}

func (c *StringCache) Get(key string) (value interface{}, ok bool) {
	return c.lru.Get(key)
}

func (c *StringCache) Contains(key string) bool {
	return c.lru.Contains(key)
}

func (c *StringCache) Purge() {
	c.lru.Purge()
}

func (c *StringCache) Len() int {
	return c.lru.Len()
}
