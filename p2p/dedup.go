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
	"encoding/binary"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/Scottcjn/Rustchain-sub002/log"
)

// openFileLimit bounds LevelDB's file-handle usage, mirroring the
// storage layer's original LevelDB wrapper.
var openFileLimit = 64

// DedupStore is the exact-membership, TTL-expiring gossip dedup cache
// spec.md §4.7/§5 calls for ("the gossip message dedup cache" is one of
// the two pieces of in-memory shared state guarded by a local lock). It
// is an embedded LevelDB keyed by payload_hash, adapted from this
// codebase's original LevelDB KV wrapper: a Bloom filter was rejected
// here because gossip dedup needs exact membership, not a
// false-positive-tolerant check, but LevelDB's own internal Bloom
// filter still accelerates negative lookups.
type DedupStore struct {
	mu sync.Mutex
	db *leveldb.DB
}

func ldbOptions() *opt.Options {
	return &opt.Options{
		OpenFilesCacheCapacity: openFileLimit,
		Filter:                 filter.NewBloomFilter(10),
	}
}

// OpenDedupStore opens (or creates) the dedup store at dir.
func OpenDedupStore(dir string) (*DedupStore, error) {
	db, err := leveldb.OpenFile(dir, ldbOptions())
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(dir, nil)
	}
	if err != nil {
		return nil, err
	}
	return &DedupStore{db: db}, nil
}

// SeenOrMark reports whether payloadHash has already been observed
// (within its TTL); if not, it records it with expiry = now + ttlSecs
// and returns false. This doubles as the CRDT dedup gate for incoming
// `data` envelopes (spec.md §4.7 step 5).
func (s *DedupStore) SeenOrMark(payloadHash []byte, now, ttlSecs int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.db.Get(payloadHash, nil)
	if err == nil {
		expiresAt := int64(binary.BigEndian.Uint64(existing))
		if expiresAt > now {
			return true, nil
		}
	} else if err != leveldb.ErrNotFound {
		return false, err
	}

	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, uint64(now+ttlSecs))
	if err := s.db.Put(payloadHash, val, nil); err != nil {
		return false, err
	}
	return false, nil
}

// Sweep deletes every entry whose expiry has passed, bounding the
// store's size (spec.md §4.7 step 5: "Expire envelopes older than
// MESSAGE_EXPIRY").
func (s *DedupStore) Sweep(now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter := s.db.NewIterator(util.BytesPrefix(nil), nil)
	defer iter.Release()

	var expired [][]byte
	for iter.Next() {
		val := iter.Value()
		if len(val) != 8 {
			continue
		}
		if int64(binary.BigEndian.Uint64(val)) <= now {
			key := make([]byte, len(iter.Key()))
			copy(key, iter.Key())
			expired = append(expired, key)
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	for _, k := range expired {
		if err := s.db.Delete(k, nil); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying LevelDB handle.
func (s *DedupStore) Close() error {
	return s.db.Close()
}

var logger = log.NewModuleLogger(log.P2P)
