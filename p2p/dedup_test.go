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
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDedup(t *testing.T) *DedupStore {
	t.Helper()
	dir, err := ioutil.TempDir("", "rustchain-dedup-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	store, err := OpenDedupStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDedupStore_SeenOrMark_FirstSeenThenDuplicate(t *testing.T) {
	store := openTestDedup(t)
	hash := []byte("payload-hash-1")

	seen, err := store.SeenOrMark(hash, 1000, 300)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = store.SeenOrMark(hash, 1001, 300)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDedupStore_SeenOrMark_ReappearsAfterExpiry(t *testing.T) {
	store := openTestDedup(t)
	hash := []byte("payload-hash-1")

	_, err := store.SeenOrMark(hash, 1000, 10)
	require.NoError(t, err)

	seen, err := store.SeenOrMark(hash, 1020, 10) // past the 10s TTL
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestDedupStore_Sweep_RemovesExpiredEntries(t *testing.T) {
	store := openTestDedup(t)
	_, err := store.SeenOrMark([]byte("expires-soon"), 1000, 5)
	require.NoError(t, err)
	_, err = store.SeenOrMark([]byte("expires-later"), 1000, 5000)
	require.NoError(t, err)

	require.NoError(t, store.Sweep(1010))

	// The expired hash is gone, so it is reported as unseen again.
	seen, err := store.SeenOrMark([]byte("expires-soon"), 1010, 5)
	require.NoError(t, err)
	assert.False(t, seen)

	// The unexpired hash survives the sweep.
	seen, err = store.SeenOrMark([]byte("expires-later"), 1010, 5000)
	require.NoError(t, err)
	assert.True(t, seen)
}
