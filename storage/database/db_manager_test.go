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

package database

import (
	"context"
	"errors"
	"time"

	"testing"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTx_CommitsOnSuccess(t *testing.T) {
	db := openTestDB(t)
	err := db.WriteTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&MinerAttestRecent{MinerID: "miner-1", TSOk: 1}).Error
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Gorm().Model(&MinerAttestRecent{}).Count(&count).Error)
	assert.Equal(t, 1, count)
}

func TestWriteTx_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	err := db.WriteTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&MinerAttestRecent{MinerID: "miner-1", TSOk: 1}).Error; err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.Gorm().Model(&MinerAttestRecent{}).Count(&count).Error)
	assert.Equal(t, 0, count)
}

// TestWriteTx_RollsBackOnContextTimeout exercises the statement-timeout
// watchdog: fn blocks past the deadline carried on ctx, and WriteTx must
// return before fn itself ever returns, with the transaction rolled
// back rather than left dangling.
func TestWriteTx_RollsBackOnContextTimeout(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	fnReturned := make(chan struct{})
	err := db.WriteTx(ctx, func(tx *gorm.DB) error {
		defer close(fnReturned)
		time.Sleep(200 * time.Millisecond)
		return tx.Create(&MinerAttestRecent{MinerID: "miner-timeout", TSOk: 1}).Error
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	select {
	case <-fnReturned:
	case <-time.After(time.Second):
		t.Fatal("fn never returned after timeout")
	}

	var count int
	require.NoError(t, db.Gorm().Model(&MinerAttestRecent{}).Where("miner_id = ?", "miner-timeout").Count(&count).Error)
	assert.Equal(t, 0, count)
}
