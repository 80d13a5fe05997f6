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

package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scottcjn/Rustchain-sub002/apierr"
	rtccrypto "github.com/Scottcjn/Rustchain-sub002/crypto"
	"github.com/Scottcjn/Rustchain-sub002/storage/database"
)

func openTestDB(t *testing.T) *database.DBManager {
	t.Helper()
	dir, err := ioutil.TempDir("", "rustchain-wallet-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	db, err := database.Open(filepath.Join(dir, "node.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// signedTransfer builds a TransferRequest from fresh keys and a funded
// sender, correctly signed over the canonical message.
func signedTransfer(t *testing.T, amountRTC float64, nonce uint64) (TransferRequest, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	from := rtccrypto.DeriveAddress(pub)
	to := rtccrypto.DeriveAddress([]byte("counterparty-placeholder-pub-key-32b"))

	amountURTC := int64(amountRTC * 1_000_000)
	msg := rtccrypto.CanonicalTransferMessage(from, to, amountURTC, nonce, "")
	sig := rtccrypto.Sign(priv, msg)

	return TransferRequest{
		From: from, To: to, AmountRTC: amountRTC, Nonce: nonce,
		Signature: hex.EncodeToString(sig), PublicKey: hex.EncodeToString(pub),
	}, pub
}

func TestTransfer_SucceedsWithValidSignatureAndBalance(t *testing.T) {
	ledger := database.NewLedgerRepo(openTestDB(t))
	svc := NewService(ledger, 100_000, 10_000)
	ctx := context.Background()

	req, _ := signedTransfer(t, 1.0, 1)
	require.NoError(t, ledger.Credit(ctx, req.From, 2_000_000))

	ok, apiErr := svc.Transfer(ctx, req, 1000)
	assert.True(t, ok)
	assert.Nil(t, apiErr)
}

func TestTransfer_RejectsBadSignature(t *testing.T) {
	ledger := database.NewLedgerRepo(openTestDB(t))
	svc := NewService(ledger, 100_000, 10_000)
	ctx := context.Background()

	req, _ := signedTransfer(t, 1.0, 1)
	req.Signature = hex.EncodeToString(make([]byte, 64)) // all-zero forged sig
	require.NoError(t, ledger.Credit(ctx, req.From, 2_000_000))

	ok, apiErr := svc.Transfer(ctx, req, 1000)
	assert.False(t, ok)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.InvalidSignature, apiErr.Code)
}

func TestTransfer_RejectsSameFromAndTo(t *testing.T) {
	ledger := database.NewLedgerRepo(openTestDB(t))
	svc := NewService(ledger, 100_000, 10_000)

	req, _ := signedTransfer(t, 1.0, 1)
	req.To = req.From

	_, apiErr := svc.Transfer(context.Background(), req, 1000)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.FromToMustDiffer, apiErr.Code)
}

func TestTransfer_RejectsNonPositiveAmount(t *testing.T) {
	ledger := database.NewLedgerRepo(openTestDB(t))
	svc := NewService(ledger, 100_000, 10_000)

	req, _ := signedTransfer(t, 0, 1)
	_, apiErr := svc.Transfer(context.Background(), req, 1000)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.AmountNotFinite, apiErr.Code)
}

func TestTransfer_RejectsInsufficientBalance(t *testing.T) {
	ledger := database.NewLedgerRepo(openTestDB(t))
	svc := NewService(ledger, 100_000, 10_000)
	ctx := context.Background()

	req, _ := signedTransfer(t, 1.0, 1)
	require.NoError(t, ledger.Credit(ctx, req.From, 1)) // far too little

	ok, apiErr := svc.Transfer(ctx, req, 1000)
	assert.False(t, ok)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.InsufficientBalance, apiErr.Code)
}

func TestTransfer_RejectsStaleNonce(t *testing.T) {
	ledger := database.NewLedgerRepo(openTestDB(t))
	svc := NewService(ledger, 100_000, 10_000)
	ctx := context.Background()

	req, _ := signedTransfer(t, 1.0, 1)
	require.NoError(t, ledger.Credit(ctx, req.From, 2_000_000))
	ok, apiErr := svc.Transfer(ctx, req, 1000)
	require.True(t, ok)
	require.Nil(t, apiErr)

	// Reusing the same request (same nonce) must be rejected as replay.
	ok, apiErr = svc.Transfer(ctx, req, 1001)
	assert.False(t, ok)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.NonceReplay, apiErr.Code)
}

func TestTransfer_QueuesLargeAmountsAsPending(t *testing.T) {
	ledger := database.NewLedgerRepo(openTestDB(t))
	svc := NewService(ledger, 100_000, 10_000)
	ctx := context.Background()

	// 200 RTC in uRTC units sits above params.DefaultPendingThresholdURTC.
	req, _ := signedTransfer(t, 200.0, 1)
	require.NoError(t, ledger.Credit(ctx, req.From, 300_000_000))

	ok, apiErr := svc.Transfer(ctx, req, 1000)
	assert.False(t, ok) // not executed immediately
	assert.Nil(t, apiErr) // but not an error either: queued

	// Balance should be unchanged until the pending window matures it.
	bal, err := ledger.GetBalance(ctx, req.From)
	require.NoError(t, err)
	assert.Equal(t, int64(300_000_000), bal.AmountURTC)
}

func TestWithdraw_RejectsBelowMinimum(t *testing.T) {
	ledger := database.NewLedgerRepo(openTestDB(t))
	svc := NewService(ledger, 100_000, 10_000)
	ctx := context.Background()

	req, _ := signedTransfer(t, 0.05, 1) // 50,000 uRTC < 100,000 minimum
	require.NoError(t, ledger.Credit(ctx, req.From, 1_000_000))

	ok, apiErr := svc.Withdraw(ctx, req, 1000)
	assert.False(t, ok)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.AmountTooSmall, apiErr.Code)
}
