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

// Package crypto implements the node's signature and hashing primitives
// (spec.md §4.2): Ed25519 sign/verify over canonical messages, address
// derivation, and BLAKE2b-256 commitment hashing for gossip digests.
package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// AddressPrefix is prepended to every derived wallet address.
const AddressPrefix = "RTC"

// AddressLength is the total length of a well-formed address string.
const AddressLength = 43

// DeriveAddress implements spec.md §4.2/§6:
// addr = "RTC" + hex(SHA-256(pubkey))[:40].
func DeriveAddress(pubkey []byte) string {
	sum := sha256.Sum256(pubkey)
	return AddressPrefix + hex.EncodeToString(sum[:])[:40]
}

// IsWellFormedAddress checks the syntactic shape spec.md §6 requires,
// without asserting the address is derivable from any particular key.
func IsWellFormedAddress(addr string) bool {
	if len(addr) != AddressLength {
		return false
	}
	if !strings.HasPrefix(addr, AddressPrefix) {
		return false
	}
	hexPart := addr[len(AddressPrefix):]
	_, err := hex.DecodeString(hexPart)
	return err == nil
}

// CanonicalTransferMessage builds the exact byte string signed for a
// transfer, per spec.md §6:
// "<from_address>:<to_address>:<amount_uRTC>:<nonce>:<memo>"
func CanonicalTransferMessage(from, to string, amountURTC int64, nonce uint64, memo string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d:%d:%s", from, to, amountURTC, nonce, memo))
}

// CanonicalChallengeCommitment implements spec.md §6:
// SHA-256 over UTF-8 concatenation <nonce><wallet><miner_id>.
func CanonicalChallengeCommitment(nonce, wallet, minerID string) [32]byte {
	return sha256.Sum256([]byte(nonce + wallet + minerID))
}

// CanonicalChallengePayload stringifies a challenge response payload with
// sorted keys, per spec.md §4.2 ("the signed message is the stringified
// challenge payload with sorted keys").
func CanonicalChallengePayload(payload map[string]string) []byte {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(payload[k])
	}
	b.WriteByte('}')
	return []byte(b.String())
}

// Verify checks an Ed25519 signature over msg. Rejects malformed key or
// signature lengths outright rather than letting ed25519.Verify panic.
func Verify(pubkey, msg, sig []byte) bool {
	if len(pubkey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubkey), msg, sig)
}

// Sign signs msg with priv. The node's own gossip identity key is the
// only private key a running node holds; wallet keys never leave the
// client that submits a signed transfer or attestation.
func Sign(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// CommitmentHash is BLAKE2b-256 over the concatenation of payload hashes,
// used to batch multiple gossip digests into one commitment (spec.md §4.2).
func CommitmentHash(payloadHashes [][]byte) ([32]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, err
	}
	for _, ph := range payloadHashes {
		h.Write(ph)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// HardwareID implements spec.md §3: 32 hex chars of SHA-256 over
// (device_model, device_arch, device_family, serial, first MAC), in that
// fixed order.
func HardwareID(model, arch, family, serial, firstMAC string) string {
	sum := sha256.Sum256([]byte(model + "|" + arch + "|" + family + "|" + serial + "|" + firstMAC))
	return hex.EncodeToString(sum[:16])
}
