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

package node

import (
	"crypto/ed25519"
	"encoding/hex"
	"io/ioutil"
	"os"
	"path/filepath"
)

// loadOrGenerateEd25519 reads a hex-encoded private key from path, or
// generates and persists a fresh one if no file exists yet — the same
// gennodekey idiom the teacher's cmd/utils/nodecmd uses for its p2p
// identity, adapted to Ed25519 and a single flat file instead of a
// keys/ directory of JSON sidecar files.
func loadOrGenerateEd25519(path string) (ed25519.PrivateKey, error) {
	raw, err := ioutil.ReadFile(path)
	if err == nil {
		key, decErr := hex.DecodeString(string(raw))
		if decErr != nil || len(key) != ed25519.PrivateKeySize {
			return nil, decErr
		}
		return ed25519.PrivateKey(key), nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	if mkErr := os.MkdirAll(filepath.Dir(path), 0700); mkErr != nil {
		return nil, mkErr
	}
	_, priv, genErr := ed25519.GenerateKey(nil)
	if genErr != nil {
		return nil, genErr
	}
	if wErr := ioutil.WriteFile(path, []byte(hex.EncodeToString(priv)), 0600); wErr != nil {
		return nil, wErr
	}
	return priv, nil
}
