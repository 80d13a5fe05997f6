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

package attestation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scottcjn/Rustchain-sub002/apierr"
)

func TestParseSubmit_HappyPath(t *testing.T) {
	body := map[string]interface{}{
		"miner":    "miner-1",
		"miner_id": "miner-1",
		"nonce":    "abc",
		"device": map[string]interface{}{
			"arch": "g4", "family": "mac", "cpu": "PowerPC G4", "cores": float64(1),
		},
		"signals": map[string]interface{}{
			"macs": []interface{}{"00:11:22:33:44:55"},
		},
		"fingerprint": map[string]interface{}{
			"checks": map[string]interface{}{},
		},
	}

	req, apiErr := ParseSubmit(body)
	require.Nil(t, apiErr)
	assert.Equal(t, "miner-1", req.MinerID)
	assert.Equal(t, "g4", req.Device.Arch)
	assert.Equal(t, 1, req.Device.Cores)
	assert.Equal(t, []string{"00:11:22:33:44:55"}, req.Signals.MACs)
}

func TestParseSubmit_MinerIDDefaultsToMiner(t *testing.T) {
	req, apiErr := ParseSubmit(map[string]interface{}{"miner": "miner-xyz"})
	require.Nil(t, apiErr)
	assert.Equal(t, "miner-xyz", req.MinerID)
}

func TestParseSubmit_RejectsNonObjectDevice(t *testing.T) {
	_, apiErr := ParseSubmit(map[string]interface{}{"device": "not-an-object"})
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.InvalidJSONObject, apiErr.Code)
}

func TestParseSubmit_RejectsNonArrayMACs(t *testing.T) {
	body := map[string]interface{}{
		"signals": map[string]interface{}{"macs": "not-an-array"},
	}
	_, apiErr := ParseSubmit(body)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.InvalidJSONObject, apiErr.Code)
}

func TestParseSubmit_RejectsNonStringMACEntries(t *testing.T) {
	body := map[string]interface{}{
		"signals": map[string]interface{}{"macs": []interface{}{float64(5)}},
	}
	_, apiErr := ParseSubmit(body)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierr.InvalidJSONObject, apiErr.Code)
}

func TestParseSubmit_ToleratesMissingOptionalSections(t *testing.T) {
	req, apiErr := ParseSubmit(map[string]interface{}{"miner_id": "m1", "nonce": "n1"})
	require.Nil(t, apiErr)
	assert.Equal(t, "m1", req.MinerID)
	assert.Nil(t, req.Fingerprint)
}
