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
	"github.com/Scottcjn/Rustchain-sub002/apierr"
)

// ParseSubmit applies spec.md §4.4 step 1's body-shape gate: root must
// be an object, device/signals/fingerprint must be objects when
// present, signals.macs must be an array of strings when present. It
// never panics on adversarial input — every assertion is a type-switch,
// not a direct cast.
func ParseSubmit(body map[string]interface{}) (SubmitRequest, *apierr.Error) {
	var req SubmitRequest

	req.Miner, _ = body["miner"].(string)
	req.MinerID, _ = body["miner_id"].(string)
	req.Nonce, _ = body["nonce"].(string)
	req.Signature, _ = body["signature"].(string)
	req.PublicKey, _ = body["public_key"].(string)

	if req.MinerID == "" {
		req.MinerID = req.Miner
	}

	if raw, ok := body["report"]; ok {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return req, apierr.New(apierr.InvalidJSONObject, "report must be an object")
		}
		req.Report.Nonce, _ = m["nonce"].(string)
		req.Report.Commitment, _ = m["commitment"].(string)
	}

	if raw, ok := body["device"]; ok {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return req, apierr.New(apierr.InvalidJSONObject, "device must be an object")
		}
		req.Device.Family, _ = m["family"].(string)
		req.Device.Arch, _ = m["arch"].(string)
		req.Device.Model, _ = m["model"].(string)
		req.Device.CPU, _ = m["cpu"].(string)
		req.Device.Serial, _ = m["serial"].(string)
		if cores, ok := m["cores"].(float64); ok {
			req.Device.Cores = int(cores)
		}
		if mem, ok := m["memory_gb"].(float64); ok {
			req.Device.MemoryGB = mem
		}
	}

	if raw, ok := body["signals"]; ok {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return req, apierr.New(apierr.InvalidJSONObject, "signals must be an object")
		}
		req.Signals.Hostname, _ = m["hostname"].(string)
		if rawMacs, ok := m["macs"]; ok {
			arr, ok := rawMacs.([]interface{})
			if !ok {
				return req, apierr.New(apierr.InvalidJSONObject, "signals.macs must be an array")
			}
			for _, v := range arr {
				s, ok := v.(string)
				if !ok {
					return req, apierr.New(apierr.InvalidJSONObject, "signals.macs must be an array of strings")
				}
				req.Signals.MACs = append(req.Signals.MACs, s)
			}
		}
	}

	if raw, ok := body["fingerprint"]; ok {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return req, apierr.New(apierr.InvalidJSONObject, "fingerprint must be an object")
		}
		req.Fingerprint = m
	}

	return req, nil
}
