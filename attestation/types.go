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

// Package attestation is the attestation service (C4): challenge
// issuance, submit handling, nonce-replay protection, hardware binding
// and rate limiting.
package attestation

// ChallengeResponse is POST /attest/challenge's body.
type ChallengeResponse struct {
	Nonce     string `json:"nonce"`
	ExpiresAt int64  `json:"expires_at"`
}

// Device is the `device` object of a submission.
type Device struct {
	Family   string `json:"family"`
	Arch     string `json:"arch"`
	Model    string `json:"model"`
	CPU      string `json:"cpu"`
	Cores    int    `json:"cores"`
	MemoryGB float64 `json:"memory_gb"`
	Serial   string `json:"serial"`
}

// Signals is the `signals` object of a submission.
type Signals struct {
	MACs     []string `json:"macs"`
	Hostname string   `json:"hostname"`
}

// Report is the `report` object of a submission: the client's own echo
// of the nonce plus a commitment hash it claims to have computed.
type Report struct {
	Nonce      string `json:"nonce"`
	Commitment string `json:"commitment"`
}

// SubmitRequest is the parsed, shape-checked body of POST /attest/submit.
// fingerprint stays a raw map because fingerprint.Parse tolerates the
// legacy bool-or-object check shapes spec.md §4.3 describes.
type SubmitRequest struct {
	Miner       string
	MinerID     string
	Nonce       string
	Report      Report
	Device      Device
	Signals     Signals
	Fingerprint map[string]interface{}
	Signature   string
	PublicKey   string
}

// SubmitResult is what Submit returns on success, for the HTTP layer to
// render.
type SubmitResult struct {
	Accepted      bool    `json:"accepted"`
	AntiquityTier string  `json:"antiquity_tier"`
	EntropyScore  float64 `json:"entropy_score"`
	Weight        float64 `json:"weight"`
}

// MinerView is one row of GET /api/miners.
type MinerView struct {
	MinerID              string  `json:"miner_id"`
	DeviceArch           string  `json:"device_arch"`
	DeviceFamily         string  `json:"device_family"`
	HardwareType         string  `json:"hardware_type"`
	AntiquityTier        string  `json:"antiquity_tier"`
	AntiquityMultiplier  float64 `json:"antiquity_multiplier"`
	EntropyScore         float64 `json:"entropy_score"`
	LastSeen             int64   `json:"last_seen"`
}
