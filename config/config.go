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

// Package config loads the node's layered configuration: an optional
// TOML file for things awkward to express as environment variables
// (static peers, trusted-proxy CIDRs, rate-limit tunables), overlaid by
// the environment variables spec.md §6 names. Env always wins, matching
// the teacher's layered-config convention.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/units"
	"github.com/naoina/toml"
	"github.com/pkg/errors"

	"github.com/Scottcjn/Rustchain-sub002/params"
)

// Peer is one entry of the static peer map loaded at boot (spec.md §4.7).
type Peer struct {
	NodeID  string `toml:"node_id"`
	BaseURL string `toml:"base_url"`
	PubKey  string `toml:"pubkey"` // hex-encoded ed25519 public key, empty = TOFU
}

// RateLimit tunables for the per-IP / per-miner token buckets (spec.md §4.4).
type RateLimit struct {
	SubmitsPerMinerPerMinute int `toml:"submits_per_miner_per_minute"`
	SubmitsPerIPPerMinute    int `toml:"submits_per_ip_per_minute"`
}

// fileConfig is the shape of the optional TOML file.
type fileConfig struct {
	Peers           []Peer    `toml:"peers"`
	TrustedProxies  []string  `toml:"trusted_proxies"`
	RateLimit       RateLimit `toml:"rate_limit"`
	MaxRequestBody  string    `toml:"max_request_body"`
	MockSignatures  bool      `toml:"mock_signatures"`
}

// Config is the fully resolved node configuration.
type Config struct {
	DBPath     string
	AdminKey   string
	NodeID     string
	RuntimeEnv string
	ListenOn   string

	GenesisTimestamp int64
	BlockTimeSeconds int64
	EpochSlots       int64

	PerEpochPotURTC   int64
	MinWithdrawalURTC int64
	WithdrawalFeeURTC int64

	Peers          []Peer
	TrustedProxies []string
	RateLimit      RateLimit
	MaxRequestBody int64
	MockSignatures bool
}

// Load reads an optional TOML file at path (ignored if empty or absent)
// and overlays environment variables on top of it.
func Load(path string) (*Config, error) {
	fc := fileConfig{
		RateLimit: RateLimit{
			SubmitsPerMinerPerMinute: 1,
			SubmitsPerIPPerMinute:    30,
		},
		MaxRequestBody: "256KiB",
	}
	if path != "" {
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			if err := toml.NewDecoder(f).Decode(&fc); err != nil {
				return nil, errors.Wrapf(err, "config: parsing %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "config: opening %s", path)
		}
	}

	maxBody, err := units.ParseBase2Bytes(fc.MaxRequestBody)
	if err != nil {
		return nil, errors.Wrapf(err, "config: max_request_body %q", fc.MaxRequestBody)
	}

	c := &Config{
		DBPath:     envOr("RUSTCHAIN_DB_PATH", "rustchain.db"),
		AdminKey:   os.Getenv("RC_ADMIN_KEY"),
		NodeID:     envOr("RC_NODE_ID", "node-0"),
		RuntimeEnv: envOr("RC_RUNTIME_ENV", "production"),
		ListenOn:   envOr("RC_LISTEN_ADDR", ":8645"),

		GenesisTimestamp: envInt("GENESIS_TIMESTAMP", 1704067200),
		BlockTimeSeconds: envInt("BLOCK_TIME_SECONDS", params.DefaultBlockTimeSeconds),
		EpochSlots:       envInt("EPOCH_SLOTS", params.DefaultEpochSlots),

		PerEpochPotURTC:   envInt("PER_EPOCH_POT_URTC", params.DefaultPerEpochPotURTC),
		MinWithdrawalURTC: envInt("MIN_WITHDRAWAL_URTC", params.DefaultMinWithdrawalURTC),
		WithdrawalFeeURTC: envInt("WITHDRAWAL_FEE_URTC", params.DefaultWithdrawalFeeURTC),

		Peers:          fc.Peers,
		TrustedProxies: fc.TrustedProxies,
		RateLimit:      fc.RateLimit,
		MaxRequestBody: int64(maxBody),
		MockSignatures: fc.MockSignatures,
	}

	if c.MockSignatures && c.RuntimeEnv != "test" {
		return nil, fmt.Errorf("config: mock_signatures is set but RC_RUNTIME_ENV != test; refusing to boot")
	}

	return c, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// ListenAddr returns the address the HTTP server binds.
func (c *Config) ListenAddr() string { return c.ListenOn }

// Public returns the non-secret subset exposed on GET /config.
func (c *Config) Public() map[string]interface{} {
	return map[string]interface{}{
		"genesis_timestamp":   c.GenesisTimestamp,
		"block_time_seconds":  c.BlockTimeSeconds,
		"epoch_slots":         c.EpochSlots,
		"per_epoch_pot_urtc":  c.PerEpochPotURTC,
		"min_withdrawal_urtc": c.MinWithdrawalURTC,
		"withdrawal_fee_urtc": c.WithdrawalFeeURTC,
	}
}
