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

// Package apierr carries the HTTP-surface error taxonomy: a machine
// code plus the status it maps to (spec.md §6/§7).
package apierr

// Code is one of the fixed error codes the HTTP surface may return.
type Code string

const (
	InvalidJSONObject   Code = "INVALID_JSON_OBJECT"
	VMDetected          Code = "VM_DETECTED"
	InvalidSignature    Code = "INVALID_SIGNATURE"
	InsufficientBalance Code = "INSUFFICIENT_BALANCE"
	NonceReplay         Code = "NONCE_REPLAY"
	NonceStale          Code = "NONCE_STALE"
	ChallengeInvalid    Code = "CHALLENGE_INVALID"
	ChallengeMismatch   Code = "CHALLENGE_MISMATCH"
	HardwareBound       Code = "HARDWARE_BOUND"
	RateLimited         Code = "RATE_LIMIT"
	AmountNotFinite     Code = "AMOUNT_NOT_FINITE"
	AmountTooSmall      Code = "AMOUNT_TOO_SMALL"
	FromToMustDiffer    Code = "FROM_TO_MUST_DIFFER"
	Unauthorized        Code = "UNAUTHORIZED"
	NotFound            Code = "NOT_FOUND"
	Internal            Code = "INTERNAL"
)

// statusByCode is the fixed code->HTTP-status mapping (spec.md §7).
var statusByCode = map[Code]int{
	InvalidJSONObject:   400,
	VMDetected:          403,
	InvalidSignature:    401,
	InsufficientBalance: 400,
	NonceReplay:         409,
	NonceStale:          409,
	ChallengeInvalid:    400,
	ChallengeMismatch:   400,
	HardwareBound:       409,
	RateLimited:         429,
	AmountNotFinite:     400,
	AmountTooSmall:      400,
	FromToMustDiffer:    400,
	Unauthorized:        401,
	NotFound:            404,
	Internal:            500,
}

// Error is a client-facing API error: a stable code, an HTTP status and
// an optional human detail string, never a wrapped internal error (spec.md
// §7: "never leak internal error text to the client").
type Error struct {
	Code   Code
	Status int
	Detail string
}

func (e *Error) Error() string { return string(e.Code) }

// New builds an Error for code, resolving its status from the fixed table.
func New(code Code, detail string) *Error {
	status, ok := statusByCode[code]
	if !ok {
		status = 500
	}
	return &Error{Code: code, Status: status, Detail: detail}
}
