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

package apierr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_ResolvesStatusFromTheFixedTable(t *testing.T) {
	err := New(NonceReplay, "nonce_stale")
	assert.Equal(t, 409, err.Status)
	assert.Equal(t, NonceReplay, err.Code)
	assert.Equal(t, "nonce_stale", err.Detail)
}

func TestNew_UnknownCodeDefaultsTo500(t *testing.T) {
	err := New(Code("SOMETHING_NEW"), "")
	assert.Equal(t, 500, err.Status)
}

func TestError_StringIsTheCode(t *testing.T) {
	err := New(Unauthorized, "missing admin key")
	assert.Equal(t, "UNAUTHORIZED", err.Error())
}

func TestStatusByCode_CoversEveryDeclaredCode(t *testing.T) {
	codes := []Code{
		InvalidJSONObject, VMDetected, InvalidSignature, InsufficientBalance,
		NonceReplay, NonceStale, ChallengeInvalid, ChallengeMismatch,
		HardwareBound, RateLimited, AmountNotFinite, AmountTooSmall,
		FromToMustDiffer, Unauthorized, NotFound, Internal,
	}
	for _, c := range codes {
		_, ok := statusByCode[c]
		assert.Truef(t, ok, "code %s has no status mapping", c)
	}
}
