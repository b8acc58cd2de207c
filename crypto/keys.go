// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package crypto

import (
	"encoding/base32"
	"fmt"

	"github.com/algorand/go-herder/protocol"
)

// PublicKeySize is the size of an ed25519 verification key.
const PublicKeySize = 32

// A PublicKey identifies a node on the consensus network.
// Envelope signatures are checked before they reach the herder,
// so only the identity is needed here.
type PublicKey [PublicKeySize]byte

// String returns the key in a human-readable Base32 string
func (pk PublicKey) String() string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(pk[:])
}

// IsZero returns true if no key bytes are set.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// PublicKeyFromString parses a Base32 public key.
func PublicKeyFromString(str string) (pk PublicKey, err error) {
	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(str)
	if err != nil {
		return pk, err
	}
	if len(decoded) != len(pk) {
		return pk, fmt.Errorf("public key %q has %d bytes: %w", str, len(decoded), protocol.ErrInvalidObject)
	}
	copy(pk[:], decoded)
	return pk, nil
}
