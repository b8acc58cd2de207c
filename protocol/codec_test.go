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

package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-herder/test/partitiontest"
)

type TestStruct struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`
	A       int      `codec:",omitempty"`
	B       string   `codec:",omitempty"`
	C       []byte   `codec:",omitempty"`
}

func TestOmitEmpty(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	var x TestStruct
	enc := Encode(&x)
	require.Equal(t, 1, len(enc))
}

func TestEncodeOrder(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	var a struct {
		A int
		B string
	}
	a.A = 1
	a.B = "foo"

	var b struct {
		B string
		A int
	}
	b.A = 1
	b.B = "foo"

	require.Equal(t, Encode(&a), Encode(&b))
}

func TestEncodeDecode(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	x := TestStruct{A: 7, B: "herder", C: []byte{1, 2, 3}}
	var y TestStruct
	require.NoError(t, Decode(Encode(&x), &y))
	require.Equal(t, x, y)

	var z TestStruct
	require.NoError(t, DecodeJSON(EncodeJSON(&x), &z))
	require.Equal(t, x, z)
}
