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

package util

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-herder/test/partitiontest"
)

func TestSetOperations(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	s := MakeSet[uint64](5, 3, 9)
	require.False(t, s.Empty())
	require.True(t, s.Contains(3))
	require.False(t, s.Contains(4))
	require.Equal(t, []uint64{3, 5, 9}, Sorted(s))

	s.Add(3, 4)
	require.Len(t, s, 4)

	s.Remove(3, 100)
	require.False(t, s.Contains(3))
	require.Equal(t, []uint64{4, 5, 9}, Sorted(s))

	s.Remove(4, 5, 9)
	require.True(t, s.Empty())
	require.Empty(t, Sorted(s))
}
