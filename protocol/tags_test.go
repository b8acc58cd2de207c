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
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-herder/test/partitiontest"
)

func TestTagListSortedAndUnique(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	require.NotEmpty(t, TagList)
	require.True(t, sort.SliceIsSorted(TagList, func(i, j int) bool { return TagList[i] < TagList[j] }))
	seen := make(map[Tag]bool)
	for _, tag := range TagList {
		require.False(t, seen[tag], "duplicate tag %s", tag)
		require.NotEqual(t, UnknownMsgTag, tag)
		require.Len(t, string(tag), 2)
		seen[tag] = true
	}
}

func TestTagComplement(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	require.Equal(t, GetQuorumSetTag, QuorumSetTag.Complement())
	require.Equal(t, QuorumSetTag, GetQuorumSetTag.Complement())
	require.Equal(t, GetTxSetTag, TxSetTag.Complement())
	require.Equal(t, TxSetTag, GetTxSetTag.Complement())
	require.Equal(t, UnknownMsgTag, EnvelopeTag.Complement())
	require.Equal(t, UnknownMsgTag, DontHaveTag.Complement())

	inList := make(map[Tag]bool)
	for _, tag := range TagList {
		inList[tag] = true
	}
	for _, tag := range TagList {
		if c := tag.Complement(); c != UnknownMsgTag {
			require.True(t, inList[c], "complement of %s is not a known tag", tag)
			require.Equal(t, tag, c.Complement())
		}
	}
}
