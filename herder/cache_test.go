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

package herder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-herder/data/consensus"
	"github.com/algorand/go-herder/test/partitiontest"
)

func TestObjectCacheEvictsLeastRecentlyUsed(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	c := makeObjectCache[consensus.TxSet](2)
	a, ha := makeTxSet("a")
	b, hb := makeTxSet("b")
	d, hd := makeTxSet("d")

	c.put(ha, 1, a)
	c.put(hb, 1, b)
	_, ok := c.get(ha)
	require.True(t, ok)

	// b is now the least recently used
	c.put(hd, 1, d)
	require.Equal(t, 2, c.len())
	require.True(t, c.contains(ha))
	require.False(t, c.contains(hb))
	require.True(t, c.contains(hd))

	got, ok := c.get(hd)
	require.True(t, ok)
	require.Equal(t, d, got)
}

func TestObjectCachePeekKeepsRecency(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	c := makeObjectCache[consensus.TxSet](2)
	a, ha := makeTxSet("a")
	b, hb := makeTxSet("b")
	d, hd := makeTxSet("d")

	c.put(ha, 1, a)
	c.put(hb, 1, b)
	_, ok := c.peek(ha)
	require.True(t, ok)
	c.put(hd, 1, d)
	require.False(t, c.contains(ha))
}

func TestObjectCacheSlotOnlyMovesForward(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	c := makeObjectCache[consensus.TxSet](4)
	a, ha := makeTxSet("a")

	c.put(ha, 7, a)
	c.put(ha, 3, a)
	slot, ok := c.lastSeenSlot(ha)
	require.True(t, ok)
	require.Equal(t, uint64(7), slot)

	require.True(t, c.touch(ha, 9))
	slot, _ = c.lastSeenSlot(ha)
	require.Equal(t, uint64(9), slot)
	require.True(t, c.touch(ha, 2))
	slot, _ = c.lastSeenSlot(ha)
	require.Equal(t, uint64(9), slot)

	_, missing := makeTxSet("missing")
	require.False(t, c.touch(missing, 1))
}

func TestObjectCacheEraseBelow(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	c := makeObjectCache[consensus.TxSet](8)
	old, hold := makeTxSet("old")
	cur, hcur := makeTxSet("cur")
	pinned, hpinned := makeTxSet("pinned")
	c.put(hold, 3, old)
	c.put(hcur, 10, cur)
	c.put(hpinned, 0, pinned)

	require.Equal(t, 1, c.eraseBelow(10))
	require.False(t, c.contains(hold))
	require.True(t, c.contains(hcur))
	require.True(t, c.contains(hpinned))
}

func TestObjectCacheRejectsBadCapacity(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	require.Panics(t, func() { makeObjectCache[consensus.TxSet](0) })
}
