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
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/algorand/go-herder/crypto"
)

// cacheItem is an object together with the highest slot that referenced it.
type cacheItem[T any] struct {
	lastSeenSlot uint64
	obj          T
}

// objectCache is a fixed-capacity LRU of content-addressed objects.
// Slot 0 marks objects that are not tied to any slot, such as the local quorum set.
type objectCache[T any] struct {
	lru *simplelru.LRU[crypto.Digest, cacheItem[T]]
	cap int
}

func makeObjectCache[T any](capacity int) *objectCache[T] {
	lru, err := simplelru.NewLRU[crypto.Digest, cacheItem[T]](capacity, nil)
	if err != nil {
		panic(fmt.Errorf("BUG: object cache with capacity %d: %w", capacity, err))
	}
	return &objectCache[T]{lru: lru, cap: capacity}
}

// get returns the object for hash and marks it most recently used.
func (c *objectCache[T]) get(hash crypto.Digest) (obj T, ok bool) {
	item, ok := c.lru.Get(hash)
	if !ok {
		return obj, false
	}
	return item.obj, true
}

// peek returns the object for hash without changing its recency.
func (c *objectCache[T]) peek(hash crypto.Digest) (obj T, ok bool) {
	item, ok := c.lru.Peek(hash)
	if !ok {
		return obj, false
	}
	return item.obj, true
}

func (c *objectCache[T]) contains(hash crypto.Digest) bool {
	return c.lru.Contains(hash)
}

// put inserts or refreshes obj. The remembered slot only moves forward.
func (c *objectCache[T]) put(hash crypto.Digest, slot uint64, obj T) {
	if item, ok := c.lru.Peek(hash); ok && item.lastSeenSlot > slot {
		slot = item.lastSeenSlot
	}
	c.lru.Add(hash, cacheItem[T]{lastSeenSlot: slot, obj: obj})
}

// touch marks hash most recently used and records that slot references it.
// It reports whether hash was cached.
func (c *objectCache[T]) touch(hash crypto.Digest, slot uint64) bool {
	item, ok := c.lru.Get(hash)
	if !ok {
		return false
	}
	if slot > item.lastSeenSlot {
		item.lastSeenSlot = slot
		c.lru.Add(hash, item)
	}
	return true
}

func (c *objectCache[T]) lastSeenSlot(hash crypto.Digest) (uint64, bool) {
	item, ok := c.lru.Peek(hash)
	return item.lastSeenSlot, ok
}

// eraseBelow drops every object last referenced by a slot below slot. Unslotted objects stay.
func (c *objectCache[T]) eraseBelow(slot uint64) (erased int) {
	for _, hash := range c.lru.Keys() {
		item, ok := c.lru.Peek(hash)
		if ok && item.lastSeenSlot != 0 && item.lastSeenSlot < slot {
			c.lru.Remove(hash)
			erased++
		}
	}
	return
}

func (c *objectCache[T]) len() int {
	return c.lru.Len()
}
