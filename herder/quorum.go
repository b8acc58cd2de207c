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
	"github.com/algorand/go-herder/data/consensus"
	"github.com/algorand/go-herder/util"
)

type quorumStatus int

const (
	// quorumUnknown means some quorum set on the way was not available yet.
	quorumUnknown quorumStatus = iota
	quorumIn
	quorumOut
)

func (s quorumStatus) String() string {
	switch s {
	case quorumIn:
		return "in"
	case quorumOut:
		return "out"
	default:
		return "unknown"
	}
}

// declaredQuorumSet is the quorum set a node announced in its most recent envelope.
type declaredQuorumSet struct {
	slot uint64
	hash crypto.Digest
}

// quorumMembership decides whether a node is in the transitive quorum of the local node.
// The walk starts at the local quorum set and follows the quorum sets that validators
// declared in their envelopes, resolving every hash through the quorum set cache.
type quorumMembership struct {
	local    consensus.NodeID
	root     crypto.Digest
	rootSet  consensus.QuorumSet
	maxDepth int

	qsets    *objectCache[consensus.QuorumSet]
	declared *simplelru.LRU[consensus.NodeID, declaredQuorumSet]
	inQuorum *simplelru.LRU[consensus.NodeID, bool]
}

func makeQuorumMembership(local consensus.NodeID, root consensus.QuorumSet, maxDepth int, qsets *objectCache[consensus.QuorumSet], declaredSize, memoSize int) *quorumMembership {
	declared, err := simplelru.NewLRU[consensus.NodeID, declaredQuorumSet](declaredSize, nil)
	if err != nil {
		panic(fmt.Errorf("BUG: declared quorum set cache with size %d: %w", declaredSize, err))
	}
	inQuorum, err := simplelru.NewLRU[consensus.NodeID, bool](memoSize, nil)
	if err != nil {
		panic(fmt.Errorf("BUG: quorum membership cache with size %d: %w", memoSize, err))
	}
	return &quorumMembership{
		local:    local,
		root:     root.Hash(),
		rootSet:  root,
		maxDepth: maxDepth,
		qsets:    qsets,
		declared: declared,
		inQuorum: inQuorum,
	}
}

// declare records that node uses the quorum set hash as of slot. Older declarations are ignored.
func (q *quorumMembership) declare(node consensus.NodeID, slot uint64, hash crypto.Digest) {
	if hash.IsZero() {
		return
	}
	if prev, ok := q.declared.Peek(node); ok && prev.slot > slot {
		return
	}
	q.declared.Add(node, declaredQuorumSet{slot: slot, hash: hash})
}

// quorumSet resolves hash to a quorum set. The local quorum set is held outside the
// cache so that evicting it never turns the filter off.
func (q *quorumMembership) quorumSet(hash crypto.Digest) (consensus.QuorumSet, bool) {
	if hash == q.root {
		return q.rootSet, true
	}
	return q.qsets.peek(hash)
}

func (q *quorumMembership) declaredBy(node consensus.NodeID) (crypto.Digest, bool) {
	d, ok := q.declared.Peek(node)
	return d.hash, ok
}

type qsetVisit struct {
	qset  consensus.QuorumSet
	depth int
}

// isNodeInQuorum walks the quorum graph breadth first. Inner sets belong to the level of
// the set that nests them; following a validator's declared set goes one level deeper.
// Validators at the last level are checked but not expanded. Definitive answers are
// memoised, an unknown answer is recomputed next time.
func (q *quorumMembership) isNodeInQuorum(node consensus.NodeID) quorumStatus {
	if node == q.local {
		return quorumIn
	}
	if in, ok := q.inQuorum.Get(node); ok {
		if in {
			return quorumIn
		}
		return quorumOut
	}

	visitedSets := util.MakeSet(q.root)
	visitedNodes := util.MakeSet(q.local)
	queue := []qsetVisit{{qset: q.rootSet}}
	unresolved := false

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		for _, id := range v.qset.Validators {
			if id == node {
				q.inQuorum.Add(node, true)
				return quorumIn
			}
			if visitedNodes.Contains(id) {
				continue
			}
			visitedNodes.Add(id)
			if v.depth+1 >= q.maxDepth {
				continue
			}
			hash, declared := q.declaredBy(id)
			if !declared {
				unresolved = true
				continue
			}
			if visitedSets.Contains(hash) {
				continue
			}
			visitedSets.Add(hash)
			nested, ok := q.quorumSet(hash)
			if !ok {
				unresolved = true
				continue
			}
			queue = append(queue, qsetVisit{qset: nested, depth: v.depth + 1})
		}

		for _, hash := range v.qset.InnerSets {
			if visitedSets.Contains(hash) {
				continue
			}
			visitedSets.Add(hash)
			inner, ok := q.quorumSet(hash)
			if !ok {
				unresolved = true
				continue
			}
			queue = append(queue, qsetVisit{qset: inner, depth: v.depth})
		}
	}

	if unresolved {
		return quorumUnknown
	}
	q.inQuorum.Add(node, false)
	return quorumOut
}

func (q *quorumMembership) memoised() int {
	return q.inQuorum.Len()
}
