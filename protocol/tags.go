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

// Tag represents a message type identifier.  Messages have a Tag field. Handlers can register to a given Tag.
// e.g., the herder registers to handle quorum sets with the QuorumSetTag.
type Tag string

// Tags, in lexicographic sort order of tag values to avoid duplicates.
const (
	UnknownMsgTag   Tag = "??"
	DontHaveTag     Tag = "DH"
	EnvelopeTag     Tag = "EN"
	GetQuorumSetTag Tag = "GQ"
	GetTxSetTag     Tag = "GT"
	QuorumSetTag    Tag = "QS"
	TxSetTag        Tag = "TS"
)

// Complement is a convenience function for returning a corresponding response/request tag
func (t Tag) Complement() Tag {
	switch t {
	case QuorumSetTag:
		return GetQuorumSetTag
	case GetQuorumSetTag:
		return QuorumSetTag
	case TxSetTag:
		return GetTxSetTag
	case GetTxSetTag:
		return TxSetTag
	default:
		return UnknownMsgTag
	}
}

// TagList is a list of all currently used protocol tags.
var TagList = []Tag{
	DontHaveTag,
	EnvelopeTag,
	GetQuorumSetTag,
	GetTxSetTag,
	QuorumSetTag,
	TxSetTag,
}
