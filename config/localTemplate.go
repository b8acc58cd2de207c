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

package config

// Local holds the per-node configuration of the envelope admission layer.
// !!! WARNING !!!
//
// The versioned struct tags are treated like constants: once a version is
// released its defaults are never modified. To change a default, add a new
// version tag to the field and to Version.
//
// !!! WARNING !!!
type Local struct {
	// Version tracks the current version of the defaults so we can migrate old -> new.
	Version uint32 `version[0]:"0" version[1]:"1"`

	// BaseLoggerDebugLevel specifies the logging level. The levels range from 0 (critical error / silent) to 5 (debug / verbose).
	BaseLoggerDebugLevel uint32 `version[0]:"4"`

	// QuorumSetCacheSize is the number of quorum sets kept in the object cache.
	QuorumSetCacheSize int `version[0]:"1000" version[1]:"10000"`

	// TxSetCacheSize is the number of transaction sets kept in the object cache.
	TxSetCacheSize int `version[0]:"10000"`

	// NodesInQuorumCacheSize bounds the memoised quorum membership answers.
	NodesInQuorumCacheSize int `version[0]:"1000"`

	// DeclaredQuorumSetCacheSize bounds the number of nodes whose most recently declared quorum set is remembered.
	DeclaredQuorumSetCacheSize int `version[0]:"1000"`

	// MaxQuorumDepth limits how many quorum set levels are walked when deciding whether a node is in the transitive quorum.
	MaxQuorumDepth int `version[0]:"4"`

	// MaxSlotsToRemember is the number of closed slots whose envelopes are retained for duplicate suppression.
	MaxSlotsToRemember uint64 `version[0]:"12"`

	// MaxFetchListRebuilds is the number of times a fetch rebuilds its peer list after every peer answered that it doesn't have the item.
	MaxFetchListRebuilds int `version[1]:"2"`

	// EnableMetricReporting exposes the herder metrics over the diagnostics endpoint.
	EnableMetricReporting bool `version[0]:"false"`

	// DiagnosticsAddress is the address the diagnostics HTTP endpoint listens on, or blank to disable it.
	DiagnosticsAddress string `version[0]:""`
}
