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

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-herder/test/partitiontest"
)

func TestDefaultsAreValid(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	cfg := GetDefaultLocal()
	require.NoError(t, cfg.Validate())
	require.Equal(t, getLatestConfigVersion(), cfg.Version)
	require.Equal(t, 10000, cfg.QuorumSetCacheSize)
	require.Equal(t, 10000, cfg.TxSetCacheSize)
	require.Equal(t, 1000, cfg.NodesInQuorumCacheSize)
	require.Equal(t, 4, cfg.MaxQuorumDepth)
	require.Equal(t, uint64(12), cfg.MaxSlotsToRemember)
	require.Equal(t, 2, cfg.MaxFetchListRebuilds)
}

func TestValidateRejectsNonPositiveSizes(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	mutators := []func(*Local){
		func(c *Local) { c.QuorumSetCacheSize = 0 },
		func(c *Local) { c.TxSetCacheSize = -1 },
		func(c *Local) { c.NodesInQuorumCacheSize = 0 },
		func(c *Local) { c.DeclaredQuorumSetCacheSize = 0 },
		func(c *Local) { c.MaxQuorumDepth = 0 },
		func(c *Local) { c.MaxSlotsToRemember = 0 },
		func(c *Local) { c.MaxFetchListRebuilds = -1 },
		func(c *Local) { c.BaseLoggerDebugLevel = 6 },
	}
	for i, mutate := range mutators {
		cfg := GetDefaultLocal()
		mutate(&cfg)
		err := cfg.Validate()
		require.Error(t, err, "mutator %d", i)
		require.True(t, errors.Is(err, ErrInvalidConfig))
	}
}

func TestLoadConfigMigratesVersionZero(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(`{"QuorumSetCacheSize": 1000, "TxSetCacheSize": 5}`), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfigFromDisk(dir)
	require.NoError(t, err)
	require.Equal(t, getLatestConfigVersion(), cfg.Version)
	// still the version 0 default, so it moves to the version 1 default
	require.Equal(t, 10000, cfg.QuorumSetCacheSize)
	require.Equal(t, 5, cfg.TxSetCacheSize)
	require.Equal(t, 2, cfg.MaxFetchListRebuilds)
}

func TestLoadConfigKeepsOverrides(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	_, migrations, err := migrate(Local{Version: 0, QuorumSetCacheSize: 77})
	require.NoError(t, err)
	for _, m := range migrations {
		require.NotEqual(t, "QuorumSetCacheSize", m.FieldName)
	}

	_, _, err = migrate(Local{Version: getLatestConfigVersion() + 1})
	require.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	dir := t.TempDir()
	cfg := GetDefaultLocal()
	cfg.MaxQuorumDepth = 7
	cfg.DiagnosticsAddress = "127.0.0.1:0"
	require.NoError(t, cfg.SaveToDisk(dir))

	loaded, err := LoadConfigFromDisk(dir)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	cfg, err := LoadConfigFromDisk(t.TempDir())
	require.Error(t, err)
	require.Equal(t, GetDefaultLocal(), cfg)
}

func TestVersionString(t *testing.T) {
	partitiontest.PartitionTest(t)

	v := GetCurrentVersion()
	require.Equal(t, VersionMajor, v.Major)
	require.Contains(t, FormatVersionAndLicense(), v.String())
}
