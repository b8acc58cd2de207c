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
	"fmt"
	"os"
	"path/filepath"

	"github.com/algorand/go-herder/util/codecs"
)

// ConfigFilename is the name of the config.json file where we store per-node settings
const ConfigFilename = "config.json"

var defaultLocal = GetVersionedDefaultLocalConfig(getLatestConfigVersion())

// ErrInvalidConfig is returned by Validate for settings the herder cannot run with.
var ErrInvalidConfig = errors.New("invalid configuration")

// GetDefaultLocal returns a copy of the current defaultLocal config
func GetDefaultLocal() Local {
	return defaultLocal
}

// LoadConfigFromDisk returns a Local config structure based on merging the defaults
// with settings loaded from the config file from the custom dir. If the custom file
// cannot be loaded, the default config is returned (with the error from loading the
// custom file).
func LoadConfigFromDisk(custom string) (c Local, err error) {
	return loadConfigFromFile(filepath.Join(custom, ConfigFilename))
}

func loadConfigFromFile(configFile string) (c Local, err error) {
	c = defaultLocal
	// a config file without a version is assumed to be version zero
	c.Version = 0
	err = codecs.LoadObjectFromFile(configFile, &c)
	if err != nil {
		return defaultLocal, err
	}
	c, _, err = migrate(c)
	if err != nil {
		return defaultLocal, err
	}
	return c, c.Validate()
}

// SaveToDisk writes the Local settings into a root/ConfigFilename file
func (cfg Local) SaveToDisk(root string) error {
	configpath := filepath.Join(root, ConfigFilename)
	return cfg.SaveToFile(os.ExpandEnv(configpath))
}

// SaveToFile saves the config to a specific filename, allowing overriding the default name
func (cfg Local) SaveToFile(filename string) error {
	return codecs.SaveObjectToFile(filename, cfg, true)
}

// Validate checks that every size and bound is usable.
func (cfg Local) Validate() error {
	sizes := []struct {
		name  string
		value int
	}{
		{"QuorumSetCacheSize", cfg.QuorumSetCacheSize},
		{"TxSetCacheSize", cfg.TxSetCacheSize},
		{"NodesInQuorumCacheSize", cfg.NodesInQuorumCacheSize},
		{"DeclaredQuorumSetCacheSize", cfg.DeclaredQuorumSetCacheSize},
		{"MaxQuorumDepth", cfg.MaxQuorumDepth},
	}
	for _, s := range sizes {
		if s.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d: %w", s.name, s.value, ErrInvalidConfig)
		}
	}
	if cfg.MaxSlotsToRemember == 0 {
		return fmt.Errorf("MaxSlotsToRemember must be positive: %w", ErrInvalidConfig)
	}
	if cfg.MaxFetchListRebuilds < 0 {
		return fmt.Errorf("MaxFetchListRebuilds must not be negative, got %d: %w", cfg.MaxFetchListRebuilds, ErrInvalidConfig)
	}
	if cfg.BaseLoggerDebugLevel > 5 {
		return fmt.Errorf("BaseLoggerDebugLevel %d out of range: %w", cfg.BaseLoggerDebugLevel, ErrInvalidConfig)
	}
	return nil
}
