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
	"fmt"
	"reflect"
	"strconv"
)

// MigrationResult represents a single field migration from one version to another
type MigrationResult struct {
	FieldName              string
	OldVersion, NewVersion uint32
	OldValue, NewValue     any
}

// migrate walks cfg forward one version at a time. A field takes the next version's
// default only while it still holds the previous version's default, so operator
// overrides survive.
func migrate(cfg Local) (newCfg Local, migrations []MigrationResult, err error) {
	newCfg = cfg
	latest := getLatestConfigVersion()
	if cfg.Version > latest {
		err = fmt.Errorf("unexpected config version: %d", cfg.Version)
		return
	}

	localType := reflect.TypeFor[Local]()
	for newCfg.Version < latest {
		prevDefaults := reflect.ValueOf(GetVersionedDefaultLocalConfig(newCfg.Version))
		next := newCfg.Version + 1
		current := reflect.ValueOf(&newCfg).Elem()
		for i := 0; i < localType.NumField(); i++ {
			field := localType.Field(i)
			value, hasTag := field.Tag.Lookup(fmt.Sprintf("version[%d]", next))
			if !hasTag {
				continue
			}
			fv := current.Field(i)
			if !reflect.DeepEqual(fv.Interface(), prevDefaults.Field(i).Interface()) {
				continue
			}
			old := fv.Interface()
			setField(fv, field.Name, value)
			if field.Name != "Version" && !reflect.DeepEqual(old, fv.Interface()) {
				migrations = append(migrations, MigrationResult{
					FieldName:  field.Name,
					OldVersion: next - 1,
					NewVersion: next,
					OldValue:   old,
					NewValue:   fv.Interface(),
				})
			}
		}
		// Version is always advanced, even if an operator pinned it.
		newCfg.Version = next
	}
	return
}

func getLatestConfigVersion() uint32 {
	versionField, found := reflect.TypeFor[Local]().FieldByName("Version")
	if !found {
		return 0
	}
	version := uint32(0)
	for {
		if _, hasTag := versionField.Tag.Lookup(fmt.Sprintf("version[%d]", version+1)); !hasTag {
			return version
		}
		version++
	}
}

// GetVersionedDefaultLocalConfig returns the default config for the given version.
func GetVersionedDefaultLocalConfig(version uint32) (local Local) {
	if version > 0 {
		local = GetVersionedDefaultLocalConfig(version - 1)
	}
	localType := reflect.TypeFor[Local]()
	lv := reflect.ValueOf(&local).Elem()
	for i := 0; i < localType.NumField(); i++ {
		field := localType.Field(i)
		value, hasTag := field.Tag.Lookup(fmt.Sprintf("version[%d]", version))
		if !hasTag {
			continue
		}
		setField(lv.Field(i), field.Name, value)
	}
	return
}

func setField(fv reflect.Value, name string, value string) {
	var err error
	switch fv.Kind() {
	case reflect.Bool:
		var b bool
		b, err = strconv.ParseBool(value)
		fv.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		var n int64
		n, err = strconv.ParseInt(value, 10, fv.Type().Bits())
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		var n uint64
		n, err = strconv.ParseUint(value, 10, fv.Type().Bits())
		fv.SetUint(n)
	case reflect.String:
		fv.SetString(value)
	default:
		panic(fmt.Sprintf("unsupported data type (%s) encountered when reflecting on config.Local datatype %s", fv.Kind(), name))
	}
	if err != nil {
		panic(fmt.Sprintf("config.Local field %s has malformed default %q: %v", name, value, err))
	}
}
