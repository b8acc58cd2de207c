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
	"strconv"
)

// Build time variables set through -ldflags
var (
	// BuildNumber is the monotonic build number.
	BuildNumber string
	// CommitHash is the git commit id in effect when the build was created.
	CommitHash string
	// Branch is the git branch in effect when the build was created.
	Branch string
)

// VersionMajor is the Major semantic version number (#.y.z).
const VersionMajor = 0

// VersionMinor is the Minor semantic version number (x.#.z).
const VersionMinor = 3

// Version is the type holding our full version information.
type Version struct {
	Major       int
	Minor       int
	BuildNumber int
	CommitHash  string
	Branch      string
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.BuildNumber)
}

// GetCurrentVersion retrieves the version of the running binary.
func GetCurrentVersion() Version {
	build, _ := strconv.Atoi(BuildNumber)
	return Version{
		Major:       VersionMajor,
		Minor:       VersionMinor,
		BuildNumber: build,
		CommitHash:  CommitHash,
		Branch:      Branch,
	}
}

// FormatVersionAndLicense prints current version and license information
func FormatVersionAndLicense() string {
	v := GetCurrentVersion()
	return fmt.Sprintf("%s [%s] (commit #%s)\ngo-herder is licensed with AGPLv3.0", v, v.Branch, v.CommitHash)
}
