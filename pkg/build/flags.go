// SPDX-License-Identifier: MIT
//
// Package build carries the build metadata (name, timestamp, commit and
// version) that is injected into the spectrum binary with linker flags:
//
//	go build -ldflags "-X spectrum/pkg/build.buildName=spectrum -X spectrum/pkg/build.buildVersion=0.1.0 ..."
//
// Development builds run without ldflags; every missing field keeps the
// value "unknown" and is reported by Initialize.
package build

import (
	"errors"
	"fmt"
)

const unknown = "unknown"

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String renders the build information as a single line for --version
// output and startup logs.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}

// Package-level variables for build information. These are populated by
// -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    unknown,
		Time:    unknown,
		Commit:  unknown,
		Version: unknown,
	}
)

// Initialize copies the ldflags variables into the build information. Every
// flag that was not provided is left as "unknown" and reported in the joined
// error, so callers can decide whether a development build is acceptable.
func Initialize() error {
	var errs []error
	set := func(dst *string, value, flag string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", flag))
			return
		}
		*dst = value
	}

	set(&buildFlags.Name, buildName, "BuildName")
	set(&buildFlags.Time, buildTime, "BuildTime")
	set(&buildFlags.Commit, buildCommit, "BuildCommit")
	set(&buildFlags.Version, buildVersion, "BuildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information. Initialize() should
// be called first; before that every field reads "unknown".
func GetBuildFlags() *ldFlags {
	return buildFlags
}
