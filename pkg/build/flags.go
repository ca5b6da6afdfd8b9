// SPDX-License-Identifier: MIT

// Package build exposes build metadata (name, version, commit, build time)
// embedded via -ldflags at compile time. Development builds that skip the
// linker flags fall back to "dev" placeholders instead of failing.
package build

// Populated by -ldflags, e.g.
//
//	-X mixengine/pkg/build.buildVersion=v0.3.0
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

type Flags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

var flags = Flags{
	Name:    "mixengine",
	Time:    "unknown",
	Commit:  "unknown",
	Version: "dev",
}

// Initialize copies any linker-provided values over the development
// defaults. Must be called once early in startup.
func Initialize() {
	if buildName != "" {
		flags.Name = buildName
	}
	if buildTime != "" {
		flags.Time = buildTime
	}
	if buildCommit != "" {
		flags.Commit = buildCommit
	}
	if buildVersion != "" {
		flags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() Flags {
	return flags
}
