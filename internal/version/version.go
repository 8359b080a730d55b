/*
Package version provides build information for bandits.

Values are set via ldflags during build:

	-X github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/version.Version=v0.3.0

Builds without ldflags fall back to the VCS stamp the Go toolchain embeds,
and report "dev" when none is available.
*/
package version

import (
	"runtime/debug"
	"sync"
)

// Version information (set via ldflags during build)
var (
	// Version is the release tag (e.g., v0.3.0)
	Version = "dev"
	// Commit is the git commit hash (short form)
	Commit = "none"
	// Date is the build date in UTC (YYYY-MM-DD)
	Date = "unknown"
)

var stampOnce sync.Once

// GetVersion returns version information as a formatted string
func GetVersion() string {
	v, c, d := GetVersionComponents()
	return FormatVersion(v, c, d)
}

// FormatVersion formats version components into a display string
func FormatVersion(version, commit, date string) string {
	if version == "dev" && commit == "none" {
		return version + " (development build)"
	}
	return version + " (commit: " + commit + ", built: " + date + ")"
}

// GetVersionComponents returns individual version components, filling
// unset values from the embedded build info.
func GetVersionComponents() (version, commit, date string) {
	stampOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		applyBuildInfo(info)
	})
	return Version, Commit, Date
}

func applyBuildInfo(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "none" && s.Value != "" {
				Commit = s.Value
				if len(Commit) > 7 {
					Commit = Commit[:7]
				}
			}
		case "vcs.time":
			if Date == "unknown" && len(s.Value) >= 10 {
				Date = s.Value[:10]
			}
		}
	}
}
