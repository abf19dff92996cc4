// Package versions reports build information of data-syncd.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

const (
	unknownStr = "unknown"
	devVersion = "dev"
)

// Build information, set with -ldflags "-X"
var (
	// Version is the release version of data-syncd
	Version = devVersion
	// Commit is the git commit the binary was built from
	Commit = unknownStr
	// BuildDate is when the binary was built
	BuildDate = unknownStr
)

// VersionInfo is the build information served by /version and the version
// command
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	var settings []debug.BuildSetting
	if info, ok := debug.ReadBuildInfo(); ok {
		settings = info.Settings
	}
	return resolve(Version, Commit, BuildDate, settings)
}

// resolve fills unknown values of a dev build from VCS build settings
func resolve(version, commit, buildDate string, settings []debug.BuildSetting) VersionInfo {
	if version == devVersion {
		for _, setting := range settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == unknownStr {
					commit = setting.Value
				}
			case "vcs.time":
				if buildDate == unknownStr {
					buildDate = setting.Value
				}
			}
		}
		version = fmt.Sprintf("build-%.*s", 8, commit)
	}

	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
