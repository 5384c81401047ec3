// Package versions reports build information of the nodesync binary.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

const unknown = "unknown"

// Set with -ldflags at build time.
var (
	Version   = "dev"
	Commit    = unknown
	BuildDate = unknown
)

// VersionInfo represents the version information
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	return resolve(Version, Commit, BuildDate, readVCS)
}

// UserAgent returns the User-Agent sent to profile sources.
func UserAgent() string {
	return "nodesync/" + GetVersionInfo().Version
}

// readVCS returns the revision and commit time embedded by the go tool.
func readVCS() (revision, at string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			at = s.Value
		}
	}
	return revision, at
}

func resolve(version, commit, buildDate string, vcs func() (string, string)) VersionInfo {
	if version == "dev" {
		revision, at := vcs()
		if commit == unknown && revision != "" {
			commit = revision
		}
		if buildDate == unknown && at != "" {
			buildDate = at
		}
		if commit != unknown {
			version = fmt.Sprintf("build-%.8s", commit)
		}
	}

	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
