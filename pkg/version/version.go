// Package version reports which sourcepack build is running.
//
// Release builds stamp the variables below with -ldflags:
//
//	go build -ldflags "-X sourcepack/pkg/version.Version=$(git describe --tags) \
//	  -X sourcepack/pkg/version.Commit=$(git rev-parse --short HEAD) \
//	  -X sourcepack/pkg/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" .
//
// Binaries from "go install" carry no ldflags; for those the module version and
// the VCS stamp recorded by the go command are used instead.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const unset = "dev"

var (
	Version   = unset     // Release tag
	Commit    = "none"    // Git commit hash
	BuildTime = "unknown" // Build timestamp, UTC
)

// Info describes the running build.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	Modified  bool // Built from a work tree with uncommitted changes.
	GoVersion string
	Platform  string
}

// Get returns the current version information.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = withBuildInfo(info, bi)
	}
	return info
}

// withBuildInfo fills the fields ldflags left at their defaults.
func withBuildInfo(info Info, bi *debug.BuildInfo) Info {
	if info.Version == unset && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "none" {
				info.GitCommit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String returns the version on one line, e.g.
// sourcepack version v0.3.0 (commit: abcdefg) built at 2026-10-19T15:04:05Z with go1.24.4 on linux/amd64
func (i Info) String() string {
	commit := i.GitCommit
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("sourcepack version %s (commit: %s) built at %s with %s on %s",
		i.Version, commit, i.BuildTime, i.GoVersion, i.Platform)
}
