// Package version reports the build version of the ambilight binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/oxabz/my-ambilight/internal/version.Version=v0.3.0 \
//	                   -X github.com/oxabz/my-ambilight/internal/version.Commit=abc123"
//
// Otherwise they are filled from the VCS stamp in the build info, then fall
// back to "dev" and "unknown".
var (
	Version = ""
	Commit  = ""
)

// Info is the resolved build information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var current = resolve(Version, Commit, readSettings())

// Get returns the build information of the running binary.
func Get() Info {
	return current
}

// String returns the bare version, as advertised over mDNS.
func String() string {
	return current.Version
}

// Full returns the version with commit and toolchain.
func Full() string {
	return current.String()
}

func (i Info) String() string {
	s := fmt.Sprintf("%s (commit: %s, %s, %s)", i.Version, i.Commit, i.GoVersion, i.Platform)
	if i.BuildTime != "" {
		s += " built " + i.BuildTime
	}
	return s
}

func readSettings() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

// resolve merges ldflags values with the vcs.* build settings.
func resolve(version, commit string, settings map[string]string) Info {
	info := Info{
		Version:   version,
		Commit:    commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if rev := settings["vcs.revision"]; info.Commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		info.Commit = rev
	}

	if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
		if info.Version == "" {
			info.Version = "dev-" + t.UTC().Format("20060102")
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	return info
}
