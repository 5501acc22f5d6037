package huefy

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version information for the client library.
// These values are injected during build time via ldflags.
var (
	// Version is the semantic version of the library.
	Version = "1.0.0"

	// GitCommit is the git commit hash when the library was built.
	GitCommit = "unknown"
)

const modulePath = "github.com/teracrafts/huefy-go"

// VersionInfo describes the library build in use.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

// GetVersionInfo returns detailed version information. When the library is
// consumed as a module dependency, the module version from the build info
// takes precedence over the ldflags default.
func GetVersionInfo() *VersionInfo {
	info := &VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range buildInfo.Deps {
			if dep.Path == modulePath && dep.Version != "" && dep.Version != "(devel)" {
				info.Version = dep.Version
			}
		}
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.revision" && GitCommit == "unknown" && len(setting.Value) >= 12 {
				info.GitCommit = setting.Value[:12]
			}
		}
	}

	return info
}

// UserAgent returns the User-Agent header sent with every request.
func (v *VersionInfo) UserAgent() string {
	return fmt.Sprintf("huefy-go/%s (%s)", v.Version, v.Platform)
}

// UserAgent returns the User-Agent of the running build.
func UserAgent() string {
	return GetVersionInfo().UserAgent()
}
