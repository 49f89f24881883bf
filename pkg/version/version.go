// Package version reports the build version of the fleetradar binaries.
package version

import "runtime/debug"

// Set with -ldflags "-X github.com/carverauto/fleetradar/pkg/version.version=..."
//
//nolint:gochecknoglobals // ldflags injection target
var (
	version = "dev"
	buildID = ""
)

// GetVersion returns the release version, "dev" for local builds.
func GetVersion() string {
	return version
}

// GetBuildID returns the injected build id, falling back to the VCS revision
// recorded by the Go toolchain.
func GetBuildID() string {
	if buildID != "" {
		return buildID
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			return s.Value[:12]
		}
	}

	return "unknown"
}

// GetFullVersion returns "<version> (build: <id>)".
func GetFullVersion() string {
	return version + " (build: " + GetBuildID() + ")"
}

// UserAgent is the User-Agent header value for a fleetradar component.
func UserAgent(component string) string {
	return "fleetradar-" + component + "/" + version
}
