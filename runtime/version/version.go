// Package version reports the build of a rehearsal binary. The variables can
// be set at link time:
//
//	go build -ldflags "-X github.com/AltairaLabs/rehearsal/runtime/version.version=1.0.0"
package version

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/AltairaLabs/rehearsal/runtime/logger"
)

const (
	devVersion     = "dev"
	shortCommitLen = 7
	vcsRevisionKey = "vcs.revision"
	vcsModifiedKey = "vcs.modified"
)

var (
	version   = devVersion
	gitCommit = ""
	buildDate = ""
)

// GetVersion returns the link-time version, the module version from build
// info, or "dev".
func GetVersion() string {
	if version != devVersion {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return devVersion
}

// buildSetting returns a VCS setting recorded by the toolchain.
func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

func commit() string {
	if gitCommit != "" {
		return gitCommit
	}
	rev := buildSetting(vcsRevisionKey)
	return rev[:min(shortCommitLen, len(rev))]
}

// GetVersionInfo returns a multi-line description for --version output.
func GetVersionInfo(program string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s version %s", program, GetVersion())
	if c := commit(); c != "" {
		fmt.Fprintf(&b, "\ncommit: %s", c)
	}
	if buildDate != "" {
		fmt.Fprintf(&b, "\nbuilt: %s", buildDate)
	}
	return b.String()
}

// GetBuildInfo returns version details as slog key-value pairs.
func GetBuildInfo() []any {
	attrs := []any{"version", GetVersion()}
	if c := commit(); c != "" {
		attrs = append(attrs, "commit", c)
	}
	if gitCommit == "" && buildSetting(vcsModifiedKey) == "true" {
		attrs = append(attrs, "dirty", true)
	}
	if buildDate != "" {
		attrs = append(attrs, "built", buildDate)
	}
	return attrs
}

// LogStartup logs the build at debug level.
func LogStartup(program string) {
	logger.Debug(program+" starting", GetBuildInfo()...)
}
