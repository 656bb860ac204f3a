// Package version reports the build version announced to new connections.
package version

// Version is injected at build time via -ldflags "-X .../internal/version.Version=...".
var Version string

// GitCommit is the commit sha the binary was built from, injected like Version.
var GitCommit string

const defaultVersion = "v0.1.0"

// GetVersion returns Version, or v0.1.0 when unset, with a short commit
// suffix when GitCommit is known.
func GetVersion() string {
	version := Version
	if version == "" {
		version = defaultVersion
	}

	commit := GitCommit
	if commit == "" {
		return version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return version + "-" + commit
}
