// Package version holds the release version stamped into the CLI.
package version

// Version is overridden at release time with -ldflags "-X .../internal/version.Version=...".
var Version = "0.1.0"
