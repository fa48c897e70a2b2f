// Package version carries the build metadata served by /v1/version.
// The values are overridden at build time via -ldflags -X.
package version

var (
	// Version is the release tag, or "dev" for local builds
	Version = "dev"
	// Commit is the short git hash the binary was built from
	Commit = "dev"
	// BuildTime is when the binary was built
	BuildTime = "unknown"
)
