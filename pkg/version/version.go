// Package version exposes build metadata set through -ldflags.
package version

// Set at build time, for example:
//
//	go build -ldflags "-X github.com/rshade/clothgen/pkg/version.version=v1.2.0"
//
//nolint:gochecknoglobals // populated by the linker
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// GetVersion returns the semantic version of the binary.
func GetVersion() string {
	return version
}

// GetGitCommit returns the commit the binary was built from.
func GetGitCommit() string {
	return gitCommit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return buildDate
}
