// Package version holds build information injected with -ldflags.
package version

// Set with -ldflags "-X github.com/Cloutiere/mermaid/internal/version.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
)

// String renders the version as "<version> (<commit>)".
func String() string {
	return Version + " (" + Commit + ")"
}
