package version

import "fmt"

// These variables are set via ldflags at build time.
// Example: go build -ldflags "-X grocerybooks/internal/version.Version=1.0.0"
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the one-line banner printed by --version
func String(program string) string {
	return fmt.Sprintf("%s %s (built %s, commit %s)", program, Version, BuildTime, GitCommit)
}
