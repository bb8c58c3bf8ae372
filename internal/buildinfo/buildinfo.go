// Package buildinfo carries the version stamped in with
// -ldflags "-X sparkcalc/internal/buildinfo.Version=...".
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the version, falling back to the commit, for title bars.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return shortCommit(Commit)
	}
	return "dev"
}

// String returns the full stamp for logs and -version output.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, shortCommit(Commit), Date)
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
