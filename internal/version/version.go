// Package version identifies the running build. Commit and BuildTime are
// stamped with -ldflags at release time; a plain source build reports "dev".
package version

var (
	Commit    = "dev"
	BuildTime = ""
)

// String renders the version line shown by the root command and the health
// endpoint, e.g. "pulse a1b2c3d (built 2026-02-16T09:30:00Z)".
func String() string {
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if BuildTime == "" {
		return "pulse " + commit
	}
	return "pulse " + commit + " (built " + BuildTime + ")"
}
