// Package version is the single place the binary's version lives.
package version

// Overridable at build time:
// go build -ldflags "-X cib/internal/version.Version=1.0.0 -X cib/internal/version.Commit=abc123"
var (
	// Version is the semantic version of the bridge
	Version = "0.3.0"

	// Commit is the git revision the binary was built from
	Commit = "unknown"

	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// Info returns the version, with a short commit when one is known
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version block for --version output
func Full() string {
	return "cib version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
