package kisan

// Version information. Override at build time with ldflags:
//
//	go build -ldflags "-X github.com/aayush997726/kisan.GitCommit=$(git rev-parse HEAD)"
const (
	// Name is the application name.
	Name = "kisan"

	// Description is a short description of the application.
	Description = "Hindi translation cache and dispatcher for the farmer dashboard"

	// Version is the semantic version of the application.
	Version = "0.1.0"
)

// Build information, set via ldflags.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// FullVersion returns Version with the short commit appended when known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}
