package buildinfo

import "runtime"

// Build-time variables (set via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Name is the server's product name.
const Name = "geminid"

// Info contains build information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String returns a human readable version line.
func String() string {
	return Version + " (" + Commit + ") built at " + BuildTime + " with " + runtime.Version()
}

// ServerString identifies this build as "geminid/{version}-git.{commit}".
func ServerString() string {
	return Name + "/" + Version + "-git." + Commit
}
