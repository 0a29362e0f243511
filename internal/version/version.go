// Package version exposes build information stamped via -ldflags.
package version

import "fmt"

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
}

// Get returns the build information.
func Get() Info {
	return Info{Version: version, GitCommit: gitCommit, BuildDate: buildDate}
}

func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.GitCommit, i.BuildDate)
}
