// Package version carries build metadata stamped in with -ldflags.
package version

import "fmt"

var (
	// Version is the release tag.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info is the JSON form served by the status endpoint.
type Info struct {
	Version   string `json:"version"`
	GitSHA    string `json:"git_sha"`
	BuildTime string `json:"build_time"`
}

// Get returns the current build metadata.
func Get() Info {
	return Info{Version: Version, GitSHA: GitSHA, BuildTime: BuildTime}
}

func (i Info) String() string {
	return fmt.Sprintf("scan2bim %s (%s, built %s)", i.Version, i.GitSHA, i.BuildTime)
}
