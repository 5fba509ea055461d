// Package buildinfo holds the version stamped into imtiler at build time.
//
// The release build sets the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/imtiler/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/imtiler/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/imtiler
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build information served by GET /version.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date, Go: runtime.Version()}
}

// Template returns the version template for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s, %s)\n", Version, Commit, Date, runtime.Version())
}
