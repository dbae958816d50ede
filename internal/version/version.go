// Package version provides build-time version information for estante.
//
// Variables in this package are set at build time using ldflags:
//
//	go build -ldflags "-X github.com/skoobtools/estante/internal/version.Version=1.0.0 ..."
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Build-time variables set via ldflags
var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit SHA
	Commit = "unknown"

	// BuildDate is the UTC build timestamp in RFC3339 format
	BuildDate = "unknown"
)

// Info contains structured version information
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the current version information. When the binary was
// installed with `go install` (no ldflags), the module version and VCS
// revision from the embedded build info are used instead.
func Get() Info {
	v, commit := Version, Commit
	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
				v = bi.Main.Version
			}
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && commit == "unknown" {
					commit = s.Value
				}
			}
		}
	}
	return Info{
		Version:   v,
		Commit:    commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a single-line version string
func String() string {
	return Get().Version
}

// Full returns a multi-line version string with all details
func Full() string {
	info := Get()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("estante %s\n", info.Version))
	sb.WriteString(fmt.Sprintf("  Commit:     %s\n", info.Commit))
	sb.WriteString(fmt.Sprintf("  Built:      %s\n", info.BuildDate))
	sb.WriteString(fmt.Sprintf("  Go version: %s\n", info.GoVersion))
	sb.WriteString(fmt.Sprintf("  OS/Arch:    %s", info.Platform))
	return sb.String()
}
