package config

import (
	"fmt"
	"strings"
)

// Build information, set by the dev tool through -ldflags -X.
var (
	AppVersion = "latest"
	GitCommit  = ""
	GitBranch  = ""
	BuildTime  = ""
)

// Version renders the build information for --version, leaving out the
// parts a plain go build does not set.
func Version() string {
	var b strings.Builder
	b.WriteString(AppVersion)
	if GitCommit != "" {
		fmt.Fprintf(&b, "-%s", GitCommit)
	}
	var extra []string
	if GitBranch != "" {
		extra = append(extra, GitBranch)
	}
	if BuildTime != "" {
		extra = append(extra, "built "+BuildTime)
	}
	if len(extra) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(extra, ", "))
	}
	return b.String()
}
