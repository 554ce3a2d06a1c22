package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/Masterminds/semver/v3"
)

// Build information, set at build time via ldflags
var (
	// CommitHash is the git commit the binary was built from
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the release tag, or "dev" for untagged builds
	Version = "dev"
)

// Info describes the running ontomap binary
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the build information. Binaries built without ldflags fall
// back to the VCS stamp the Go toolchain embeds.
func Get() Info {
	info := Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.applyBuildSettings(bi.Settings)
	}
	return info
}

func (i *Info) applyBuildSettings(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch {
		case s.Key == "vcs.revision" && i.CommitHash == "dev":
			i.CommitHash = s.Value
		case s.Key == "vcs.time" && i.BuildTime == "unknown":
			i.BuildTime = s.Value
		}
	}
}

// Release parses Version as a semantic version, reporting false for dev builds
func (i Info) Release() (*semver.Version, bool) {
	v, err := semver.NewVersion(i.Version)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (i Info) String() string {
	if v, ok := i.Release(); ok {
		return fmt.Sprintf("ontomap v%s (commit %s, built %s)", v, i.Short(), i.BuildTime)
	}
	return fmt.Sprintf("ontomap %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
}

// Short returns the abbreviated commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
