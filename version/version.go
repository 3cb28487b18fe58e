package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

var (
	// These variables are set at build time using -ldflags
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
	GoVersion = ""
)

const shortCommitLen = 7

// Info represents version information.
type Info struct {
	Version   string    `json:"version" toml:"version"`
	Module    string    `json:"module,omitempty" toml:"module,omitempty"`
	GitCommit string    `json:"git_commit,omitempty" toml:"git_commit,omitempty"`
	GitBranch string    `json:"git_branch,omitempty" toml:"git_branch,omitempty"`
	GoVersion string    `json:"go_version" toml:"go_version"`
	BuildDate time.Time `json:"build_date" toml:"build_date"`
	IsRelease bool      `json:"is_release" toml:"is_release"`
	IsDirty   bool      `json:"is_dirty" toml:"is_dirty"`
}

// GetVersionInfo returns the version of the running binary.
func GetVersionInfo() *Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
}

// resolve merges link-time values with the embedded build info. Link-time
// values win.
func resolve(bi *debug.BuildInfo) *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		GoVersion: GoVersion,
		IsRelease: Version != "dev" && !strings.Contains(Version, "dirty"),
	}
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildDate = t
		}
	}

	if bi == nil {
		return info
	}
	info.Module = bi.Main.Path
	if info.GoVersion == "" {
		info.GoVersion = bi.GoVersion
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = setting.Value
			}
		case "vcs.modified":
			info.IsDirty = setting.Value == "true"
		case "vcs.time":
			if info.BuildDate.IsZero() {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					info.BuildDate = t
				}
			}
		}
	}
	if len(info.GitCommit) > shortCommitLen {
		info.GitCommit = info.GitCommit[:shortCommitLen]
	}
	if info.IsDirty {
		info.IsRelease = false
	}
	return info
}

// Short returns version and commit, for example "1.2.0-abc1234-dirty".
func (i *Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	s := i.Version + "-" + i.GitCommit
	if i.IsDirty {
		s += "-dirty"
	}
	return s
}

// String returns the detailed version line printed by `seqplan version`.
func (i *Info) String() string {
	parts := []string{i.Version}
	if i.GitCommit != "" {
		parts = append(parts, i.GitCommit)
	}
	if i.GitBranch != "" && i.GitBranch != "main" && i.GitBranch != "master" {
		parts = append(parts, i.GitBranch)
	}
	if i.IsDirty {
		parts = append(parts, "dirty")
	}
	s := strings.Join(parts, "-")
	if !i.BuildDate.IsZero() {
		s += fmt.Sprintf(" (built %s)", i.BuildDate.UTC().Format(time.RFC3339))
	}
	if i.GoVersion != "" {
		s += " " + i.GoVersion
	}
	return s
}

// Fields returns the version as structured log fields.
func (i *Info) Fields() map[string]any {
	fields := map[string]any{
		"version":    i.Version,
		"go_version": i.GoVersion,
	}
	if i.GitCommit != "" {
		fields["git_commit"] = i.GitCommit
	}
	if i.IsDirty {
		fields["dirty"] = true
	}
	return fields
}

// GetShortVersion returns a short version string.
func GetShortVersion() string {
	return GetVersionInfo().Short()
}

// GetFullVersion returns a detailed version string.
func GetFullVersion() string {
	return GetVersionInfo().String()
}
