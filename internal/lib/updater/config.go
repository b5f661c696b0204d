package updater

import (
	"fmt"
	"path/filepath"
	"strings"

	apperrors "github.com/mistweaverco/addonup/internal/errors"
	"github.com/mistweaverco/addonup/internal/lib/files"
	"github.com/mistweaverco/addonup/internal/lib/semver"
	"github.com/mistweaverco/addonup/internal/lib/source"
)

// Config describes where the add-on comes from and where it is installed.
type Config struct {
	Owner      string `mapstructure:"owner" json:"owner"`
	Repository string `mapstructure:"repository" json:"repository"`

	// CurrentAddonPath is the add-on's own install directory, the swap target.
	CurrentAddonPath string `mapstructure:"current_addon_path" json:"current_addon_path"`
	// AddonDirectory holds all add-ons. Defaults to the parent of CurrentAddonPath.
	AddonDirectory string `mapstructure:"addon_directory" json:"addon_directory"`

	Branches          []string `mapstructure:"branches" json:"branches"`
	MinReleaseVersion string   `mapstructure:"min_release_version" json:"min_release_version"`
	CurrentVersion    string   `mapstructure:"current_version" json:"current_version"`

	// DefaultTargetAddonPath is the archive sub-path used when a branch has
	// no entry in TargetAddonPath.
	DefaultTargetAddonPath string            `mapstructure:"default_target_addon_path" json:"default_target_addon_path"`
	TargetAddonPath        map[string]string `mapstructure:"target_addon_path" json:"target_addon_path"`

	VersionFile string `mapstructure:"version_file" json:"version_file"`
}

// Validate reports the first problem that makes the config unusable.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Owner) == "":
		return configError("owner is required")
	case strings.TrimSpace(c.Repository) == "":
		return configError("repository is required")
	case strings.TrimSpace(c.CurrentAddonPath) == "":
		return configError("current add-on path is required")
	case len(c.Branches) == 0:
		return configError("at least one branch is required")
	}

	seen := make(map[string]bool, len(c.Branches))
	for _, b := range c.Branches {
		if strings.TrimSpace(b) == "" {
			return configError("branch names must not be empty")
		}
		if seen[b] {
			return configError(fmt.Sprintf("branch %q is listed twice", b))
		}
		seen[b] = true
	}

	if strings.TrimSpace(c.AddonDirectory) != "" {
		rel, err := filepath.Rel(filepath.Clean(c.AddonDirectory), filepath.Clean(c.CurrentAddonPath))
		if err != nil || rel == "." || !isRelativeSubpath(rel) {
			return configError(fmt.Sprintf("add-on path %q is not inside add-on directory %q", c.CurrentAddonPath, c.AddonDirectory))
		}
	}

	if c.MinReleaseVersion != "" && !semver.Valid(c.MinReleaseVersion) {
		return configError(fmt.Sprintf("invalid minimum release version %q", c.MinReleaseVersion))
	}
	if c.CurrentVersion != "" && !semver.Valid(c.CurrentVersion) {
		return configError(fmt.Sprintf("invalid current version %q", c.CurrentVersion))
	}
	for branch, sub := range c.TargetAddonPath {
		if !isRelativeSubpath(sub) {
			return configError(fmt.Sprintf("target path %q of branch %s escapes the archive", sub, branch))
		}
	}
	if !isRelativeSubpath(c.DefaultTargetAddonPath) {
		return configError(fmt.Sprintf("default target path %q escapes the archive", c.DefaultTargetAddonPath))
	}
	return nil
}

func configError(msg string) error {
	return apperrors.New(apperrors.CodeConfiguration, msg, nil)
}

func isRelativeSubpath(p string) bool {
	if p == "" {
		return true
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return false
	}
	cleaned := filepath.Clean(p)
	return cleaned != ".." && !strings.HasPrefix(cleaned, ".."+string(filepath.Separator))
}

// normalized returns a deep copy with defaults filled in.
func (c Config) normalized() Config {
	out := c
	out.Branches = append([]string(nil), c.Branches...)
	out.TargetAddonPath = make(map[string]string, len(c.TargetAddonPath))
	for k, v := range c.TargetAddonPath {
		out.TargetAddonPath[k] = v
	}
	out.CurrentAddonPath = filepath.Clean(c.CurrentAddonPath)
	if out.AddonDirectory == "" {
		out.AddonDirectory = files.AddonDirectory(out.CurrentAddonPath)
	}
	if out.VersionFile == "" {
		out.VersionFile = source.DefaultVersionFile
	}
	return out
}

// SubpathFor returns the archive sub-path installed for ref.
func (c Config) SubpathFor(ref string) string {
	if sub, ok := c.TargetAddonPath[ref]; ok && sub != "" {
		return sub
	}
	return c.DefaultTargetAddonPath
}

// HasBranch reports whether name is one of the configured branches.
func (c Config) HasBranch(name string) bool {
	for _, b := range c.Branches {
		if b == name {
			return true
		}
	}
	return false
}

func (c Config) query() source.Query {
	return source.Query{
		Owner:       c.Owner,
		Repository:  c.Repository,
		Branches:    append([]string(nil), c.Branches...),
		VersionFile: c.VersionFile,
	}
}
