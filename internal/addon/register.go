package addon

import (
	"path/filepath"
	"strings"

	"github.com/mistweaverco/addonup/internal/config"
	apperrors "github.com/mistweaverco/addonup/internal/errors"
	"github.com/mistweaverco/addonup/internal/lib/files"
	"github.com/mistweaverco/addonup/internal/lib/install_state"
	"github.com/mistweaverco/addonup/internal/lib/source"
	"github.com/mistweaverco/addonup/internal/lib/updater"
)

const (
	DefaultOwner             = "samia-done"
	DefaultRepository        = "UV-Island-Alignment-Tool"
	DefaultTargetAddonPath   = "uv_island_alignment_tool"
	DefaultBranchTargetPath  = "src/uv_island_alignment_tool"
	DefaultMasterBranch      = "master"
	DefaultDevelopmentBranch = "develop"
)

// RegisterOptions overrides what RegisterUpdater wires by default.
type RegisterOptions struct {
	// ModulePath is the add-on's install directory. Falls back to the
	// settings and then to the directory of the running executable.
	ModulePath string
	Settings   *config.Settings

	Source    source.VersionSource
	Installer updater.Installer
	Recorder  updater.InstallRecorder
}

// DefaultConfig is the updater config the add-on ships with.
func DefaultConfig(info Info, modulePath string) updater.Config {
	modulePath = filepath.Clean(modulePath)
	return updater.Config{
		Owner:                  DefaultOwner,
		Repository:             DefaultRepository,
		CurrentAddonPath:       modulePath,
		AddonDirectory:         files.AddonDirectory(modulePath),
		Branches:               []string{DefaultMasterBranch, DefaultDevelopmentBranch},
		MinReleaseVersion:      info.VersionString(),
		DefaultTargetAddonPath: DefaultTargetAddonPath,
		TargetAddonPath: map[string]string{
			DefaultMasterBranch:      DefaultBranchTargetPath,
			DefaultDevelopmentBranch: DefaultBranchTargetPath,
		},
	}
}

// RegisterUpdater builds and initialises the updater for the add-on.
func RegisterUpdater(info Info, opts RegisterOptions) (*updater.Manager, error) {
	settings := config.Settings{}
	if opts.Settings != nil {
		settings = *opts.Settings
	}

	modulePath := strings.TrimSpace(opts.ModulePath)
	if modulePath == "" {
		modulePath = strings.TrimSpace(settings.CurrentAddonPath)
	}
	if modulePath == "" {
		dir, err := files.ModuleDir()
		if err != nil {
			return nil, apperrors.New(apperrors.CodeConfiguration, "cannot determine add-on path", err)
		}
		modulePath = dir
	}

	cfg := settings.Apply(DefaultConfig(info, modulePath))
	if opts.ModulePath != "" {
		cfg.CurrentAddonPath = filepath.Clean(opts.ModulePath)
	}
	if strings.TrimSpace(settings.AddonDirectory) == "" {
		cfg.AddonDirectory = files.AddonDirectory(cfg.CurrentAddonPath)
	}

	src := opts.Source
	if src == nil {
		src = newSource(opts.Settings)
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = install_state.New()
	}

	managerOpts := []updater.ManagerOption{
		updater.WithSource(src),
		updater.WithRecorder(recorder),
		updater.WithAddonName(info.Name),
	}
	if opts.Installer != nil {
		managerOpts = append(managerOpts, updater.WithInstaller(opts.Installer))
	}

	m := updater.NewManager(managerOpts...)
	if err := m.Init(cfg); err != nil {
		return nil, err
	}
	Logger.Debug("Registered updater", "addon", info.Name, "path", cfg.CurrentAddonPath)
	return m, nil
}

func newSource(s *config.Settings) *source.GitHubSource {
	if s == nil {
		return source.NewGitHubSource()
	}
	opts := []source.Option{
		source.WithToken(s.GitHubToken),
		source.WithTags(s.Source.Tags),
		source.WithCacheTTL(s.Source.CacheTTL),
	}
	if s.Source.MaxRetries > 0 {
		opts = append(opts, source.WithMaxRetries(s.Source.MaxRetries))
	}
	if s.Source.Concurrency > 0 {
		opts = append(opts, source.WithConcurrency(s.Source.Concurrency))
	}
	return source.NewGitHubSource(opts...)
}
