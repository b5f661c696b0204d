package addonup

import (
	"github.com/mistweaverco/addonup/internal/addon"
	"github.com/mistweaverco/addonup/internal/config"
	"github.com/mistweaverco/addonup/internal/lib/install_state"
	"github.com/mistweaverco/addonup/internal/lib/updater"
)

// session bundles what every command works with.
type session struct {
	info     addon.Info
	settings config.Settings
	manager  *updater.Manager
	registry *addon.Registry
	store    *install_state.Store
}

func newSession() (*session, error) {
	settings, err := config.LoadSettings(config.WithConfigFile(cfg.Flags.ConfigFile))
	if err != nil {
		return nil, err
	}
	if settings.File != "" {
		Logger.Debug("Loaded config file", "path", settings.File)
	}

	store := install_state.New()
	info := addon.UVIslandAlignmentTool
	m, err := addon.RegisterUpdater(info, addon.RegisterOptions{
		ModulePath: cfg.Flags.AddonPath,
		Settings:   &settings,
		Recorder:   store,
	})
	if err != nil {
		return nil, err
	}

	reg := addon.NewRegistry()
	if err := addon.RegisterOperators(reg, m); err != nil {
		return nil, err
	}
	return &session{info: info, settings: settings, manager: m, registry: reg, store: store}, nil
}

// newSessionFn is an indirection for tests.
var newSessionFn = newSession
