package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mistweaverco/addonup/internal/lib/files"
	"github.com/mistweaverco/addonup/internal/lib/updater"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	KeyOwner                  = "owner"
	KeyRepository             = "repository"
	KeyCurrentAddonPath       = "current_addon_path"
	KeyAddonDirectory         = "addon_directory"
	KeyBranches               = "branches"
	KeyMinReleaseVersion      = "min_release_version"
	KeyCurrentVersion         = "current_version"
	KeyDefaultTargetAddonPath = "default_target_addon_path"
	KeyVersionFile            = "version_file"

	KeyGitHubToken      = "github_token"
	KeyTimeout          = "timeout"
	KeySourceTags       = "source.tags"
	KeySourceCacheTTL   = "source.cache_ttl"
	KeySourceRetries    = "source.max_retries"
	KeySourceConcurrent = "source.concurrency"

	envPrefix = "ADDONUP"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultCacheTTL = 5 * time.Minute
)

// SourceSettings tunes how the repository host is queried.
type SourceSettings struct {
	Tags        bool          `mapstructure:"tags"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	MaxRetries  uint64        `mapstructure:"max_retries"`
	Concurrency int           `mapstructure:"concurrency"`
}

// Settings is the content of the addonup config file after environment
// overrides. Updater fields left empty keep the add-on's built-in values.
type Settings struct {
	updater.Config `mapstructure:",squash"`

	GitHubToken string         `mapstructure:"github_token"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	Source      SourceSettings `mapstructure:"source"`

	// File is the config file that was read, empty when none exists.
	File string `mapstructure:"-"`
}

type loadSettings struct {
	configFile string
	envFile    string
	fs         afero.Fs
}

// LoadOption configures LoadSettings.
type LoadOption func(*loadSettings)

// WithConfigFile reads path instead of the default config file location.
func WithConfigFile(path string) LoadOption {
	return func(s *loadSettings) { s.configFile = path }
}

// WithEnvFile loads path as a dotenv file before reading the environment.
func WithEnvFile(path string) LoadOption {
	return func(s *loadSettings) { s.envFile = path }
}

// WithFs reads the config file from fs.
func WithFs(fs afero.Fs) LoadOption {
	return func(s *loadSettings) { s.fs = fs }
}

// LoadSettings loads configuration using the precedence:
// defaults < config file < .env file < environment variables.
func LoadSettings(opts ...LoadOption) (Settings, error) {
	settings := loadSettings{envFile: ".env"}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.fs == nil {
		settings.fs = files.Fs()
	}
	if strings.TrimSpace(settings.configFile) == "" {
		settings.configFile = files.GetConfigFilePath()
	}

	if err := loadEnvFile(settings.envFile); err != nil {
		return Settings{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	found, err := mergeConfigFile(v, settings.fs, settings.configFile)
	if err != nil {
		return Settings{}, fmt.Errorf("load config: %w", err)
	}

	var out Settings
	if err := v.Unmarshal(&out); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if out.GitHubToken == "" {
		out.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
	if found {
		out.File = settings.configFile
	}
	return out, nil
}

func loadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func mergeConfigFile(v *viper.Viper, fsys afero.Fs, path string) (bool, error) {
	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return true, nil
	}
	v.SetConfigType(configType(path))
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

func setDefaults(v *viper.Viper) {
	for _, key := range []string{
		KeyOwner,
		KeyRepository,
		KeyCurrentAddonPath,
		KeyAddonDirectory,
		KeyMinReleaseVersion,
		KeyCurrentVersion,
		KeyDefaultTargetAddonPath,
		KeyVersionFile,
		KeyGitHubToken,
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault(KeyBranches, []string{})
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeySourceTags, true)
	v.SetDefault(KeySourceCacheTTL, DefaultCacheTTL)
	v.SetDefault(KeySourceRetries, 3)
	v.SetDefault(KeySourceConcurrent, 4)
}

// Apply overlays the non-empty updater fields of s onto cfg.
func (s Settings) Apply(cfg updater.Config) updater.Config {
	override := func(dst *string, src string) {
		if strings.TrimSpace(src) != "" {
			*dst = src
		}
	}
	override(&cfg.Owner, s.Owner)
	override(&cfg.Repository, s.Repository)
	override(&cfg.CurrentAddonPath, s.CurrentAddonPath)
	override(&cfg.AddonDirectory, s.AddonDirectory)
	override(&cfg.MinReleaseVersion, s.MinReleaseVersion)
	override(&cfg.CurrentVersion, s.CurrentVersion)
	override(&cfg.DefaultTargetAddonPath, s.DefaultTargetAddonPath)
	override(&cfg.VersionFile, s.VersionFile)

	if len(s.Branches) > 0 {
		cfg.Branches = append([]string(nil), s.Branches...)
	}
	if len(s.TargetAddonPath) > 0 {
		merged := make(map[string]string, len(cfg.TargetAddonPath)+len(s.TargetAddonPath))
		for k, v := range cfg.TargetAddonPath {
			merged[k] = v
		}
		for k, v := range s.TargetAddonPath {
			merged[k] = v
		}
		cfg.TargetAddonPath = merged
	}
	return cfg
}
