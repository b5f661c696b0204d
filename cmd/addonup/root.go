package addonup

import (
	"context"
	"fmt"
	"time"

	"github.com/mistweaverco/addonup/internal/config"
	"github.com/mistweaverco/addonup/internal/lib/log"
	"github.com/mistweaverco/addonup/internal/lib/version"
	"github.com/spf13/cobra"
)

var Logger = log.NewLogger()

var cfg = config.NewConfig(config.Config{
	Flags: config.ConfigFlags{
		Timeout: config.DefaultTimeout,
		Color:   config.ColorModeAuto,
		Output:  config.OutputModePlain,
	},
})

var rootCmd = &cobra.Command{
	Use:   "addonup",
	Short: "Keep the UV Island Alignment Tool add-on up to date",
	Long: `addonup checks the add-on's GitHub repository for newer releases and
installs a chosen branch or tag in place of the current add-on directory.

Without a subcommand the interactive preference panel is shown.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Flags.Version {
			fmt.Fprintln(cmd.OutOrStdout(), version.VERSION)
			return nil
		}
		return runPrefs(cmd, "")
	},
}

// Execute runs the root command and returns the process exit code. The
// caller exits, so deferred cleanup in main still runs.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(operatorsCmd)

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&cfg.Flags.Version, "version", false, "version")
	flags.StringVar(&cfg.Flags.ConfigFile, "config", "", "config file (default is $ADDONUP_HOME/addonup.yaml)")
	flags.StringVar(&cfg.Flags.AddonPath, "addon-path", "", "directory of the installed add-on")
	flags.Var(&cfg.Flags.Color, "color", "when to use colors: auto, always or never")
	flags.Var(&cfg.Flags.Output, "output", "output format: rich, plain or json")
	flags.DurationVar(&cfg.Flags.Timeout, "timeout", config.DefaultTimeout, "timeout for network operations")

	SetColorConfigFunc(func() config.ConfigFlags { return cfg.GetConfigFlags() })
}

// commandTimeout is the --timeout flag when given, else the config file
// value, else the default.
func commandTimeout(cmd *cobra.Command, s *session) time.Duration {
	timeout := cfg.Flags.Timeout
	if !cmd.Flags().Changed("timeout") && s != nil && s.settings.Timeout > 0 {
		timeout = s.settings.Timeout
	}
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return timeout
}

// commandContext bounds a command by the configured timeout.
func commandContext(cmd *cobra.Command, s *session) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout(cmd, s))
}
