package addonup

import (
	"context"

	"github.com/mistweaverco/addonup/internal/addon"
	"github.com/mistweaverco/addonup/internal/ui"
	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Open the interactive preference panel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("target")
		return runPrefs(cmd, target)
	},
}

func init() {
	prefsCmd.Flags().String("target", "", "initial manual update target")
}

func runPrefs(cmd *cobra.Command, target string) error {
	prefs, err := addon.NewPreferences(target)
	if err != nil {
		return err
	}
	s, err := newSessionFn()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// The panel is long-lived; the timeout applies to each operator it runs.
	return uiShowFn(ctx, s.manager, s.registry, prefs, commandTimeout(cmd, s))
}

// uiShowFn is an indirection for tests.
var uiShowFn = ui.Show
