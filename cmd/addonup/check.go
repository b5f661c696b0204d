package addonup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/mistweaverco/addonup/internal/addon"
	"github.com/mistweaverco/addonup/internal/lib/updater"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the repository for a newer add-on version",
	Long: `Check the configured branches and release tags for a version newer than
the minimum release version and report the best candidate.

Examples:
  addonup check
  addonup check --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSessionFn()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, s)
		defer cancel()

		checkErr := runCheck(ctx, s)
		if ShouldUseJSONOutput() {
			if err := PrintJSON(cmd.OutOrStdout(), s.manager.Snapshot()); err != nil {
				return err
			}
		} else {
			printCheckResult(cmd.OutOrStdout(), s.manager)
		}
		return checkErr
	},
}

// withSpinner shows a spinner while action runs on a terminal.
func withSpinner(title string, action func()) {
	if ShouldUseJSONOutput() || !isTerminalFn() {
		action()
		return
	}
	if err := spinnerRunFn(title, action); err != nil {
		Logger.Warn("Spinner failed", "error", err)
	}
}

// spinnerRunFn is an indirection for tests.
var spinnerRunFn = func(title string, action func()) error {
	return spinner.New().Title(title).Action(action).Run()
}

// runCheck executes the check operator and returns the recorded failure.
func runCheck(ctx context.Context, s *session) error {
	var execErr error
	withSpinner("Checking for updates...", func() {
		_, execErr = s.registry.Execute(ctx, addon.CheckUpdateOperatorID, nil)
	})
	if execErr != nil {
		return execErr
	}
	if s.manager.HasError() {
		return errors.New(s.manager.Error())
	}
	return nil
}

func printCheckResult(w io.Writer, m *updater.Manager) {
	panel := addon.DrawUpdaterUI(addon.Preferences{}, m)
	snap := m.Snapshot()

	var md strings.Builder
	fmt.Fprintf(&md, "# %s/%s\n\n", snap.Owner, snap.Repository)
	if panel.Update != nil && panel.Update.Enabled {
		fmt.Fprintf(&md, "%s **%s**\n\n", PanelIcon(panel.Update.Icon), panel.Update.Text)
		fmt.Fprintf(&md, "Run `addonup update %s` to install it.\n", snap.Result.LatestCandidate)
	} else if panel.Update != nil {
		fmt.Fprintf(&md, "%s %s\n", IconCheck(), panel.Update.Text)
	}
	if len(snap.Candidates) > 0 {
		md.WriteString("\n## Candidates\n\n")
		for _, c := range snap.Candidates {
			v := c.Version
			if v == "" {
				v = "no version file"
			}
			fmt.Fprintf(&md, "- `%s` %s (%s)\n", c.Name, v, c.Kind)
		}
	}
	if panel.Message != nil {
		fmt.Fprintf(&md, "\n%s %s\n", PanelIcon(panel.Message.Icon), panel.Message.Text)
	}
	printMarkdown(w, md.String())
}
